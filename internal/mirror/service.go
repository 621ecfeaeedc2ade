// Package mirror copies the assets of a GitHub release into object storage
// and reports on what was copied.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/okcodes/github-assets-to-s3/internal/model"
	"github.com/okcodes/github-assets-to-s3/internal/report"
)

// ErrNotFound is returned by a ReleaseAPI when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// pageSize is the largest page GitHub serves.
const pageSize = 100

// Page carries the pagination metadata of a listing response.
type Page struct {
	HasNext bool
}

// Download is an open asset stream.
type Download struct {
	Body          io.ReadCloser
	ContentLength int64 // -1 when unknown
}

// ReleaseUpdate is the payload of a release edit.
type ReleaseUpdate struct {
	TagName string
	Body    string
}

// ReleaseAPI is the subset of the hosting platform the mirror talks to.
type ReleaseAPI interface {
	GetReleaseByTag(ctx context.Context, repo model.Repository, tag string) (model.Release, error)
	ListReleases(ctx context.Context, repo model.Repository, page, perPage int) ([]model.Release, Page, error)
	GetRelease(ctx context.Context, repo model.Repository, releaseID int64) (model.Release, error)
	ListReleaseAssets(ctx context.Context, repo model.Repository, releaseID int64, page, perPage int) ([]model.ReleaseAsset, Page, error)
	DownloadAsset(ctx context.Context, repo model.Repository, assetID int64) (Download, error)
	UpdateRelease(ctx context.Context, repo model.Repository, releaseID int64, update ReleaseUpdate) error
}

// ObjectStorage writes data streams to object storage. size is -1 when unknown.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data io.Reader, size int64) error
}

// Options tune a Service.
type Options struct {
	Folder        string
	Concurrency   int // 0 means one goroutine per asset
	UpdateRelease bool
	URLFor        func(key string) string
	Summary       io.Writer // nil disables the run summary
}

// Request selects the release to mirror. Exactly one of ReleaseID and Tag is set.
type Request struct {
	Repo      model.Repository
	ReleaseID int64
	Tag       string
	RunID     model.RunID
}

// Result describes a completed run.
type Result struct {
	Release   model.Release
	Transfers []model.Transfer
	Report    string
	// AnnotationErr is set when the best-effort release annotation failed.
	AnnotationErr error
}

// Service orchestrates the mirror: resolve, list, transfer, report.
type Service struct {
	api           ReleaseAPI
	objectStorage ObjectStorage
	opts          Options
}

func NewService(api ReleaseAPI, objectStorage ObjectStorage, opts Options) *Service {
	if opts.URLFor == nil {
		opts.URLFor = func(key string) string { return key }
	}
	return &Service{api: api, objectStorage: objectStorage, opts: opts}
}

// Run mirrors one release. Resolution, listing, transfer and summary
// failures are returned; annotation failures only land in Result.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.RunID.Validate(); err != nil {
		return nil, err
	}
	if (req.Tag == "") == (req.ReleaseID == 0) {
		return nil, fmt.Errorf("exactly one of release id and release tag is required")
	}

	releaseID := req.ReleaseID
	if req.Tag != "" {
		id, err := s.ResolveReleaseID(ctx, req.Repo, req.Tag)
		if err != nil {
			return nil, err
		}
		releaseID = id
	}

	release, err := s.api.GetRelease(ctx, req.Repo, releaseID)
	if err != nil {
		return nil, fmt.Errorf("get %s release %d: %w", req.Repo, releaseID, err)
	}

	slog.InfoContext(ctx, "mirror started", "repository", req.Repo.String(), "release_id", releaseID, "tag", release.TagName, "run_id", req.RunID)

	assets, err := s.ListReleaseAssets(ctx, req.Repo, releaseID)
	if err != nil {
		return nil, err
	}

	transfers, err := s.TransferAll(ctx, req.Repo, assets)
	if err != nil {
		return nil, err
	}

	urlFor := func(t model.Transfer) string { return s.opts.URLFor(t.ObjectKey) }
	result := &Result{
		Release:   release,
		Transfers: transfers,
		Report:    report.Build(release.TagName, transfers, urlFor),
	}

	if s.opts.UpdateRelease {
		if err := s.AnnotateRelease(ctx, req.Repo, releaseID, result.Report); err != nil {
			slog.WarnContext(ctx, "release annotation failed", "repository", req.Repo.String(), "release_id", releaseID, "error", err)
			result.AnnotationErr = err
		}
	}

	if s.opts.Summary != nil {
		err := report.WriteRunSummary(s.opts.Summary, report.RunSummary{
			Transfers:  transfers,
			URLFor:     urlFor,
			ReleaseTag: release.TagName,
			ReleaseURL: release.HTMLURL,
		})
		if err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "mirror complete", "release_id", releaseID, "transfers", len(transfers), "run_id", req.RunID)
	return result, nil
}
