package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/okcodes/github-assets-to-s3/internal/model"
)

// ReleaseNotFoundError means no published or draft release carries the tag.
type ReleaseNotFoundError struct {
	Repo model.Repository
	Tag  string
}

func (e *ReleaseNotFoundError) Error() string {
	return fmt.Sprintf("release with tag %q was not found in the published and draft releases of %s", e.Tag, e.Repo)
}

// ResolveReleaseID finds the id of the release tagged tag. The by-tag
// lookup only sees published releases, so a not-found answer falls back to
// walking every release page; any other error is returned as is.
func (s *Service) ResolveReleaseID(ctx context.Context, repo model.Repository, tag string) (int64, error) {
	release, err := s.api.GetReleaseByTag(ctx, repo, tag)
	if err == nil {
		slog.DebugContext(ctx, "resolved published release", "repository", repo.String(), "tag", tag, "release_id", release.ID)
		return release.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("get %s release by tag %q: %w", repo, tag, err)
	}

	slog.InfoContext(ctx, "release not published, scanning all releases", "repository", repo.String(), "tag", tag)
	for page := 1; ; page++ {
		releases, meta, err := s.api.ListReleases(ctx, repo, page, pageSize)
		if err != nil {
			return 0, fmt.Errorf("list %s releases page %d: %w", repo, page, err)
		}
		for _, r := range releases {
			if r.TagName == tag {
				slog.DebugContext(ctx, "resolved release by scan", "repository", repo.String(), "tag", tag, "release_id", r.ID, "draft", r.Draft, "page", page)
				return r.ID, nil
			}
		}
		if !meta.HasNext {
			return 0, &ReleaseNotFoundError{Repo: repo, Tag: tag}
		}
	}
}
