package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/okcodes/github-assets-to-s3/internal/model"
	"github.com/okcodes/github-assets-to-s3/internal/storage"
)

// TransferAll streams every asset into object storage concurrently. The
// first failure cancels the remaining transfers and is returned; objects
// already written stay in the bucket. On success the result holds one
// Transfer per asset, in input order.
func (s *Service) TransferAll(ctx context.Context, repo model.Repository, assets []model.ReleaseAsset) ([]model.Transfer, error) {
	transfers := make([]model.Transfer, len(assets))
	g, ctx := errgroup.WithContext(ctx)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}

	slog.InfoContext(ctx, "transferring assets", "repository", repo.String(), "assets", len(assets))
	for i, asset := range assets {
		g.Go(func() error {
			transfer, err := s.transfer(ctx, repo, asset)
			if err != nil {
				return err
			}
			transfers[i] = transfer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return transfers, nil
}

func (s *Service) transfer(ctx context.Context, repo model.Repository, asset model.ReleaseAsset) (model.Transfer, error) {
	key := storage.ObjectKey(s.opts.Folder, asset.Name)

	download, err := s.api.DownloadAsset(ctx, repo, asset.ID)
	if err != nil {
		return model.Transfer{}, fmt.Errorf("download asset %q of %s: %w", asset.Name, repo, err)
	}
	defer download.Body.Close()

	slog.DebugContext(ctx, "uploading asset", "asset", asset.Name, "key", key, "content_length", download.ContentLength)
	if err := s.objectStorage.Put(ctx, key, download.Body, download.ContentLength); err != nil {
		return model.Transfer{}, fmt.Errorf("upload asset %q of %s: %w", asset.Name, repo, err)
	}

	size := download.ContentLength
	if size < 0 {
		size = 0
	}
	slog.InfoContext(ctx, "asset transferred", "asset", asset.Name, "key", key, "size", size)
	return model.Transfer{Asset: asset, ObjectKey: key, Size: size}, nil
}
