package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okcodes/github-assets-to-s3/internal/model"
)

// ListReleaseAssets returns every asset of a release in listing order.
func (s *Service) ListReleaseAssets(ctx context.Context, repo model.Repository, releaseID int64) ([]model.ReleaseAsset, error) {
	var assets []model.ReleaseAsset
	for page := 1; ; page++ {
		batch, meta, err := s.api.ListReleaseAssets(ctx, repo, releaseID, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list assets of %s release %d: %w", repo, releaseID, err)
		}
		assets = append(assets, batch...)
		if !meta.HasNext {
			break
		}
	}

	slog.InfoContext(ctx, "listed release assets", "repository", repo.String(), "release_id", releaseID, "assets", len(assets))
	return assets, nil
}
