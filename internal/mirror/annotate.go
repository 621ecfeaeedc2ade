package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okcodes/github-assets-to-s3/internal/model"
	"github.com/okcodes/github-assets-to-s3/internal/report"
)

// AnnotateRelease splices rendered into the managed region of the release
// description. It is best-effort: Run logs a failure and carries on.
func (s *Service) AnnotateRelease(ctx context.Context, repo model.Repository, releaseID int64, rendered string) error {
	release, err := s.api.GetRelease(ctx, repo, releaseID)
	if err != nil {
		return fmt.Errorf("get %s release %d: %w", repo, releaseID, err)
	}

	update := ReleaseUpdate{
		TagName: release.TagName,
		Body:    report.Splice(release.Body, rendered),
	}
	if err := s.api.UpdateRelease(ctx, repo, releaseID, update); err != nil {
		return fmt.Errorf("update %s release %d: %w", repo, releaseID, err)
	}

	slog.InfoContext(ctx, "release description updated", "repository", repo.String(), "release_id", releaseID)
	return nil
}
