package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/okcodes/github-assets-to-s3/internal/model"
)

// RunSummary is the input of WriteRunSummary.
type RunSummary struct {
	Transfers  []model.Transfer
	URLFor     func(model.Transfer) string
	ReleaseTag string
	ReleaseURL string // optional
}

// WriteRunSummary writes the top-level summary of a run: a heading with the
// transfer count, one table row per transfer and a link to the release.
func WriteRunSummary(w io.Writer, s RunSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## %d release assets transferred to S3\n\n", len(s.Transfers))
	b.WriteString("| Asset | Size |\n| - | - |\n")
	for _, t := range s.Transfers {
		fmt.Fprintf(&b, "| [%s](%s) | %s |\n", t.Asset.Name, s.URLFor(t), FormatSize(t.Size))
	}
	if s.ReleaseURL != "" {
		label := s.ReleaseTag
		if label == "" {
			label = s.ReleaseURL
		}
		fmt.Fprintf(&b, "\n[Release %s](%s)\n", label, s.ReleaseURL)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}
