package report

import (
	"regexp"
	"strings"
)

// Sentinels delimiting the machine-managed region of a release body.
const (
	StartMarker = "<!-- github-assets-to-s3:start -->"
	EndMarker   = "<!-- github-assets-to-s3:end -->"
)

var managedRegion = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(StartMarker) + `.*?` + regexp.QuoteMeta(EndMarker))

// Splice places rendered inside the managed region of body. The first
// existing region is replaced, markers included; without one the region
// is appended. Text outside the region is kept as is.
func Splice(body, rendered string) string {
	block := StartMarker + "\n" + rendered + "\n" + EndMarker

	start := strings.Index(body, StartMarker)
	if start < 0 {
		if body == "" {
			return block
		}
		return body + "\n\n" + block
	}

	if loc := managedRegion.FindStringIndex(body); loc != nil {
		return body[:loc[0]] + block + body[loc[1]:]
	}
	// Unterminated region: it runs to the end of the body.
	return body[:start] + block
}
