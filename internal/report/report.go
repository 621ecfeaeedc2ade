// Package report renders Markdown summaries of transferred release assets.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/okcodes/github-assets-to-s3/internal/model"
)

// UpdaterGroup is rendered after every other group.
const UpdaterGroup = "Updater"

var targetLabels = map[string]string{
	"aarch64-apple-darwin":      "Apple Silicon",
	"x86_64-apple-darwin":       "Apple Intel",
	"universal-apple-darwin":    "Apple Universal",
	"aarch64-pc-windows-msvc":   "Windows ARM64",
	"i686-pc-windows-msvc":      "Windows 32-bit",
	"x86_64-pc-windows-msvc":    "Windows 64-bit",
	"aarch64-unknown-linux-gnu": "Linux ARM64",
	"x86_64-unknown-linux-gnu":  "Linux 64-bit",
	"updater":                   UpdaterGroup,
}

// knownTargets is ordered longest first so the most specific target wins.
var knownTargets = func() []string {
	targets := make([]string, 0, len(targetLabels))
	for t := range targetLabels {
		targets = append(targets, t)
	}
	slices.SortFunc(targets, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return targets
}()

// Group is a labeled set of transfers.
type Group struct {
	Label     string
	Transfers []model.Transfer
}

// GroupLabel derives the group an asset belongs to from its file name.
func GroupLabel(name string) string {
	prefix := namePrefix(name)
	if target, _, ok := findTarget(prefix); ok {
		return targetLabels[target]
	}
	if label, ok := targetLabels[prefix]; ok {
		return label
	}
	return prefix
}

// GroupTransfers partitions transfers by GroupLabel. Groups are sorted by
// label with UpdaterGroup moved to the end; transfers keep their order.
func GroupTransfers(transfers []model.Transfer) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, t := range transfers {
		label := GroupLabel(t.Asset.Name)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Transfers = append(groups[i].Transfers, t)
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		switch {
		case a.Label == b.Label:
			return 0
		case a.Label == UpdaterGroup:
			return 1
		case b.Label == UpdaterGroup:
			return -1
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return groups
}

// DisplayName is the asset name as shown in the report: manifests (.json)
// verbatim, everything else without its platform target and release tag.
func DisplayName(tag, name string) string {
	if strings.HasSuffix(name, ".json") {
		return name
	}

	display := name
	if target, at, ok := findTarget(namePrefix(name)); ok {
		end := at + len(target)
		if at == 0 {
			if end < len(name) && strings.ContainsRune("._-", rune(name[end])) {
				end++
			}
			display = name[end:]
		} else {
			display = name[:at-1] + name[end:]
		}
	}
	display = stripToken(display, tag)

	if display == "" {
		return name
	}
	return display
}

// FormatSize renders a byte count for humans, e.g. "2.5 MB".
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Build renders one Markdown section per group. urlFor resolves the link
// of every row. An empty transfer list yields "".
func Build(tag string, transfers []model.Transfer, urlFor func(model.Transfer) string) string {
	groups := GroupTransfers(transfers)
	sections := make([]string, 0, len(groups))
	for _, g := range groups {
		var b strings.Builder
		fmt.Fprintf(&b, "## %s\n| Asset | Size |\n| - | - |", g.Label)
		for _, t := range g.Transfers {
			fmt.Fprintf(&b, "\n| [%s](%s) | %s |", DisplayName(tag, t.Asset.Name), urlFor(t), FormatSize(t.Size))
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

func namePrefix(name string) string {
	prefix, _, _ := strings.Cut(name, ".")
	return prefix
}

// findTarget looks for a known target that forms a whole "_"/"-" delimited
// token of prefix and returns it with its byte offset.
func findTarget(prefix string) (string, int, bool) {
	for _, target := range knownTargets {
		if at := tokenIndex(prefix, target); at >= 0 {
			return target, at, true
		}
	}
	return "", -1, false
}

func tokenIndex(s, token string) int {
	if token == "" {
		return -1
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], token)
		if i < 0 {
			return -1
		}
		at := offset + i
		end := at + len(token)
		if (at == 0 || isSeparator(s[at-1])) && (end == len(s) || isSeparator(s[end])) {
			return at
		}
		offset = at + 1
	}
	return -1
}

func isSeparator(c byte) bool {
	return c == '_' || c == '-'
}

// stripToken removes the first whole occurrence of token together with one
// adjacent separator. An occurrence that is part of a longer token, like
// "v1" in "v10" or "1.2" in "1.2.3", is left alone.
func stripToken(s, token string) string {
	if token == "" {
		return s
	}
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], token)
		if i < 0 {
			return s
		}
		at := offset + i
		end := at + len(token)
		offset = at + 1

		if at > 0 && !isSeparator(s[at-1]) {
			continue
		}
		if end < len(s) && !isSeparator(s[end]) && !isExtensionDot(s, end) {
			continue
		}
		switch {
		case end < len(s) && isSeparator(s[end]):
			return s[:at] + s[end+1:]
		case at > 0:
			return s[:at-1] + s[end:]
		}
	}
	return s
}

// isExtensionDot reports whether s[i] is a "." that starts a file extension
// rather than continuing a version number.
func isExtensionDot(s string, i int) bool {
	if s[i] != '.' {
		return false
	}
	return i+1 == len(s) || s[i+1] < '0' || s[i+1] > '9'
}
