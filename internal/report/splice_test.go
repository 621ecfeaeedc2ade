package report

import (
	"strings"
	"testing"
)

func TestSplice(t *testing.T) {
	block := StartMarker + "\nNEW\n" + EndMarker

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "empty body",
			body: "",
			want: block,
		},
		{
			name: "append",
			body: "Release notes",
			want: "Release notes\n\n" + block,
		},
		{
			name: "replace region",
			body: "before\n" + StartMarker + "\nOLD\n" + EndMarker + "\nafter",
			want: "before\n" + block + "\nafter",
		},
		{
			name: "only first region",
			body: StartMarker + "A" + EndMarker + " mid " + StartMarker + "B" + EndMarker,
			want: block + " mid " + StartMarker + "B" + EndMarker,
		},
		{
			name: "unterminated region",
			body: "notes\n" + StartMarker + "\nOLD",
			want: "notes\n" + block,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Splice(tt.body, "NEW"); got != tt.want {
				t.Errorf("Splice() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestSplice_Idempotent(t *testing.T) {
	report := "## Windows 64-bit\n| Asset | Size |\n| - | - |\n| [app.exe](https://x/app.exe) | 2.5 MB |"
	bodies := []string{
		"",
		"Hand written notes.",
		"top\n" + StartMarker + "\nstale\n" + EndMarker + "\nbottom",
	}

	for _, body := range bodies {
		once := Splice(body, report)
		twice := Splice(once, report)
		if once != twice {
			t.Errorf("Splice not idempotent for %q:\nonce  %q\ntwice %q", body, once, twice)
		}
		if n := strings.Count(twice, StartMarker); n != 1 {
			t.Errorf("expected exactly one managed region, found %d", n)
		}
		if n := strings.Count(twice, report); n != 1 {
			t.Errorf("expected report exactly once, found %d", n)
		}
	}
}
