package drift

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	missingLabel   = color.New(color.FgRed, color.Bold)
	ambiguousLabel = color.New(color.FgYellow, color.Bold)
)

type Summary struct {
	Matched   int  `json:"matched"`
	Missing   int  `json:"missing"`
	Ambiguous int  `json:"ambiguous"`
	Extra     int  `json:"extra"`
	HasIssues bool `json:"has_issues"`
}

// Report is the JSON shape of a result.
type Report struct {
	Summary Summary `json:"summary"`
	Result
}

func NewReport(r Result) Report {
	return Report{
		Summary: Summary{
			Matched:   len(r.Matched),
			Missing:   len(r.Missing),
			Ambiguous: len(r.Ambiguous),
			Extra:     len(r.Extra),
			HasIssues: r.HasIssues(),
		},
		Result: r,
	}
}

// WriteText prints the summary, missing and ambiguous symbols in full and
// extras as a count.
func WriteText(w io.Writer, r Result) error {
	fmt.Fprintf(w, "Summary: %d matched, %d missing, %d ambiguous, %d extra\n",
		len(r.Matched), len(r.Missing), len(r.Ambiguous), len(r.Extra))

	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "\n%s\n", missingLabel.Sprint("Missing (declared but not in code):"))
		for _, exp := range r.Missing {
			fmt.Fprintf(w, "  %s\n", describe(exp))
		}
	}

	if len(r.Ambiguous) > 0 {
		fmt.Fprintf(w, "\n%s\n", ambiguousLabel.Sprint("Ambiguous (multiple candidates):"))
		for _, a := range r.Ambiguous {
			fmt.Fprintf(w, "  %s %s (%d candidates)\n", icon(a.Expected.Kind), a.Expected.Name, len(a.Candidates))
			for _, c := range a.Candidates {
				fmt.Fprintf(w, "    - %s at %s:%d:%d", c.Name, c.File, c.Line, c.Column)
				if c.Container != "" {
					fmt.Fprintf(w, " in %s", c.Container)
				}
				fmt.Fprintln(w)
			}
		}
	}

	if len(r.Extra) > 0 {
		fmt.Fprintf(w, "\nExtra symbols in code: %d (use --json for the full list)\n", len(r.Extra))
	}

	var err error
	if r.HasIssues() {
		_, err = fmt.Fprintln(w, "\nDrift detected.")
	} else {
		_, err = fmt.Fprintf(w, "\n%s: no drift\n", color.GreenString("ok"))
	}
	return err
}

// WriteMarkdown prints the same report as WriteText as a Markdown
// document, with missing symbols in a table.
func WriteMarkdown(w io.Writer, r Result) error {
	var b strings.Builder
	b.WriteString("# Drift report\n\n## Summary\n\n")
	fmt.Fprintf(&b, "- Matched: **%d**\n- Missing: **%d**\n- Ambiguous: **%d**\n- Extra: **%d**\n\n",
		len(r.Matched), len(r.Missing), len(r.Ambiguous), len(r.Extra))

	if len(r.Missing) > 0 {
		b.WriteString("## Missing (declared but not in code)\n\n")
		b.WriteString("| Kind | Name | Binding | Language | Path |\n")
		b.WriteString("|------|------|---------|----------|------|\n")
		for _, exp := range r.Missing {
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s | %s |\n",
				exp.Kind, exp.Name, orDash(exp.Bind), orDefault(exp.Lang, LanguageEither), orDash(exp.Path))
		}
		b.WriteString("\n")
	}

	if len(r.Ambiguous) > 0 {
		b.WriteString("## Ambiguous (multiple candidates)\n\n")
		for _, a := range r.Ambiguous {
			fmt.Fprintf(&b, "### `%s`\n\n", a.Expected.Name)
			for _, c := range a.Candidates {
				fmt.Fprintf(&b, "- `%s` at %s:%d:%d", c.Name, c.File, c.Line, c.Column)
				if c.Container != "" {
					fmt.Fprintf(&b, " in `%s`", c.Container)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if len(r.Extra) > 0 {
		fmt.Fprintf(&b, "## Extra symbols\n\n%d symbols in code are not declared.\n\n", len(r.Extra))
	}

	b.WriteString("## Status\n\n")
	if r.HasIssues() {
		b.WriteString("**Drift detected.** Review the missing and ambiguous symbols above.\n")
	} else {
		b.WriteString("**No drift.** Declarations and code agree.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func orDash(s string) string {
	return orDefault(s, "-")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func describe(exp Expected) string {
	s := icon(exp.Kind) + " " + exp.Name
	if exp.Bind != "" {
		s += " (bind: " + exp.Bind + ")"
	}
	if exp.Lang != "" {
		s += " [lang: " + exp.Lang + "]"
	}
	if exp.Path != "" {
		s += " @" + exp.Path
	}
	return s
}

func icon(k Kind) string {
	if k == KindFunc {
		return "ƒ"
	}
	return "T"
}
