package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
	dimText      = color.New(color.Faint)
)

// WriteText renders diags one per line followed by a summary line:
//
//	error[E_UNRESOLVED_REF] users.toml:12 func.create_user: ...
func WriteText(w io.Writer, diags []Diagnostic) error {
	for _, d := range diags {
		if _, err := fmt.Fprintln(w, FormatLine(d)); err != nil {
			return err
		}
		if len(d.Path) > 0 {
			if _, err := fmt.Fprintf(w, "  %s %s\n", dimText.Sprint("path:"), strings.Join(d.Path, " -> ")); err != nil {
				return err
			}
		}
	}
	errs, warns := Count(diags)
	_, err := fmt.Fprintln(w, Summary(errs, warns))
	return err
}

func FormatLine(d Diagnostic) string {
	label := warningLabel.Sprintf("warning[%s]", d.Code)
	if d.IsError() {
		label = errorLabel.Sprintf("error[%s]", d.Code)
	}

	var b strings.Builder
	b.WriteString(label)
	if where := d.Where(); where != "" {
		b.WriteByte(' ')
		b.WriteString(where)
	}
	if d.Symbol != "" {
		b.WriteByte(' ')
		b.WriteString(d.Symbol)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Location != "" && d.Location != d.Symbol {
		b.WriteByte(' ')
		b.WriteString(dimText.Sprintf("(%s)", d.Location))
	}
	return b.String()
}

// Where returns "file:line", "file" or "".
func (d Diagnostic) Where() string {
	switch {
	case d.File != "" && d.Line > 0:
		return fmt.Sprintf("%s:%d", d.File, d.Line)
	default:
		return d.File
	}
}

func Summary(errs, warns int) string {
	if errs == 0 && warns == 0 {
		return color.GreenString("ok") + ": no diagnostics"
	}
	return fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
}

// Report is the JSON shape of a diagnostic run.
type Report struct {
	OK          bool         `json:"ok"`
	Errors      int          `json:"errors"`
	Warnings    int          `json:"warnings"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func NewReport(diags []Diagnostic) Report {
	errs, warns := Count(diags)
	if diags == nil {
		diags = []Diagnostic{}
	}
	return Report{OK: errs == 0, Errors: errs, Warnings: warns, Diagnostics: diags}
}

func WriteJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(diags))
}
