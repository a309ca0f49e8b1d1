package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/loader"
	"github.com/morozRed/blueprint/internal/status"
)

// now is replaced in tests.
var now = time.Now

func today() string {
	return now().Format(time.DateOnly)
}

// readDocument returns a document's bytes and parse. A parse failure is
// printed as E_PARSE and returned as ErrDiagnostics.
func readDocument(cmd *cobra.Command, path string) ([]byte, *document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := document.Parse(path, data)
	if err != nil {
		return nil, nil, reportDiagnostics(cmd, []diag.Diagnostic{loader.ParseDiagnostic(path, err)})
	}
	return data, doc, nil
}

func writeDocument(path string, data []byte) error {
	if _, err := fileutil.WriteIfChangedTracked(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func RunStatusInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, doc, err := readDocument(cmd, path)
	if err != nil {
		return err
	}
	out, added, err := status.Init(data, doc, today())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := writeDocument(path, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized status for %d modules in %s\n", len(added), path)
	for _, mod := range added {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", status.Symbol(status.InitialState), mod)
	}
	return nil
}

func RunStatusSync(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, doc, err := readDocument(cmd, path)
	if err != nil {
		return err
	}
	out, added, err := status.Sync(data, doc, today())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(added) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Status in %s is up to date\n", path)
		return nil
	}
	if err := writeDocument(path, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d modules to status in %s\n", len(added), path)
	for _, mod := range added {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", status.Symbol(status.InitialState), mod)
	}
	return nil
}

// RunStatusSet takes <mod> <file> and changes the fields given as flags.
func RunStatusSet(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]
	var u status.Update
	var err error
	if u.State, err = changedStringFlag(cmd, "state"); err != nil {
		return err
	}
	if u.Coverage, err = changedFloatFlag(cmd, "coverage"); err != nil {
		return err
	}
	if u.Notes, err = changedStringFlag(cmd, "notes"); err != nil {
		return err
	}

	data, doc, err := readDocument(cmd, path)
	if err != nil {
		return err
	}
	out, err := status.Set(data, doc, name, u, today())
	if err != nil {
		return err
	}
	if err := writeDocument(path, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated mod.%s in %s\n", status.LocalName(name), path)
	return nil
}

func RunStatusList(cmd *cobra.Command, args []string) error {
	_, doc, err := readDocument(cmd, args[0])
	if err != nil {
		return err
	}
	report := status.List(doc)
	return writeResult(cmd, report, func(w io.Writer) { writeStatusReport(w, report) })
}

// RunStatusShow takes <mod> <file>.
func RunStatusShow(cmd *cobra.Command, args []string) error {
	_, doc, err := readDocument(cmd, args[1])
	if err != nil {
		return err
	}
	entry, err := status.Show(doc, args[0])
	if err != nil {
		return err
	}
	return writeResult(cmd, entry, func(w io.Writer) { writeStatusEntry(w, entry) })
}

func writeStatusReport(w io.Writer, r status.Report) {
	if !r.HasStatus {
		fmt.Fprintf(w, "%s has no [status] section (run blueprint status init %s)\n", r.File, r.File)
		return
	}
	fmt.Fprintf(w, "%s", r.File)
	if r.UpdatedAt != "" {
		fmt.Fprintf(w, " (updated %s)", r.UpdatedAt)
	}
	fmt.Fprintln(w)
	for _, e := range r.Entries {
		if !e.Set {
			fmt.Fprintf(w, "  %-12s %s\n", "? unset", e.Module)
			continue
		}
		fmt.Fprintf(w, "  %-12s %s%s\n", status.Symbol(e.State), e.Module, coverageSuffix(e))
	}
}

func writeStatusEntry(w io.Writer, e status.Entry) {
	fmt.Fprintln(w, e.Module)
	if e.Purpose != "" {
		fmt.Fprintf(w, "  purpose:  %s\n", e.Purpose)
	}
	if !e.Set {
		fmt.Fprintln(w, "  status:   unset (run blueprint status sync)")
		return
	}
	fmt.Fprintf(w, "  state:    %s\n", status.Symbol(e.State))
	if e.Coverage != nil {
		fmt.Fprintf(w, "  coverage: %.0f%%\n", *e.Coverage*100)
	}
	if e.Notes != "" {
		fmt.Fprintf(w, "  notes:    %s\n", e.Notes)
	}
}

func coverageSuffix(e status.Entry) string {
	if e.Coverage == nil {
		return ""
	}
	return fmt.Sprintf(" (%.0f%%)", *e.Coverage*100)
}
