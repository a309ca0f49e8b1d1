package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/htmlview"
)

// RunExportHTML writes the project as an interactive HTML page. The page
// is still written when the project has errors; the command then fails.
func RunExportHTML(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	title := "Blueprint"
	if name := p.Manifest.Project.Name; name != "" {
		title = name
	}

	var buf bytes.Buffer
	if err := htmlview.WriteProject(&buf, htmlview.Project(p, title)); err != nil {
		return err
	}
	if err := writeExport(cmd, buf.Bytes()); err != nil {
		return err
	}
	return finishQuery(cmd, p)
}

// RunExportDeployHTML writes a deployment file's job graph as an
// interactive HTML page.
func RunExportDeployHTML(cmd *cobra.Command, args []string) error {
	f, diags, err := loadDeploy(args[0])
	if err != nil {
		return err
	}
	if f == nil {
		return reportDiagnostics(cmd, diags)
	}

	var buf bytes.Buffer
	if err := htmlview.WriteDeploy(&buf, htmlview.Deploy(f)); err != nil {
		return err
	}
	if err := writeExport(cmd, buf.Bytes()); err != nil {
		return err
	}
	if diag.HasErrors(diags) {
		if err := diag.WriteText(cmd.ErrOrStderr(), diags); err != nil {
			return err
		}
		return ErrDiagnostics
	}
	return nil
}

// writeExport prints data, or writes it to --out when given.
func writeExport(cmd *cobra.Command, data []byte) error {
	out, err := OptionalStringFlag(cmd, "out")
	if err != nil {
		return err
	}
	if out == "" || out == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
	}
	changed, err := fileutil.WriteIfChangedTracked(out, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if changed {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", out)
	}
	return nil
}
