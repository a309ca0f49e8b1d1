package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/manifest"
	"github.com/morozRed/blueprint/internal/project"
)

var (
	// ErrDiagnostics is returned after a report that contains errors. The
	// report has already been printed.
	ErrDiagnostics = errors.New("error diagnostics reported")
	// ErrDrift is returned after a diff-impl report with issues.
	ErrDrift = errors.New("implementation drift detected")
)

// Silent reports whether err only carries an exit status.
func Silent(err error) bool {
	return errors.Is(err, ErrDiagnostics) || errors.Is(err, ErrDrift)
}

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// manifestPath returns --manifest made absolute, defaulting to
// blueprint.toml in the working directory.
func manifestPath(cmd *cobra.Command) (string, error) {
	path, err := OptionalStringFlag(cmd, "manifest")
	if err != nil {
		return "", err
	}
	if path == "" {
		path = manifest.DefaultFile
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := resolveWorkingDirectory()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadProject loads the project named by --manifest. --strict, when the
// command has it, forces the strict ambiguity policy.
func loadProject(cmd *cobra.Command) (*project.Project, error) {
	path, err := manifestPath(cmd)
	if err != nil {
		return nil, err
	}
	strict, err := OptionalBoolFlag(cmd, "strict", false)
	if err != nil {
		return nil, err
	}
	ctx := commandContext(cmd)
	p, err := project.Load(ctx, path, project.Options{Strict: strict})
	if err != nil {
		return nil, err
	}
	errs, warns := diag.Count(p.Diagnostics)
	ctxlog.FromContext(ctx).Debug("project loaded",
		"manifest", path,
		"documents", len(p.Documents),
		"errors", errs,
		"warnings", warns,
	)
	return p, nil
}

// reportDiagnostics prints diags as text or JSON and turns errors into
// ErrDiagnostics.
func reportDiagnostics(cmd *cobra.Command, diags []diag.Diagnostic) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	if asJSON {
		err = diag.WriteJSON(cmd.OutOrStdout(), diags)
	} else {
		err = diag.WriteText(cmd.OutOrStdout(), diags)
	}
	if err != nil {
		return err
	}
	if diag.HasErrors(diags) {
		return ErrDiagnostics
	}
	return nil
}

// printJSON writes value when --json is set and reports whether it did.
func printJSON(cmd *cobra.Command, value any) (bool, error) {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil || !asJSON {
		return false, err
	}
	return true, fileutil.PrintJSON(cmd.OutOrStdout(), value)
}

// writeResult prints value as JSON under --json and through text
// otherwise.
func writeResult(cmd *cobra.Command, value any, text func(w io.Writer)) error {
	ok, err := printJSON(cmd, value)
	if err != nil {
		return err
	}
	if !ok {
		text(cmd.OutOrStdout())
	}
	return nil
}

// finishQuery runs after a query printed its result. Error diagnostics
// in the project go to stderr and fail the command.
func finishQuery(cmd *cobra.Command, p *project.Project) error {
	if !diag.HasErrors(p.Diagnostics) {
		return nil
	}
	var errs []diag.Diagnostic
	for _, d := range p.Diagnostics {
		if d.IsError() {
			errs = append(errs, d)
		}
	}
	if err := diag.WriteText(cmd.ErrOrStderr(), errs); err != nil {
		return err
	}
	return ErrDiagnostics
}
