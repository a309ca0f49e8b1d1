package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/loader"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/state"
)

// RunValidate checks the whole project, or one file of it. A file given
// without a manifest is checked on its own.
func RunValidate(cmd *cobra.Command, args []string) error {
	path, err := manifestPath(cmd)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) || len(args) == 0 {
			return fmt.Errorf("no manifest at %s (run blueprint init, or pass a single file)", path)
		}
		return validateStandalone(cmd, args[0])
	}

	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		if err := recordState(cmd, p); err != nil {
			return err
		}
		return reportDiagnostics(cmd, p.Diagnostics)
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	rel, err := filepath.Rel(p.Manifest.Root, abs)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}
	rel = filepath.ToSlash(rel)
	diags := p.DiagnosticsFor(rel)
	if _, ok := p.Document(rel); !ok && len(diags) == 0 {
		return fmt.Errorf("%s is not a document of this project", args[0])
	}
	return reportDiagnostics(cmd, diags)
}

func validateStandalone(cmd *cobra.Command, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
	name := filepath.ToSlash(file)
	doc, err := document.Parse(name, data)
	if err != nil {
		return reportDiagnostics(cmd, []diag.Diagnostic{loader.ParseDiagnostic(name, err)})
	}
	strict, err := OptionalBoolFlag(cmd, "strict", false)
	if err != nil {
		return err
	}
	p, err := project.FromDocuments(commandContext(cmd), nil, []*document.Document{doc}, project.Options{Strict: strict})
	if err != nil {
		return err
	}
	return reportDiagnostics(cmd, p.Diagnostics)
}

// recordState stores what this validate saw so doctor can report which
// documents changed since.
func recordState(cmd *cobra.Command, p *project.Project) error {
	root := p.Manifest.Root
	paths := make([]string, 0, len(p.Documents))
	for _, doc := range p.Documents {
		paths = append(paths, doc.Path)
	}
	hashes, err := fileutil.ScanFileHashes(root, paths)
	if err != nil {
		return fmt.Errorf("failed to hash documents: %w", err)
	}
	st, err := state.Load(root)
	if err != nil {
		return err
	}
	state.Record(st, p, hashes)
	if err := st.Save(root); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	ctxlog.FromContext(commandContext(cmd)).Debug("recorded state", "path", state.Path(root), "documents", len(paths))
	return nil
}
