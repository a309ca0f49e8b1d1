package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/nav"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/symbol"
)

func findSymbol(cmd *cobra.Command, name string) (*project.Project, *symbol.Symbol, error) {
	p, err := loadProject(cmd)
	if err != nil {
		return nil, nil, err
	}
	sym, err := p.Find(name)
	if err != nil {
		return nil, nil, err
	}
	return p, sym, nil
}

func RunInspect(cmd *cobra.Command, args []string) error {
	p, mod, err := findSymbol(cmd, args[0])
	if err != nil {
		return err
	}
	if mod.Kind != document.KindMod {
		return fmt.Errorf("%s is a %s, not a module", mod.Name, mod.Kind)
	}
	view := nav.Inspect(p, mod)
	if err := writeResult(cmd, view, func(w io.Writer) { nav.WriteInspect(w, view) }); err != nil {
		return err
	}
	return finishQuery(cmd, p)
}

// RunClosure prints the closure of a symbol, or with --full the closure
// rendered back to a self-contained document.
func RunClosure(cmd *cobra.Command, args []string) error {
	p, root, err := findSymbol(cmd, args[0])
	if err != nil {
		return err
	}
	full, err := OptionalBoolFlag(cmd, "full", false)
	if err != nil {
		return err
	}
	res := nav.Closure(p, root)
	if full {
		doc, renamed := nav.ClosureDocument(p.Table, p.Links, res.IDs)
		if _, err := cmd.OutOrStdout().Write(document.Render(doc)); err != nil {
			return err
		}
		if len(renamed) > 0 {
			if err := diag.WriteText(cmd.ErrOrStderr(), renamed); err != nil {
				return err
			}
		}
		return finishQuery(cmd, p)
	}
	if err := writeResult(cmd, res, func(w io.Writer) { nav.WriteClosure(w, res) }); err != nil {
		return err
	}
	return finishQuery(cmd, p)
}

func RunRefs(cmd *cobra.Command, args []string) error {
	p, target, err := findSymbol(cmd, args[0])
	if err != nil {
		return err
	}
	refs := nav.Referrers(p, target)
	if refs == nil {
		refs = []nav.EdgeRecord{}
	}
	payload := struct {
		Target     nav.SymbolRecord `json:"target"`
		References []nav.EdgeRecord `json:"references"`
	}{nav.RecordOf(target), refs}
	if err := writeResult(cmd, payload, func(w io.Writer) { nav.WriteReferrers(w, payload.Target, refs) }); err != nil {
		return err
	}
	return finishQuery(cmd, p)
}

func RunTrace(cmd *cobra.Command, args []string) error {
	p, target, err := findSymbol(cmd, args[0])
	if err != nil {
		return err
	}
	res := nav.Trace(p, target)
	if err := writeResult(cmd, res, func(w io.Writer) { nav.WriteTrace(w, res) }); err != nil {
		return err
	}
	return finishQuery(cmd, p)
}
