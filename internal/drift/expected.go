package drift

import (
	"fmt"

	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/nav"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/symbol"
)

// ExpectedSymbols lists the schemas and funcs that should exist in code,
// sorted by qualified name. With a module, only its closure is listed.
func ExpectedSymbols(p *project.Project, mod *symbol.Symbol) ([]Expected, error) {
	var syms []*symbol.Symbol
	if mod == nil {
		syms = append(p.Table.OfKind(document.KindSchema), p.Table.OfKind(document.KindFunc)...)
	} else {
		if mod.Kind != document.KindMod {
			return nil, fmt.Errorf("%s is a %s, not a module", mod.Name, mod.Kind)
		}
		for _, id := range nav.ClosureIDs(p.Table, p.Links, mod.ID) {
			sym := p.Table.Get(id)
			if sym.Kind == document.KindSchema || sym.Kind == document.KindFunc {
				syms = append(syms, sym)
			}
		}
	}

	out := make([]Expected, 0, len(syms))
	for _, sym := range syms {
		out = append(out, expectedOf(sym))
	}
	sortExpected(out)
	return out, nil
}

func expectedOf(sym *symbol.Symbol) Expected {
	e := Expected{Name: sym.Name, File: sym.File, Line: sym.Line, local: sym.Local}
	var impl document.Impl
	switch sym.Kind {
	case document.KindSchema:
		e.Kind = KindSchema
		impl = sym.Schema.Impl
	case document.KindFunc:
		e.Kind = KindFunc
		impl = sym.Func.Impl
	}
	e.Bind, e.Lang, e.Path = impl.Bind, impl.Lang, impl.Path
	return e
}
