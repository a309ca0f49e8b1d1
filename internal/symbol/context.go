package symbol

import (
	"fmt"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
)

// Import is one resolved import entry. Namespaces is empty when the
// target names neither a namespace nor a package.
type Import struct {
	Raw        string
	Target     string
	Alias      string
	Namespaces []string
	Line       int
}

// NamespaceContext is the per-file resolution context. It is passed
// explicitly to the resolver; there is no process-wide default.
type NamespaceContext struct {
	File      string
	Package   string
	Namespace string
	Imports   []Import
}

// Alias returns the import bound to alias.
func (c NamespaceContext) Alias(alias string) (Import, bool) {
	for _, imp := range c.Imports {
		if imp.Alias != "" && imp.Alias == alias {
			return imp, true
		}
	}
	return Import{}, false
}

// Unaliased returns imports without an alias, in declaration order.
func (c NamespaceContext) Unaliased() []Import {
	var out []Import
	for _, imp := range c.Imports {
		if imp.Alias == "" {
			out = append(out, imp)
		}
	}
	return out
}

// NewContext builds the context for doc. Import syntax errors are errors;
// imports of unknown targets are kept as warnings since aliasing is a
// convenience layer and never decides whether a reference is valid.
func NewContext(doc *document.Document, pkg, namespace string, t *Table) (NamespaceContext, []diag.Diagnostic) {
	ctx := NamespaceContext{File: doc.Path, Package: pkg, Namespace: namespace}
	var diags []diag.Diagnostic

	for _, raw := range doc.Imports {
		target, alias, ok := raw.Split()
		if !ok {
			d := diag.Errorf(diag.CodeImportSyntax, fmt.Sprintf("invalid import syntax %q (expected \"pkg\" or \"pkg as alias\")", raw.Raw))
			d.File = doc.Path
			d.Line = raw.Line
			d.Location = "import"
			diags = append(diags, d)
			continue
		}

		imp := Import{Raw: raw.Raw, Target: target, Alias: alias, Line: raw.Line}
		switch {
		case t.HasNamespace(target):
			imp.Namespaces = []string{target}
		case t.HasPackage(target):
			imp.Namespaces = t.PackageNamespaces(target)
		default:
			d := diag.Warnf(diag.CodeUnknownImport, fmt.Sprintf("import %q names no known namespace or package", target))
			d.File = doc.Path
			d.Line = raw.Line
			d.Location = "import"
			diags = append(diags, d)
		}
		ctx.Imports = append(ctx.Imports, imp)
	}
	return ctx, diags
}
