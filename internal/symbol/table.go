package symbol

import (
	"fmt"
	"sort"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
)

// Collected is the symbol list gathered from one file. Collecting needs
// nothing from other files, so it can run in parallel.
type Collected struct {
	File      string
	Package   string
	Namespace string
	Symbols   []*Symbol
}

// Collect gathers the declarations of doc under namespace.
func Collect(doc *document.Document, pkg, namespace string) Collected {
	c := Collected{File: doc.Path, Package: pkg, Namespace: namespace}
	for _, decl := range doc.Decls() {
		sym := &Symbol{
			ID:        NoID,
			Kind:      decl.Kind,
			Name:      Qualify(namespace, decl.Kind, decl.Name),
			Local:     decl.Name,
			Namespace: namespace,
			Package:   pkg,
			File:      doc.Path,
			Order:     decl.Order,
			Line:      decl.Line,
		}
		switch decl.Kind {
		case document.KindSchema:
			sym.Schema = doc.Schema(decl.Name)
		case document.KindFunc:
			sym.Func = doc.Func(decl.Name)
		case document.KindMod:
			sym.Mod = doc.Mod(decl.Name)
		}
		c.Symbols = append(c.Symbols, sym)
	}
	return c
}

// Table is immutable once Merge returns.
type Table struct {
	symbols    []*Symbol
	byName     map[string]ID
	byFile     map[string][]ID
	namespaces map[string]bool
	packages   map[string][]string
}

// Merge freezes collected files into one table. Files are merged in path
// order, so on a name conflict the first path keeps the name.
// packageNamespaces maps every declared package to its default namespace.
func Merge(files []Collected, packageNamespaces map[string]string) (*Table, []diag.Diagnostic) {
	sorted := append([]Collected(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	t := &Table{
		byName:     make(map[string]ID),
		byFile:     make(map[string][]ID),
		namespaces: make(map[string]bool),
		packages:   make(map[string][]string),
	}
	pkgNS := make(map[string]map[string]bool)
	addNS := func(pkg, ns string) {
		if pkgNS[pkg] == nil {
			pkgNS[pkg] = make(map[string]bool)
		}
		pkgNS[pkg][ns] = true
	}
	for pkg, ns := range packageNamespaces {
		addNS(pkg, ns)
		if ns != "" {
			t.namespaces[ns] = true
		}
	}

	var diags []diag.Diagnostic
	for _, file := range sorted {
		addNS(file.Package, file.Namespace)
		if file.Namespace != "" {
			t.namespaces[file.Namespace] = true
		}
		if _, seen := t.byFile[file.File]; !seen {
			t.byFile[file.File] = nil
		}
		for _, draft := range file.Symbols {
			sym := *draft
			sym.ID = ID(len(t.symbols))
			if existing, ok := t.byName[sym.Name]; ok {
				sym.Shadowed = true
				winner := t.symbols[existing]
				d := diag.Errorf(diag.CodeNameConflict, fmt.Sprintf("%s %q is already declared in %s", sym.Kind, sym.Name, winner.File))
				d.File = sym.File
				d.Symbol = sym.Name
				d.Order = sym.Order
				d.Line = sym.Line
				diags = append(diags, d)
			} else {
				t.byName[sym.Name] = sym.ID
			}
			t.symbols = append(t.symbols, &sym)
			t.byFile[file.File] = append(t.byFile[file.File], sym.ID)
		}
	}

	for pkg, set := range pkgNS {
		list := make([]string, 0, len(set))
		for ns := range set {
			list = append(list, ns)
		}
		sort.Strings(list)
		t.packages[pkg] = list
	}
	return t, diags
}

func (t *Table) Len() int {
	return len(t.symbols)
}

func (t *Table) Get(id ID) *Symbol {
	if id < 0 || int(id) >= len(t.symbols) {
		return nil
	}
	return t.symbols[id]
}

// Lookup finds a non-shadowed symbol by qualified name.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

func (t *Table) HasNamespace(ns string) bool {
	return t.namespaces[ns]
}

func (t *Table) HasPackage(name string) bool {
	_, ok := t.packages[name]
	return ok
}

// PackageNamespaces lists the namespaces used by a package's files, with
// "" standing for files without one.
func (t *Table) PackageNamespaces(pkg string) []string {
	return t.packages[pkg]
}

// All returns every symbol in ID order, shadowed ones included.
func (t *Table) All() []*Symbol {
	return t.symbols
}

// InFile returns the file's symbols in declaration order.
func (t *Table) InFile(file string) []*Symbol {
	ids := t.byFile[file]
	out := make([]*Symbol, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.symbols[id])
	}
	return out
}

func (t *Table) Files() []string {
	out := make([]string, 0, len(t.byFile))
	for file := range t.byFile {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}

// OfKind returns non-shadowed symbols of kind, sorted by qualified name.
func (t *Table) OfKind(kind document.Kind) []*Symbol {
	var out []*Symbol
	for _, sym := range t.symbols {
		if sym.Kind == kind && !sym.Shadowed {
			out = append(out, sym)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Find resolves a user-typed name: a qualified name, or a local name
// ("schema.User" or "User") that is unique across namespaces.
func (t *Table) Find(name string) ([]ID, bool) {
	if id, ok := t.byName[name]; ok {
		return []ID{id}, true
	}
	var matches []ID
	ref, isRef := ParseRef(name)
	for _, sym := range t.symbols {
		if sym.Shadowed {
			continue
		}
		switch {
		case isRef && ref.Bare() && sym.Kind == ref.Kind && sym.Local == ref.Name:
			matches = append(matches, sym.ID)
		case !isRef && sym.Local == name:
			matches = append(matches, sym.ID)
		}
	}
	return matches, len(matches) == 1
}
