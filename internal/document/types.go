// Package document is the typed model of one architecture document: its
// headers and its schema, func, mod and status sections.
package document

import "strings"

type Kind string

const (
	KindSchema Kind = "schema"
	KindFunc   Kind = "func"
	KindMod    Kind = "mod"
)

var Kinds = []Kind{KindSchema, KindFunc, KindMod}

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindSchema, KindFunc, KindMod:
		return Kind(s), true
	default:
		return "", false
	}
}

// Schema kinds.
const (
	SchemaNode     = "node"
	SchemaEdge     = "edge"
	SchemaValue    = "value"
	SchemaBoundary = "boundary"
)

// Module states accepted in [status.mod.<name>].
var States = []string{"todo", "skeleton", "partial", "done", "blocked"}

func ValidState(state string) bool {
	for _, s := range States {
		if s == state {
			return true
		}
	}
	return false
}

type Import struct {
	Raw  string
	Line int
}

// Split parses "pkg" or "pkg as alias".
func (i Import) Split() (target string, alias string, ok bool) {
	parts := strings.Fields(i.Raw)
	switch {
	case len(parts) == 1:
		return parts[0], "", true
	case len(parts) == 3 && strings.EqualFold(parts[1], "as"):
		return parts[0], parts[2], true
	default:
		return "", "", false
	}
}

type Require struct {
	Target string
	Line   int
}

type Meta struct {
	Name        string
	Version     string
	Description string
}

type Impl struct {
	Bind string
	Lang string
	Path string
}

func (i Impl) IsZero() bool {
	return i.Bind == "" && i.Lang == "" && i.Path == ""
}

type Field struct {
	Name string
	Type string
	Line int
}

type Schema struct {
	Name   string
	Order  int
	Line   int
	Kind   string
	Role   string
	Type   string
	Label  string
	From   string
	To     string
	Base   string
	Over   []string
	Fields []Field
	Impl   Impl
}

type Func struct {
	Name        string
	Order       int
	Line        int
	Intent      string
	Input       []string
	Output      []string
	DesignNotes string
	Impl        Impl
}

type BoundaryEntry struct {
	Name        string
	Description string
}

type Mod struct {
	Name     string
	Order    int
	Line     int
	Purpose  string
	Schemas  []string
	Funcs    []string
	Pipeline []string
	Boundary []BoundaryEntry
	Requires []Require
}

type ModuleStatus struct {
	Module      string
	State       string
	Coverage    float64
	HasCoverage bool
	Notes       string
	Line        int
}

type Status struct {
	UpdatedAt string
	Modules   []ModuleStatus
	Line      int
}

type Document struct {
	Path      string
	Package   string
	Namespace string
	Imports   []Import
	Requires  []Require
	Meta      Meta
	Schemas   []*Schema
	Funcs     []*Func
	Mods      []*Mod
	Status    *Status
}

// Decl is a declared symbol in source order.
type Decl struct {
	Kind  Kind
	Name  string
	Order int
	Line  int
}

// Decls lists every schema, func and mod in declaration order.
func (d *Document) Decls() []Decl {
	out := make([]Decl, 0, len(d.Schemas)+len(d.Funcs)+len(d.Mods))
	for _, s := range d.Schemas {
		out = append(out, Decl{Kind: KindSchema, Name: s.Name, Order: s.Order, Line: s.Line})
	}
	for _, f := range d.Funcs {
		out = append(out, Decl{Kind: KindFunc, Name: f.Name, Order: f.Order, Line: f.Line})
	}
	for _, m := range d.Mods {
		out = append(out, Decl{Kind: KindMod, Name: m.Name, Order: m.Order, Line: m.Line})
	}
	sortDecls(out)
	return out
}

func (d *Document) Schema(name string) *Schema {
	for _, s := range d.Schemas {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (d *Document) Func(name string) *Func {
	for _, f := range d.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (d *Document) Mod(name string) *Mod {
	for _, m := range d.Mods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
