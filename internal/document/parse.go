package document

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/tomltree"
)

// HeaderError reports a header with the wrong shape, such as a
// non-string namespace. It makes the whole file unusable.
type HeaderError struct {
	Key     string
	Line    int
	Message string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ParseFile reads and parses the document at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse builds a Document from raw TOML.
func Parse(path string, data []byte) (*Document, error) {
	root, err := tomltree.Parse(data)
	if err != nil {
		return nil, err
	}
	return FromTree(path, root)
}

// FromTree builds a Document from an already parsed tree.
func FromTree(path string, root *tomltree.Table) (*Document, error) {
	doc := &Document{Path: path}

	var err error
	if doc.Package, err = headerString(root, "package"); err != nil {
		return nil, err
	}
	if doc.Namespace, err = headerString(root, "namespace"); err != nil {
		return nil, err
	}
	imports, err := headerStrings(root, "import")
	if err != nil {
		return nil, err
	}
	for _, raw := range imports {
		doc.Imports = append(doc.Imports, Import{Raw: raw, Line: root.KeyLine("import")})
	}
	for _, key := range []string{"require", "requires"} {
		entries, err := headerStrings(root, key)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			doc.Requires = append(doc.Requires, Require{Target: entry, Line: root.KeyLine(key)})
		}
	}

	if meta, ok := root.Table("meta"); ok {
		doc.Meta = Meta{
			Name:        meta.StringOr("name", ""),
			Version:     meta.StringOr("version", ""),
			Description: meta.StringOr("description", ""),
		}
	}

	if schemas, ok := root.Table("schema"); ok {
		for _, name := range schemas.Keys() {
			if section, ok := schemas.Table(name); ok {
				doc.Schemas = append(doc.Schemas, parseSchema(name, section))
			}
		}
	}
	if funcs, ok := root.Table("func"); ok {
		for _, name := range funcs.Keys() {
			if section, ok := funcs.Table(name); ok {
				doc.Funcs = append(doc.Funcs, parseFunc(name, section))
			}
		}
	}
	if mods, ok := root.Table("mod"); ok {
		for _, name := range mods.Keys() {
			if section, ok := mods.Table(name); ok {
				doc.Mods = append(doc.Mods, parseMod(name, section))
			}
		}
	}
	if status, ok := root.Table("status"); ok {
		doc.Status = parseStatus(status)
	}

	assignOrder(doc)
	return doc, nil
}

func headerString(root *tomltree.Table, key string) (string, error) {
	v, ok := root.Get(key)
	if !ok {
		return "", nil
	}
	if v.Kind != tomltree.String {
		return "", &HeaderError{Key: key, Line: v.Line, Message: "must be a string"}
	}
	return strings.TrimSpace(v.Str), nil
}

func headerStrings(root *tomltree.Table, key string) ([]string, error) {
	v, ok := root.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != tomltree.Array {
		return nil, &HeaderError{Key: key, Line: v.Line, Message: "must be an array"}
	}
	out := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		if item.Kind != tomltree.String {
			return nil, &HeaderError{Key: key, Line: v.Line, Message: "entries must be strings"}
		}
		out = append(out, strings.TrimSpace(item.Str))
	}
	return out, nil
}

func parseImpl(section *tomltree.Table) Impl {
	impl, ok := section.Table("impl")
	if !ok {
		return Impl{}
	}
	return Impl{
		Bind: impl.StringOr("bind", ""),
		Lang: impl.StringOr("lang", ""),
		Path: impl.StringOr("path", ""),
	}
}

func parseSchema(name string, section *tomltree.Table) *Schema {
	schema := &Schema{
		Name:  name,
		Line:  section.Line,
		Kind:  section.StringOr("kind", ""),
		Role:  section.StringOr("role", ""),
		Type:  section.StringOr("type", ""),
		Label: section.StringOr("label", ""),
		From:  section.StringOr("from", ""),
		To:    section.StringOr("to", ""),
		Base:  section.StringOr("base", ""),
		Over:  section.Strings("over"),
		Impl:  parseImpl(section),
	}
	if fields, ok := section.Table("fields"); ok {
		for _, key := range fields.Keys() {
			typ, ok := fields.String(key)
			if !ok {
				continue
			}
			schema.Fields = append(schema.Fields, Field{Name: key, Type: typ, Line: fields.KeyLine(key)})
		}
	}
	return schema
}

func parseFunc(name string, section *tomltree.Table) *Func {
	return &Func{
		Name:        name,
		Line:        section.Line,
		Intent:      section.StringOr("intent", ""),
		Input:       section.Strings("input"),
		Output:      section.Strings("output"),
		DesignNotes: section.StringOr("design_notes", ""),
		Impl:        parseImpl(section),
	}
}

func parseMod(name string, section *tomltree.Table) *Mod {
	mod := &Mod{
		Name:     name,
		Line:     section.Line,
		Purpose:  section.StringOr("purpose", ""),
		Schemas:  section.Strings("schemas"),
		Funcs:    section.Strings("funcs"),
		Pipeline: parsePipeline(section),
	}
	if boundary, ok := section.Table("boundary"); ok {
		for _, key := range boundary.Keys() {
			mod.Boundary = append(mod.Boundary, BoundaryEntry{Name: key, Description: boundary.StringOr(key, "")})
		}
	} else if entries := section.Strings("boundary"); len(entries) > 0 {
		for _, entry := range entries {
			mod.Boundary = append(mod.Boundary, BoundaryEntry{Name: entry})
		}
	}
	for _, key := range []string{"require", "requires"} {
		for _, target := range section.Strings(key) {
			mod.Requires = append(mod.Requires, Require{Target: target, Line: section.KeyLine(key)})
		}
	}
	return mod
}

func parsePipeline(section *tomltree.Table) []string {
	v, ok := section.Get("pipeline")
	if !ok {
		return nil
	}
	var out []string
	switch v.Kind {
	case tomltree.Array:
		for _, item := range v.Items {
			if item.Kind == tomltree.String {
				out = append(out, SplitChain(item.Str)...)
			}
		}
	case tomltree.String:
		out = SplitChain(v.Str)
	case tomltree.TableKind:
		for _, chain := range v.Table.Keys() {
			out = append(out, SplitChain(chain)...)
		}
	}
	return out
}

// SplitChain splits "func.a -> func.b" into its steps.
func SplitChain(input string) []string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	var out []string
	for _, part := range strings.Split(s, "->") {
		if step := strings.TrimSpace(part); step != "" {
			out = append(out, step)
		}
	}
	return out
}

func parseStatus(section *tomltree.Table) *Status {
	status := &Status{
		UpdatedAt: section.StringOr("updated_at", ""),
		Line:      section.Line,
	}
	if v, ok := section.Get("updated_at"); ok && v.Kind == tomltree.Datetime {
		status.UpdatedAt = v.Str
	}
	mods, ok := section.Table("mod")
	if !ok {
		return status
	}
	for _, name := range mods.Keys() {
		entry, ok := mods.Table(name)
		if !ok {
			continue
		}
		coverage, hasCoverage := entry.Number("coverage")
		status.Modules = append(status.Modules, ModuleStatus{
			Module:      name,
			State:       entry.StringOr("state", ""),
			Coverage:    coverage,
			HasCoverage: hasCoverage,
			Notes:       entry.StringOr("notes", ""),
			Line:        entry.Line,
		})
	}
	return status
}

func assignOrder(doc *Document) {
	type ordered struct {
		line  int
		order *int
	}
	all := make([]ordered, 0, len(doc.Schemas)+len(doc.Funcs)+len(doc.Mods))
	for _, s := range doc.Schemas {
		all = append(all, ordered{s.Line, &s.Order})
	}
	for _, f := range doc.Funcs {
		all = append(all, ordered{f.Line, &f.Order})
	}
	for _, m := range doc.Mods {
		all = append(all, ordered{m.Line, &m.Order})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].line < all[j].line })
	for i, item := range all {
		*item.order = i + 1
	}
}

func sortDecls(decls []Decl) {
	sort.SliceStable(decls, func(i, j int) bool { return decls[i].Order < decls[j].Order })
}
