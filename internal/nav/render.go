package nav

import (
	"fmt"
	"io"
	"strings"
)

func (r SymbolRecord) location() string {
	if r.File == "" {
		return ""
	}
	if r.Line > 0 {
		return fmt.Sprintf(" (%s:%d)", r.File, r.Line)
	}
	return " (" + r.File + ")"
}

// WriteInspect prints a module view.
func WriteInspect(w io.Writer, v ModuleView) {
	fmt.Fprintf(w, "%s%s\n", v.Module.Name, v.Module.location())
	if v.Purpose != "" {
		fmt.Fprintf(w, "  purpose: %s\n", v.Purpose)
	}
	if v.Status != nil {
		line := "  status: " + v.Status.State
		if v.Status.Coverage != nil {
			line += fmt.Sprintf(" coverage=%.0f%%", *v.Status.Coverage*100)
		}
		if v.Status.Notes != "" {
			line += " notes=" + v.Status.Notes
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\nschemas (%d):\n", len(v.Schemas))
	for _, s := range v.Schemas {
		fmt.Fprintf(w, "  %s", s.Name)
		if s.SchemaKind != "" {
			fmt.Fprintf(w, " [%s]", s.SchemaKind)
		}
		fmt.Fprintln(w)
		writeNames(w, "    produced by", s.Producers)
		writeNames(w, "    consumed by", s.Consumers)
	}

	fmt.Fprintf(w, "\nfuncs (%d):\n", len(v.Funcs))
	for _, f := range v.Funcs {
		writeFunc(w, f)
	}

	if len(v.Pipeline) > 0 {
		names := make([]string, 0, len(v.Pipeline))
		for _, f := range v.Pipeline {
			names = append(names, f.Name)
		}
		fmt.Fprintf(w, "\npipeline: %s\n", strings.Join(names, " -> "))
	}
	if len(v.Boundary) > 0 {
		fmt.Fprintln(w, "\nboundary:")
		for _, b := range v.Boundary {
			fmt.Fprintf(w, "  %s: %s\n", b.Name, b.Description)
		}
	}
	fmt.Fprintln(w)
	writeList(w, "requires", v.Requires)
	writeList(w, "required by", v.Dependents)
	writeUnresolved(w, v.Unresolved)
}

func writeFunc(w io.Writer, f FuncView) {
	fmt.Fprintf(w, "  %s", f.Name)
	if f.Intent != "" {
		fmt.Fprintf(w, ": %s", f.Intent)
	}
	fmt.Fprintln(w)
	writeNames(w, "    input", f.Inputs)
	writeNames(w, "    output", f.Outputs)
}

func writeNames(w io.Writer, label string, rs []SymbolRecord) {
	if len(rs) == 0 {
		return
	}
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name)
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(names, ", "))
}

func writeList(w io.Writer, label string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(w, "%s: none\n", label)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(names, ", "))
}

func writeUnresolved(w io.Writer, refs []UnresolvedRef) {
	if len(refs) == 0 {
		return
	}
	fmt.Fprintf(w, "unresolved (%d):\n", len(refs))
	for _, u := range refs {
		fmt.Fprintf(w, "  %s %s -> %s\n", u.From, u.Relation, u.Raw)
	}
}

// WriteClosure prints the closure grouped by kind.
func WriteClosure(w io.Writer, c ClosureResult) {
	fmt.Fprintf(w, "closure of %s: %d schemas, %d funcs, %d mods\n", c.Root.Name, len(c.Schemas), len(c.Funcs), len(c.Mods))
	for _, group := range []struct {
		label string
		items []SymbolRecord
	}{{"schemas", c.Schemas}, {"funcs", c.Funcs}, {"mods", c.Mods}} {
		if len(group.items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", group.label)
		for _, r := range group.items {
			fmt.Fprintf(w, "  %s%s\n", r.Name, r.location())
		}
	}
	if len(c.Unresolved) > 0 {
		fmt.Fprintln(w)
		writeUnresolved(w, c.Unresolved)
	}
}

// WriteReferrers prints who links to target and through what.
func WriteReferrers(w io.Writer, target SymbolRecord, refs []EdgeRecord) {
	if len(refs) == 0 {
		fmt.Fprintf(w, "no references to %s\n", target.Name)
		return
	}
	fmt.Fprintf(w, "%d references to %s:\n", len(refs), target.Name)
	for _, e := range refs {
		writeEdge(w, e)
	}
}

// WriteTrace prints a one-hop trace.
func WriteTrace(w io.Writer, t TraceResult) {
	fmt.Fprintf(w, "%s%s\n", t.Target.Name, t.Target.location())
	writeEdges(w, "upstream", t.Upstream)
	writeEdges(w, "downstream", t.Downstream)
	writeEdges(w, "shares schemas with", t.Shared)
	if t.Target.Kind == "schema" {
		fmt.Fprintln(w)
		writeRecords(w, "produced by", t.Producers)
		writeRecords(w, "consumed by", t.Consumers)
	}
}

func writeEdges(w io.Writer, label string, es []EdgeRecord) {
	if len(es) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", label)
	for _, e := range es {
		writeEdge(w, e)
	}
}

func writeEdge(w io.Writer, e EdgeRecord) {
	fmt.Fprintf(w, "  %s [%s]%s", e.Symbol.Name, e.Relation, e.Symbol.location())
	if len(e.Via) > 0 {
		fmt.Fprintf(w, " via %s", strings.Join(e.Via, ", "))
	}
	fmt.Fprintln(w)
}

func writeRecords(w io.Writer, label string, rs []SymbolRecord) {
	if len(rs) == 0 {
		fmt.Fprintf(w, "%s: none\n", label)
		return
	}
	fmt.Fprintf(w, "%s:\n", label)
	for _, r := range rs {
		fmt.Fprintf(w, "  %s%s\n", r.Name, r.location())
	}
}
