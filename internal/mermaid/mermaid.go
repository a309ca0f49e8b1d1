// Package mermaid renders project and deployment graphs as Mermaid
// flowcharts. Output is deterministic: nodes and edges follow sorted
// names or declaration order, never map order.
package mermaid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/depgraph"
	"github.com/morozRed/blueprint/internal/deploy"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

const (
	classError    = "    classDef error fill:#ffdddd,stroke:#ff0000\n"
	classProd     = "    classDef prod fill:#ff6b6b,stroke:#c92a2a,color:#fff\n"
	classStaging  = "    classDef staging fill:#ffd43b,stroke:#f59f00,color:#000\n"
	classNode     = "    classDef node fill:#d4e6f1,stroke:#2980b9\n"
	classEdge     = "    classDef edge fill:#d5f4e6,stroke:#27ae60\n"
	classBoundary = "    classDef boundary fill:#fdeaa8,stroke:#f39c12\n"
)

type chart struct {
	b strings.Builder
}

func newChart(title, direction string) *chart {
	c := &chart{}
	if title != "" {
		fmt.Fprintf(&c.b, "---\ntitle: %s\n---\n", title)
	}
	c.b.WriteString(direction + "\n")
	return c
}

func (c *chart) line(format string, args ...any) {
	c.b.WriteString("    ")
	fmt.Fprintf(&c.b, format, args...)
	c.b.WriteByte('\n')
}

func (c *chart) classes(defs ...string) {
	c.b.WriteByte('\n')
	for _, d := range defs {
		c.b.WriteString(d)
	}
}

func (c *chart) String() string {
	return c.b.String()
}

// ID turns a qualified name into a Mermaid node identifier.
func ID(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}

// PackageGraph renders package dependencies, one node per package.
func PackageGraph(g *depgraph.Graph) string {
	c := newChart("", "graph TD")
	for _, id := range g.IDs() {
		succ := g.Successors(id)
		if len(succ) == 0 && len(g.Predecessors(id)) == 0 {
			c.line("%s[%s]", ID(id), id)
			continue
		}
		for _, to := range succ {
			c.line("%s[%s] --> %s[%s]", ID(id), id, ID(to), to)
		}
	}
	return c.String()
}

// CrossPackage renders module edges that cross package boundaries, with
// nodes labelled "<package>.<module>".
func CrossPackage(p *project.Project) string {
	c := newChart("", "graph TD")
	edges := p.CrossPackageEdges()
	if len(edges) == 0 {
		c.line("empty[No cross-package dependencies]")
		return c.String()
	}
	for _, e := range edges {
		c.line("%s[\"%s\"] --> %s[\"%s\"]", ID(e.From), moduleLabel(p, e.From), ID(e.To), moduleLabel(p, e.To))
	}
	return c.String()
}

func moduleLabel(p *project.Project, name string) string {
	id, ok := p.Table.Lookup(name)
	if !ok {
		return name
	}
	sym := p.Table.Get(id)
	if sym.Package == "" {
		return sym.Local
	}
	return sym.Package + "." + sym.Local
}

// ModuleDependencies renders every module and its requires. Requires that
// did not resolve appear as error nodes.
func ModuleDependencies(p *project.Project) string {
	c := newChart("Module Dependencies", "flowchart TD")
	mods := p.ModuleSymbols()
	if len(mods) == 0 {
		c.line("empty[No modules defined]")
		return c.String()
	}
	for _, mod := range mods {
		c.line("%s[\"%s\"]", ID(mod.Name), mod.Local)
	}
	for _, e := range p.Edges {
		c.line("%s --> %s", ID(e.From), ID(e.To))
	}

	seen := make(map[[2]string]bool)
	for _, l := range p.Links.All() {
		if l.Relation != resolve.RelRequires || l.Resolved() {
			continue
		}
		from := p.Table.Get(l.From)
		if from.Kind != document.KindMod || seen[[2]string{from.Name, l.Raw}] {
			continue
		}
		seen[[2]string{from.Name, l.Raw}] = true
		to := "missing_" + ID(l.Raw)
		c.line("%s[\"%s⚠\"]:::error", to, escape(l.Raw))
		c.line("%s --> %s", ID(from.Name), to)
	}
	c.classes(classError)
	return c.String()
}

// Pipeline renders one module's pipeline left to right. Each step edge is
// labelled with the schemas the previous step outputs and the next one
// takes; a step pair sharing none gets a dotted warning edge.
func Pipeline(p *project.Project, mod *symbol.Symbol) string {
	c := newChart("Pipeline - "+mod.Local, "flowchart LR")

	var steps []resolve.Link
	for _, l := range p.Links.Outgoing(mod.ID) {
		if l.Relation == resolve.RelPipeline {
			steps = append(steps, l)
		}
	}
	if len(steps) == 0 {
		c.line("empty[No pipeline defined]")
		return c.String()
	}

	for i, step := range steps {
		node := fmt.Sprintf("f%d", i)
		if !step.Resolved() {
			c.line("%s[\"%s⚠\"]:::error", node, escape(step.Raw))
		} else {
			fn := p.Table.Get(step.Target)
			label := fn.Local
			if fn.Func != nil && fn.Func.Intent != "" {
				label += "<br/><small>" + escape(fn.Func.Intent) + "</small>"
			}
			c.line("%s[\"%s\"]", node, label)
		}
		if i == 0 {
			continue
		}
		prev := fmt.Sprintf("f%d", i-1)
		if !steps[i-1].Resolved() || !step.Resolved() {
			c.line("%s --> %s", prev, node)
			continue
		}
		common := commonSchemas(p, steps[i-1].Target, step.Target)
		if len(common) == 0 {
			c.line("%s -.->|⚠ no common schema| %s", prev, node)
			continue
		}
		c.line("%s -->|%s| %s", prev, strings.Join(common, ", "), node)
	}
	c.classes(classError)
	return c.String()
}

func commonSchemas(p *project.Project, prev, next symbol.ID) []string {
	outputs := make(map[symbol.ID]bool)
	for _, id := range p.Links.Targets(prev, resolve.RelOutput) {
		outputs[id] = true
	}
	var out []string
	for _, id := range p.Links.Targets(next, resolve.RelInput) {
		if outputs[id] {
			out = append(out, p.Table.Get(id).Local)
		}
	}
	return out
}

// SchemaGraph renders schemas with their kind and role, edge schemas as
// labelled links and boundaries as dotted links to what they cover.
func SchemaGraph(p *project.Project) string {
	c := newChart("Schema Graph", "flowchart TD")
	schemas := p.Table.OfKind(document.KindSchema)
	if len(schemas) == 0 {
		c.line("empty[No schemas defined]")
		return c.String()
	}

	for _, s := range schemas {
		kind, role := s.Schema.Kind, s.Schema.Role
		label := s.Local
		if kind != "" || role != "" {
			label += fmt.Sprintf("<br/><small>%s/%s</small>", kind, role)
		}
		style := ""
		switch kind {
		case document.SchemaNode, document.SchemaEdge, document.SchemaBoundary:
			style = ":::" + kind
		}
		c.line("%s[\"%s\"]%s", ID(s.Name), label, style)
	}

	for _, s := range schemas {
		target := func(rel string) (string, bool) {
			ids := p.Links.Targets(s.ID, rel)
			if len(ids) == 0 {
				return "", false
			}
			return ID(p.Table.Get(ids[0]).Name), true
		}
		switch s.Schema.Kind {
		case document.SchemaEdge:
			from, okFrom := target(resolve.RelFrom)
			to, okTo := target(resolve.RelTo)
			if okFrom && okTo {
				c.line("%s -.->|%s| %s", from, s.Local, to)
			}
		case document.SchemaBoundary:
			for _, id := range p.Links.Targets(s.ID, resolve.RelOver) {
				c.line("%s -.-> %s", ID(s.Name), ID(p.Table.Get(id).Name))
			}
		}
		if base, ok := target(resolve.RelBase); ok {
			c.line("%s ==> %s", ID(s.Name), base)
		}
	}
	c.classes(classNode, classEdge, classBoundary)
	return c.String()
}

// DeployPipeline renders the job graph, jobs in declaration order and an
// edge from each required job to the job that requires it. Jobs on
// production and staging targets are styled.
func DeployPipeline(f *deploy.File) string {
	title := "Deploy Pipeline"
	if f.Pipeline != nil && f.Pipeline.Name != "" {
		title += " - " + f.Pipeline.Name
	}
	c := newChart(title, "flowchart TD")
	if len(f.Jobs) == 0 {
		c.line("empty[No jobs defined]")
		return c.String()
	}

	for _, job := range f.Jobs {
		label := job.Name
		style := ""
		if job.UsesTarget != "" {
			name := deploy.TargetName(job.UsesTarget)
			label += "<br/><small>target: " + escape(name) + "</small>"
			if t := f.Target(name); t != nil {
				switch {
				case t.Production():
					style = ":::prod"
				case strings.EqualFold(t.Kind, "staging"):
					style = ":::staging"
				}
			}
		}
		if len(job.SideEffects) > 0 {
			effects := append([]string(nil), job.SideEffects...)
			sort.Strings(effects)
			label += "<br/><small>⚠ " + escape(strings.Join(effects, ", ")) + "</small>"
		}
		c.line("%s[\"%s\"]%s", ID(job.Name), label, style)
	}
	for _, job := range f.Jobs {
		for _, req := range job.Requires {
			c.line("%s --> %s", ID(deploy.JobName(req)), ID(job.Name))
		}
	}
	c.classes(classProd, classStaging)
	return c.String()
}
