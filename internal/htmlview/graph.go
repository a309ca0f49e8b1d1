// Package htmlview renders projects and deployment files as standalone
// HTML pages: a force-directed graph with search, type filters and a
// detail panel. The graph data is embedded in the page as JSON.
package htmlview

import (
	"strings"

	"github.com/morozRed/blueprint/internal/deploy"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/resolve"
)

// Link types drawn by the project page.
const (
	LinkEdgeFrom   = "edge_from"
	LinkEdgeTo     = "edge_to"
	LinkBoundary   = "boundary"
	LinkBase       = "space"
	LinkField      = "field"
	LinkFuncInput  = "func_input"
	LinkFuncOutput = "func_output"
	LinkModSchema  = "mod_schema"
	LinkModFunc    = "mod_func"
	LinkModRequire = "mod_require"
)

type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type Metadata struct {
	Kind    string   `json:"kind,omitempty"`
	Role    string   `json:"role,omitempty"`
	Intent  string   `json:"intent,omitempty"`
	Purpose string   `json:"purpose,omitempty"`
	Package string   `json:"package,omitempty"`
	File    string   `json:"file,omitempty"`
	Line    int      `json:"line,omitempty"`
	Fields  []Field  `json:"fields,omitempty"`
	Input   []string `json:"input,omitempty"`
	Output  []string `json:"output,omitempty"`
}

// Node is a schema, func or module. Type is its kind; Group is the
// schema kind for schemas and the kind otherwise.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Group    string   `json:"group"`
	Metadata Metadata `json:"metadata"`
}

type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
	Type   string `json:"type"`
}

type ProjectGraph struct {
	Title string `json:"title"`
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Project builds the page data for p. Nodes are the non-shadowed symbols
// keyed by qualified name; links come from resolved references and
// module requires, so a dangling reference draws nothing.
func Project(p *project.Project, title string) ProjectGraph {
	g := ProjectGraph{Title: title, Nodes: []Node{}, Links: []Link{}}
	present := make(map[string]bool)
	for _, kind := range []document.Kind{document.KindSchema, document.KindFunc, document.KindMod} {
		for _, sym := range p.Table.OfKind(kind) {
			n := Node{
				ID:    sym.Name,
				Label: sym.Local,
				Type:  string(kind),
				Group: string(kind),
				Metadata: Metadata{
					Package: sym.Package,
					File:    sym.File,
					Line:    sym.Line,
				},
			}
			switch kind {
			case document.KindSchema:
				s := sym.Schema
				n.Group = s.Kind
				n.Metadata.Kind = s.Kind
				n.Metadata.Role = s.Role
				for _, f := range s.Fields {
					n.Metadata.Fields = append(n.Metadata.Fields, Field{Name: f.Name, Type: f.Type})
				}
			case document.KindFunc:
				n.Metadata.Intent = sym.Func.Intent
				n.Metadata.Input = sym.Func.Input
				n.Metadata.Output = sym.Func.Output
			case document.KindMod:
				n.Metadata.Purpose = sym.Mod.Purpose
			}
			g.Nodes = append(g.Nodes, n)
			present[sym.Name] = true
		}
	}

	seen := make(map[Link]bool)
	add := func(l Link) {
		if !present[l.Source] || !present[l.Target] || l.Source == l.Target || seen[l] {
			return
		}
		seen[l] = true
		g.Links = append(g.Links, l)
	}
	for _, l := range p.Links.All() {
		if !l.Resolved() {
			continue
		}
		from := p.Table.Get(l.From).Name
		to := p.Table.Get(l.Target).Name
		switch {
		case l.Relation == resolve.RelFrom:
			add(Link{Source: to, Target: from, Label: "from", Type: LinkEdgeFrom})
		case l.Relation == resolve.RelTo:
			add(Link{Source: from, Target: to, Label: "to", Type: LinkEdgeTo})
		case l.Relation == resolve.RelOver:
			add(Link{Source: from, Target: to, Label: "contains", Type: LinkBoundary})
		case l.Relation == resolve.RelBase:
			add(Link{Source: from, Target: to, Label: "based on", Type: LinkBase})
		case strings.HasPrefix(l.Relation, resolve.RelField):
			add(Link{Source: from, Target: to, Label: strings.TrimPrefix(l.Relation, resolve.RelField), Type: LinkField})
		case l.Relation == resolve.RelInput:
			add(Link{Source: to, Target: from, Label: "input", Type: LinkFuncInput})
		case l.Relation == resolve.RelOutput:
			add(Link{Source: from, Target: to, Label: "output", Type: LinkFuncOutput})
		case l.Relation == resolve.RelSchemas:
			add(Link{Source: from, Target: to, Label: "uses", Type: LinkModSchema})
		case l.Relation == resolve.RelFuncs:
			add(Link{Source: from, Target: to, Label: "uses", Type: LinkModFunc})
		}
	}
	for _, e := range p.Edges {
		add(Link{Source: e.From, Target: e.To, Label: "requires", Type: LinkModRequire})
	}
	return g
}

type JobMetadata struct {
	Target      string   `json:"target,omitempty"`
	TargetKind  string   `json:"target_kind,omitempty"`
	Secrets     []string `json:"secrets,omitempty"`
	Permission  string   `json:"permission,omitempty"`
	Artifacts   []string `json:"artifacts,omitempty"`
	SideEffects []string `json:"side_effects,omitempty"`
	Commands    []string `json:"commands,omitempty"`
}

// JobNode groups jobs by the kind of the target they deploy to, or
// "default" when they deploy nowhere.
type JobNode struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Group    string      `json:"group"`
	Metadata JobMetadata `json:"metadata"`
}

type DeployGraph struct {
	Title    string           `json:"title"`
	Pipeline *deploy.Pipeline `json:"pipeline,omitempty"`
	Targets  []*deploy.Target `json:"targets"`
	Nodes    []JobNode        `json:"nodes"`
	Links    []Link           `json:"links"`
}

// Deploy builds the page data for f: one node per job in declaration
// order and a link from each required job to the job requiring it.
// Requires naming unknown jobs are skipped.
func Deploy(f *deploy.File) DeployGraph {
	g := DeployGraph{
		Title:    "Deploy Pipeline",
		Pipeline: f.Pipeline,
		Targets:  f.Targets,
		Nodes:    []JobNode{},
		Links:    []Link{},
	}
	if g.Targets == nil {
		g.Targets = []*deploy.Target{}
	}
	if f.Pipeline != nil && f.Pipeline.Name != "" {
		g.Title += " - " + f.Pipeline.Name
	}

	for _, job := range f.Jobs {
		n := JobNode{
			ID:    job.Name,
			Label: job.Name,
			Type:  "job",
			Group: "default",
			Metadata: JobMetadata{
				Secrets:     job.NeedsSecrets,
				Permission:  job.UsesPerm,
				Artifacts:   job.Produces,
				SideEffects: job.SideEffects,
				Commands:    job.Runs,
			},
		}
		if job.UsesTarget != "" {
			n.Metadata.Target = deploy.TargetName(job.UsesTarget)
			if t := f.Target(job.UsesTarget); t != nil && t.Kind != "" {
				n.Metadata.TargetKind = t.Kind
				n.Group = t.Kind
			}
		}
		g.Nodes = append(g.Nodes, n)
	}
	for _, job := range f.Jobs {
		for _, req := range job.Requires {
			name := deploy.JobName(req)
			if f.Job(name) == nil {
				continue
			}
			g.Links = append(g.Links, Link{Source: name, Target: job.Name, Label: "requires", Type: "dependency"})
		}
	}
	return g
}
