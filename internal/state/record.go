package state

import (
	"sort"
	"time"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
)

// Record replaces the state's documents with the project's. A document
// depends on every other document that declares a symbol one of its
// symbols links to. hashes maps document path to content hash.
func Record(s *State, p *project.Project, hashes map[string]string) {
	now := time.Now().UTC()
	deps := make(map[string]map[string]bool)
	for _, l := range p.Links.All() {
		if !l.Resolved() {
			continue
		}
		from, to := p.Table.Get(l.From).File, p.Table.Get(l.Target).File
		if from == to {
			continue
		}
		if deps[from] == nil {
			deps[from] = make(map[string]bool)
		}
		deps[from][to] = true
	}

	s.Documents = make(map[string]DocumentState, len(p.Documents))
	for _, doc := range p.Documents {
		rec := DocumentState{
			Hash:      hashes[doc.Path],
			Package:   p.Packages[doc.Path],
			UpdatedAt: now,
		}
		for _, sym := range p.Table.InFile(doc.Path) {
			if sym.Kind == document.KindMod {
				rec.Modules = append(rec.Modules, sym.Name)
			}
		}
		sort.Strings(rec.Modules)
		for dep := range deps[doc.Path] {
			rec.Dependencies = append(rec.Dependencies, dep)
		}
		sort.Strings(rec.Dependencies)

		rec.Errors, rec.Warnings = diag.Count(p.DiagnosticsFor(doc.Path))
		s.SetDocument(doc.Path, rec)
	}
}
