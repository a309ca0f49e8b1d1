// Package deps builds the package and module dependency views shown by
// the deps command.
package deps

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/symbol"
)

type Package struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Root      string   `json:"root,omitempty"`
	Depends   []string `json:"depends,omitempty"`
	Modules   int      `json:"modules"`
}

// ModuleRef is a module seen from another module. Package is set only
// when the two live in different packages.
type ModuleRef struct {
	Module  string `json:"module"`
	Package string `json:"package,omitempty"`
}

type Module struct {
	Module       string      `json:"module"`
	Package      string      `json:"package,omitempty"`
	Dependencies []ModuleRef `json:"dependencies"`
	Dependents   []ModuleRef `json:"dependents"`
}

type CrossEdge struct {
	FromPackage string `json:"from_package"`
	From        string `json:"from"`
	ToPackage   string `json:"to_package"`
	To          string `json:"to"`
}

// Packages lists the manifest packages. A project without packages shows
// the implicit ones its symbols carry.
func Packages(p *project.Project) []Package {
	counts := make(map[string]int)
	for _, mod := range p.ModuleSymbols() {
		counts[mod.Package]++
	}

	var out []Package
	if len(p.Manifest.Packages) == 0 {
		for name, n := range counts {
			out = append(out, Package{Name: name, Modules: n})
		}
	} else {
		for _, pkg := range p.Manifest.PackageList() {
			out = append(out, Package{
				Name:      pkg.Name,
				Namespace: pkg.Namespace,
				Root:      pkg.Root,
				Depends:   pkg.Depends,
				Modules:   counts[pkg.Name],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PackageModules returns the modules of one package with their
// dependencies.
func PackageModules(p *project.Project, pkg string) ([]Module, error) {
	if !p.Table.HasPackage(pkg) {
		if _, ok := p.Manifest.Package(pkg); !ok {
			return nil, fmt.Errorf("package %q not found", pkg)
		}
	}
	var out []Module
	for _, mod := range p.ModuleSymbols() {
		if mod.Package == pkg {
			out = append(out, moduleView(p, mod))
		}
	}
	return out, nil
}

// ModuleDeps returns one module's dependencies and dependents.
func ModuleDeps(p *project.Project, name string) (Module, error) {
	mod, err := p.Find(name)
	if err != nil {
		return Module{}, err
	}
	if mod.Kind != document.KindMod {
		return Module{}, fmt.Errorf("%s is a %s, not a module", mod.Name, mod.Kind)
	}
	return moduleView(p, mod), nil
}

func moduleView(p *project.Project, mod *symbol.Symbol) Module {
	view := Module{Module: mod.Name, Package: mod.Package, Dependencies: []ModuleRef{}, Dependents: []ModuleRef{}}
	for _, to := range p.Modules.Successors(mod.Name) {
		view.Dependencies = append(view.Dependencies, ref(p, mod.Package, to))
	}
	for _, from := range p.Modules.Predecessors(mod.Name) {
		view.Dependents = append(view.Dependents, ref(p, mod.Package, from))
	}
	return view
}

func ref(p *project.Project, from, name string) ModuleRef {
	r := ModuleRef{Module: name}
	if pkg := p.PackageOf(name); pkg != from {
		r.Package = pkg
	}
	return r
}

// Cross returns module edges that leave their package, sorted.
func Cross(p *project.Project) []CrossEdge {
	var out []CrossEdge
	for _, e := range p.CrossPackageEdges() {
		out = append(out, CrossEdge{
			FromPackage: p.PackageOf(e.From),
			From:        e.From,
			ToPackage:   p.PackageOf(e.To),
			To:          e.To,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func WritePackages(w io.Writer, pkgs []Package) {
	if len(pkgs) == 0 {
		fmt.Fprintln(w, "No packages")
		return
	}
	for _, pkg := range pkgs {
		name := pkg.Name
		if name == "" {
			name = "(default)"
		}
		fmt.Fprintf(w, "%s", name)
		if pkg.Namespace != "" {
			fmt.Fprintf(w, " namespace=%s", pkg.Namespace)
		}
		if pkg.Root != "" {
			fmt.Fprintf(w, " root=%s", pkg.Root)
		}
		fmt.Fprintf(w, " modules=%d\n", pkg.Modules)
		if len(pkg.Depends) > 0 {
			fmt.Fprintf(w, "  depends: %s\n", strings.Join(pkg.Depends, ", "))
		}
	}
}

func WriteModules(w io.Writer, pkg string, mods []Module) {
	fmt.Fprintf(w, "Package %s: %d modules\n", pkg, len(mods))
	for _, mod := range mods {
		fmt.Fprintf(w, "\n%s\n", mod.Module)
		writeRefs(w, "depends on", mod.Dependencies)
	}
}

func WriteModule(w io.Writer, mod Module) {
	fmt.Fprintf(w, "%s", mod.Module)
	if mod.Package != "" {
		fmt.Fprintf(w, " (package %s)", mod.Package)
	}
	fmt.Fprintln(w)
	writeRefs(w, "depends on", mod.Dependencies)
	writeRefs(w, "used by", mod.Dependents)
}

func writeRefs(w io.Writer, label string, refs []ModuleRef) {
	if len(refs) == 0 {
		fmt.Fprintf(w, "  %s: none\n", label)
		return
	}
	fmt.Fprintf(w, "  %s:\n", label)
	for _, r := range refs {
		if r.Package != "" {
			fmt.Fprintf(w, "    %s (from %s package)\n", r.Module, r.Package)
			continue
		}
		fmt.Fprintf(w, "    %s\n", r.Module)
	}
}

func WriteCross(w io.Writer, edges []CrossEdge) {
	if len(edges) == 0 {
		fmt.Fprintln(w, "No cross-package dependencies")
		return
	}
	for _, e := range edges {
		fmt.Fprintf(w, "%s → %s\n", qualified(e.FromPackage, e.From), qualified(e.ToPackage, e.To))
	}
}

func qualified(pkg, mod string) string {
	if pkg == "" {
		return mod
	}
	return pkg + ":" + mod
}
