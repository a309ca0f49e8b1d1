package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/diag"
)

// FileHeader is what assignment needs to know about one document: its
// slash path relative to the manifest directory and its package header.
type FileHeader struct {
	Path    string
	Package string
}

// Assign places every file into exactly one package. With no packages
// declared, every file belongs to DefaultPackage. Files that cannot be
// placed keep their declared package (or DefaultPackage) so analysis can
// continue, and a diagnostic is recorded.
func (m *Manifest) Assign(files []FileHeader) (map[string]string, []diag.Diagnostic) {
	assignments := make(map[string]string, len(files))
	var diags []diag.Diagnostic

	packages := m.PackageList()
	if len(packages) == 0 {
		for _, f := range files {
			assignments[f.Path] = DefaultPackage
		}
		return assignments, nil
	}

	roots := make(map[string]string, len(packages))
	for _, pkg := range packages {
		roots[pkg.Name] = m.relativeRoot(pkg.Root)
	}

	for _, f := range files {
		fallback := f.Package
		if fallback == "" {
			fallback = DefaultPackage
		}

		if f.Package != "" {
			root, ok := roots[f.Package]
			switch {
			case !ok:
				d := diag.Errorf(diag.CodePackageUnknown, fmt.Sprintf("file declares unknown package %q", f.Package))
				d.File = f.Path
				diags = append(diags, d)
			case !within(f.Path, root):
				d := diag.Errorf(diag.CodePackageRootMismatch, fmt.Sprintf("file is not inside the root %q of package %q", root, f.Package))
				d.File = f.Path
				diags = append(diags, d)
			}
			assignments[f.Path] = fallback
			continue
		}

		var matching []string
		for _, pkg := range packages {
			if within(f.Path, roots[pkg.Name]) {
				matching = append(matching, pkg.Name)
			}
		}
		sort.Strings(matching)

		switch len(matching) {
		case 0:
			d := diag.Errorf(diag.CodePackageUnassigned, "file does not fall under any package root and has no package header")
			d.File = f.Path
			diags = append(diags, d)
			assignments[f.Path] = fallback
		case 1:
			assignments[f.Path] = matching[0]
		default:
			d := diag.Errorf(diag.CodePackageAmbiguous, "file matches multiple package roots: "+strings.Join(matching, ", "))
			d.File = f.Path
			diags = append(diags, d)
			assignments[f.Path] = matching[0]
		}
	}

	return assignments, diags
}

// CheckDepends reports depends entries naming undeclared packages.
func (m *Manifest) CheckDepends() []diag.Diagnostic {
	var diags []diag.Diagnostic
	rel := m.Path
	if m.Root != "" && m.Path != "" {
		if r, err := filepath.Rel(m.Root, m.Path); err == nil {
			rel = filepath.ToSlash(r)
		}
	}
	for _, pkg := range m.PackageList() {
		for _, dep := range pkg.Depends {
			if _, ok := m.Packages[dep]; ok {
				continue
			}
			d := diag.Errorf(diag.CodePackageUnknownDep, fmt.Sprintf("package %q depends on unknown package %q", pkg.Name, dep))
			d.File = rel
			d.Symbol = "packages." + pkg.Name
			diags = append(diags, d)
		}
	}
	return diags
}

func (m *Manifest) relativeRoot(root string) string {
	if filepath.IsAbs(root) && m.Root != "" {
		if rel, err := filepath.Rel(m.Root, root); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return root
}

func within(path, root string) bool {
	if root == "" || root == "." {
		return true
	}
	root = strings.TrimSuffix(root, "/")
	return path == root || strings.HasPrefix(path, root+"/")
}
