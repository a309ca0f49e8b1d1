package split

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/manifest"
	"github.com/morozRed/blueprint/internal/nav"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/symbol"
)

// Output is one generated document file.
type Output struct {
	Path      string   `json:"path"`
	Package   string   `json:"package"`
	Namespace string   `json:"namespace"`
	Modules   []string `json:"modules"`
	Symbols   []string `json:"symbols"`

	ids     []symbol.ID
	Content []byte `json:"-"`
}

// Plan is everything a split would write. Paths are relative to the
// config's output directory.
type Plan struct {
	Outputs      []*Output         `json:"outputs"`
	ManifestPath string            `json:"manifest"`
	Manifest     []byte            `json:"-"`
	Diagnostics  []diag.Diagnostic `json:"diagnostics"`
}

func (pl *Plan) HasErrors() bool {
	return diag.HasErrors(pl.Diagnostics)
}

// NewPlan assigns modules to output files and computes what each file
// carries. Two modules may share a file only when they agree on its
// namespace.
func NewPlan(p *project.Project, cfg *Config) *Plan {
	pl := &Plan{ManifestPath: cfg.Split.Manifest}
	byPath := make(map[string]*Output)
	cfgFile := filepath.Base(cfg.Path)

	for _, pkg := range cfg.Packages() {
		for i, a := range pkg.Modules {
			where := fmt.Sprintf("split.packages.%s.modules[%d]", pkg.Name, i)
			mod, err := p.Find(a.Mod)
			if err != nil || mod.Kind != document.KindMod {
				d := diag.Errorf(diag.CodeModNotFound, fmt.Sprintf("module %s not found in project", a.Mod))
				if err != nil {
					d.Message = fmt.Sprintf("module %s: %v", a.Mod, err)
				}
				d.File = cfgFile
				d.Location = where
				pl.Diagnostics = append(pl.Diagnostics, d)
				continue
			}

			outPath := path.Join(filepath.ToSlash(pkg.Root), filepath.ToSlash(a.File))
			out, ok := byPath[outPath]
			if !ok {
				out = &Output{Path: outPath, Package: pkg.Name, Namespace: pkg.Namespace}
				byPath[outPath] = out
				pl.Outputs = append(pl.Outputs, out)
			} else if out.Namespace != pkg.Namespace {
				d := diag.Errorf(diag.CodeDupOutput,
					fmt.Sprintf("%s is claimed by namespace %s and namespace %s", outPath, out.Namespace, pkg.Namespace))
				d.File = cfgFile
				d.Location = where
				pl.Diagnostics = append(pl.Diagnostics, d)
				continue
			}
			out.Modules = append(out.Modules, mod.Name)
			out.ids = mergeIDs(out.ids, nav.ClosureIDs(p.Table, p.Links, mod.ID))
		}
	}

	sort.Slice(pl.Outputs, func(i, j int) bool { return pl.Outputs[i].Path < pl.Outputs[j].Path })
	for _, out := range pl.Outputs {
		var renamed []diag.Diagnostic
		out.Content, renamed = render(p, out)
		pl.Diagnostics = append(pl.Diagnostics, renamed...)
		for _, id := range out.ids {
			out.Symbols = append(out.Symbols, p.Table.Get(id).Name)
		}
		sort.Strings(out.Symbols)
	}
	pl.Diagnostics = append(pl.Diagnostics, sharedCopies(p, pl.Outputs, cfgFile)...)

	m, err := renderManifest(cfg)
	if err != nil {
		d := diag.Errorf(diag.CodeSplitConfig, fmt.Sprintf("failed to render manifest: %v", err))
		d.File = cfgFile
		pl.Diagnostics = append(pl.Diagnostics, d)
	}
	pl.Manifest = m
	diag.Sort(pl.Diagnostics)
	return pl
}

func mergeIDs(into, ids []symbol.ID) []symbol.ID {
	seen := make(map[symbol.ID]bool, len(into))
	for _, id := range into {
		seen[id] = true
	}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			into = append(into, id)
		}
	}
	return into
}

// render builds the output document. The file's modules keep their own
// module-level requires; file-level requires of their source files are
// carried over.
func render(p *project.Project, out *Output) ([]byte, []diag.Diagnostic) {
	doc, renamed := nav.ClosureDocument(p.Table, p.Links, out.ids)
	doc.Package = out.Package
	doc.Namespace = out.Namespace

	seen := make(map[string]bool)
	for _, name := range out.Modules {
		mod, err := p.Find(name)
		if err != nil {
			continue
		}
		src, ok := p.Document(mod.File)
		if !ok {
			continue
		}
		for _, req := range src.Requires {
			if !seen[req.Target] {
				seen[req.Target] = true
				doc.Requires = append(doc.Requires, req)
			}
		}
	}
	return document.Render(doc), renamed
}

// sharedCopies warns once per symbol copied into more than one output.
func sharedCopies(p *project.Project, outputs []*Output, cfgFile string) []diag.Diagnostic {
	files := make(map[symbol.ID][]string)
	for _, out := range outputs {
		for _, id := range out.ids {
			if p.Table.Get(id).Kind == document.KindMod {
				continue
			}
			files[id] = append(files[id], out.Path)
		}
	}
	var diags []diag.Diagnostic
	for id, paths := range files {
		if len(paths) < 2 {
			continue
		}
		sym := p.Table.Get(id)
		d := diag.Warnf(diag.CodeSharedSymbolCopied,
			fmt.Sprintf("%s copied into %d files: %s", sym.Name, len(paths), strings.Join(paths, ", ")))
		d.File = cfgFile
		d.Symbol = sym.Name
		diags = append(diags, d)
	}
	return diags
}

type manifestFile struct {
	Project  manifest.ProjectSection  `toml:"project"`
	Paths    manifest.PathsSection    `toml:"paths"`
	Packages map[string]manifestEntry `toml:"packages"`
}

type manifestEntry struct {
	Root      string   `toml:"root"`
	Namespace string   `toml:"namespace"`
	Depends   []string `toml:"depends,omitempty"`
}

func renderManifest(cfg *Config) ([]byte, error) {
	m := manifestFile{
		Project:  manifest.ProjectSection{Name: cfg.Split.ProjectName},
		Paths:    manifest.PathsSection{IRRoot: cfg.Split.IRRoot},
		Packages: make(map[string]manifestEntry, len(cfg.Split.Packages)),
	}
	for _, pkg := range cfg.Packages() {
		m.Packages[pkg.Name] = manifestEntry{Root: pkg.Root, Namespace: pkg.Namespace, Depends: pkg.Depends}
	}
	return toml.Marshal(m)
}

// Write puts the plan on disk under dir. An existing file with different
// content is a conflict unless force is set; identical files are left
// alone. It returns the paths it wrote.
func (pl *Plan) Write(ctx context.Context, dir string, force bool) ([]string, []diag.Diagnostic, error) {
	logger := ctxlog.FromContext(ctx)
	type file struct {
		rel  string
		data []byte
	}
	files := make([]file, 0, len(pl.Outputs)+1)
	for _, out := range pl.Outputs {
		files = append(files, file{out.Path, out.Content})
	}
	files = append(files, file{filepath.ToSlash(pl.ManifestPath), pl.Manifest})

	var diags []diag.Diagnostic
	for _, f := range files {
		existing, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.rel)))
		if err == nil && !bytes.Equal(existing, f.data) && !force {
			d := diag.Errorf(diag.CodeWriteConflict, fmt.Sprintf("%s already exists with different content (use --force to overwrite)", f.rel))
			d.File = f.rel
			diags = append(diags, d)
		}
	}
	if diag.HasErrors(diags) {
		return nil, diags, nil
	}

	var written []string
	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, diags, fmt.Errorf("failed to create %s: %w", filepath.Dir(target), err)
		}
		changed, err := fileutil.WriteIfChangedTracked(target, f.data)
		if err != nil {
			return written, diags, fmt.Errorf("failed to write %s: %w", f.rel, err)
		}
		if changed {
			logger.Debug("split wrote file", "path", f.rel)
			written = append(written, f.rel)
		}
	}
	return written, diags, nil
}

// Verify loads the split result as a project and returns its diagnostics.
func Verify(ctx context.Context, dir string, plan *Plan) ([]diag.Diagnostic, error) {
	p, err := project.Load(ctx, filepath.Join(dir, filepath.FromSlash(plan.ManifestPath)), project.Options{})
	if err != nil {
		return nil, err
	}
	return p.Diagnostics, nil
}
