// Package loader finds and parses every document under the IR root.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/ignore"
	"github.com/morozRed/blueprint/internal/tomltree"
)

// Options controls a load. Paths in Skip are absolute.
type Options struct {
	Root    string
	IRRoot  string
	Ignore  *ignore.Matcher
	Skip    []string
	Workers int
}

// Result holds parsed documents sorted by path. Document paths are slash
// paths relative to Root.
type Result struct {
	Documents   []*document.Document
	Diagnostics []diag.Diagnostic
}

// Load walks IRRoot and parses every .toml file. A file that fails to parse
// becomes an E_PARSE diagnostic; only an unreadable IR root is an error.
func Load(ctx context.Context, opts Options) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := Discover(opts)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("discovered documents", "count", len(paths), "ir_root", opts.IRRoot)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type parsed struct {
		doc  *document.Document
		diag *diag.Diagnostic
	}
	results := make([]parsed, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, d, err := parseOne(opts.Root, rel)
			if err != nil {
				return err
			}
			results[i] = parsed{doc: doc, diag: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var res Result
	for _, r := range results {
		if r.diag != nil {
			res.Diagnostics = append(res.Diagnostics, *r.diag)
			continue
		}
		if r.doc != nil {
			res.Documents = append(res.Documents, r.doc)
		}
	}
	return res, nil
}

// Discover lists candidate document paths, relative to Root and sorted.
func Discover(opts Options) ([]string, error) {
	info, err := os.Stat(opts.IRRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read ir root %s: %w", opts.IRRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ir root %s is not a directory", opts.IRRoot)
	}

	matcher := opts.Ignore
	if matcher == nil {
		matcher = ignore.NewMatcher(nil)
	}
	skip := make(map[string]bool, len(opts.Skip))
	for _, p := range opts.Skip {
		skip[filepath.Clean(p)] = true
	}

	var paths []string
	err = filepath.WalkDir(opts.IRRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return err
		}
		if path != opts.IRRoot && matcher.ShouldIgnore(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".toml") || skip[filepath.Clean(path)] {
			return nil
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk ir root %s: %w", opts.IRRoot, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// nonDocumentTables mark configuration files that live next to documents.
var nonDocumentTables = []string{"deploy", "split", "project"}

func parseOne(root, rel string) (*document.Document, *diag.Diagnostic, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	tree, err := tomltree.Parse(data)
	if err != nil {
		d := ParseDiagnostic(rel, err)
		return nil, &d, nil
	}
	for _, key := range nonDocumentTables {
		if _, ok := tree.Table(key); ok {
			return nil, nil, nil
		}
	}

	doc, err := document.FromTree(rel, tree)
	if err != nil {
		d := ParseDiagnostic(rel, err)
		return nil, &d, nil
	}
	return doc, nil, nil
}

// ParseDiagnostic converts a parse failure into E_PARSE, keeping its line.
func ParseDiagnostic(file string, err error) diag.Diagnostic {
	d := diag.Errorf(diag.CodeParse, err.Error())
	d.File = file

	var syntaxErr *tomltree.SyntaxError
	var headerErr *document.HeaderError
	switch {
	case errors.As(err, &syntaxErr):
		d.Line = syntaxErr.Line
		d.Message = syntaxErr.Message
	case errors.As(err, &headerErr):
		d.Line = headerErr.Line
		d.Location = headerErr.Key
	}
	return d
}
