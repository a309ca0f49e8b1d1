// Package parser scans source trees for declared code symbols. Language
// support is plugged in through LanguageParser.
package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/ignore"
)

// LanguageParser defines the interface each language must implement
type LanguageParser interface {
	// Language returns the language name (e.g., "go", "rust")
	Language() string

	// Extensions returns file extensions this parser handles
	Extensions() []string

	// Parse extracts symbols from source code
	Parse(ctx context.Context, filename string, content []byte) (*FileSymbols, error)
}

// Registry holds all registered language parsers
type Registry struct {
	parsers   map[string]LanguageParser // language name -> parser
	extToLang map[string]string         // extension -> language name
}

func NewRegistry() *Registry {
	return &Registry{
		parsers:   make(map[string]LanguageParser),
		extToLang: make(map[string]string),
	}
}

// Register adds a language parser to the registry
func (r *Registry) Register(p LanguageParser) {
	lang := p.Language()
	r.parsers[lang] = p
	for _, ext := range p.Extensions() {
		r.extToLang[ext] = lang
	}
}

// GetParserForFile returns the appropriate parser for a file
func (r *Registry) GetParserForFile(filename string) (LanguageParser, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	parser, ok := r.parsers[lang]
	return parser, ok
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.parsers))
	for lang := range r.parsers {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// ParseFile parses a single file and returns its symbols. Unsupported
// files return nil without error.
func (r *Registry) ParseFile(ctx context.Context, path string) (*FileSymbols, error) {
	parser, ok := r.GetParserForFile(path)
	if !ok {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	symbols, err := parser.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	symbols.Hash = hashContent(content)
	return symbols, nil
}

// ParseDirectory parses every supported file under root that the matcher
// does not ignore. A nil matcher applies the default rules.
func (r *Registry) ParseDirectory(ctx context.Context, root string, matcher *ignore.Matcher) (*ParseResult, error) {
	if matcher == nil {
		matcher = ignore.NewMatcher(nil)
	}

	result := &ParseResult{
		RootPath: root,
		Files:    make([]FileSymbols, 0),
		Issues:   make([]ParseIssue, 0),
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		relPath := path
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			relPath = filepath.ToSlash(rel)
		}
		if err != nil {
			result.Issues = append(result.Issues, ParseIssue{
				File:     relPath,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if relPath == "." {
			return nil
		}

		if matcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		symbols, err := r.ParseFile(ctx, path)
		if err != nil {
			lang := ""
			if langParser, ok := r.GetParserForFile(path); ok {
				lang = langParser.Language()
			}
			result.Issues = append(result.Issues, ParseIssue{
				File:     relPath,
				Language: lang,
				Severity: "error",
				Message:  err.Error(),
			})
			return nil
		}
		if symbols != nil {
			symbols.Path = relPath
			for i := range symbols.Symbols {
				symbols.Symbols[i].File = relPath
				symbols.Symbols[i].ID = StableSymbolID(relPath, symbols.Symbols[i])
			}
			result.Files = append(result.Files, *symbols)
		}
		return nil
	})

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].File == result.Issues[j].File {
			return result.Issues[i].Message < result.Issues[j].Message
		}
		return result.Issues[i].File < result.Issues[j].File
	})

	return result, err
}

func hashContent(content []byte) string {
	h := sha256.New()
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
