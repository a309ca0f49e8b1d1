package drift

import (
	"context"
	"fmt"
	"sort"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/ignore"
	"github.com/morozRed/blueprint/internal/lsp"
	"github.com/morozRed/blueprint/internal/parser"
)

// Source finds the code symbols to compare against.
type Source interface {
	Symbols(ctx context.Context, expected []Expected) ([]Found, error)
}

// ScanSource parses the source tree under Root with tree-sitter.
type ScanSource struct {
	Root     string
	Registry *parser.Registry
	Ignore   *ignore.Matcher
}

func (s ScanSource) Symbols(ctx context.Context, _ []Expected) ([]Found, error) {
	logger := ctxlog.FromContext(ctx)
	result, err := s.Registry.ParseDirectory(ctx, s.Root, s.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.Root, err)
	}
	for _, issue := range result.Issues {
		logger.Warn("source scan issue", "file", issue.File, "severity", issue.Severity, "message", issue.Message)
	}

	var out []Found
	for _, file := range result.Files {
		for _, sym := range file.Symbols {
			out = append(out, Found{
				Name:      sym.Name,
				Kind:      protocolKind(sym.Kind),
				Container: sym.Container,
				Language:  file.Language,
				File:      file.Path,
				Line:      sym.Line,
				Column:    sym.Column,
			})
		}
	}
	logger.Debug("scanned source tree", "root", s.Root, "files", len(result.Files), "symbols", len(out))
	return out, nil
}

func protocolKind(k parser.SymbolKind) string {
	switch k {
	case parser.SymbolFunction:
		return "Function"
	case parser.SymbolMethod:
		return "Method"
	case parser.SymbolClass:
		return "Class"
	case parser.SymbolStruct:
		return "Struct"
	case parser.SymbolInterface:
		return "Interface"
	case parser.SymbolEnum:
		return "Enum"
	case parser.SymbolType:
		return "Type"
	case parser.SymbolVariable:
		return "Variable"
	default:
		return "Unknown"
	}
}

// LSPSource asks a language server for each expected search name.
type LSPSource struct {
	Root     string
	Server   string
	Language string
	Runner   lsp.CommandRunner
}

func (s LSPSource) Symbols(ctx context.Context, expected []Expected) ([]Found, error) {
	logger := ctxlog.FromContext(ctx)
	names := make(map[string]bool)
	for _, exp := range expected {
		if exp.MatchesLanguage(s.Language) {
			names[exp.SearchName()] = true
		}
	}
	queries := make([]string, 0, len(names))
	for name := range names {
		queries = append(queries, name)
	}
	sort.Strings(queries)

	var out []Found
	for _, query := range queries {
		var (
			symbols []lsp.Symbol
			err     error
		)
		if s.Runner != nil {
			symbols, err = lsp.WorkspaceSymbolsWithRunner(ctx, s.Root, query, s.Server, s.Runner)
		} else {
			symbols, err = lsp.WorkspaceSymbols(ctx, s.Root, query, s.Server)
		}
		if err != nil {
			return nil, err
		}
		logger.Debug("workspace symbols", "server", s.Server, "query", query, "found", len(symbols))
		for _, sym := range symbols {
			out = append(out, Found{
				Name:      sym.Name,
				Kind:      sym.Kind,
				Container: sym.Container,
				Language:  s.Language,
				File:      sym.Location.File,
				Line:      sym.Location.Line,
				Column:    sym.Location.Column,
			})
		}
	}
	return out, nil
}

// Run gathers symbols from src and compares them with expected.
func Run(ctx context.Context, expected []Expected, src Source, opts Options) (Result, error) {
	found, err := src.Symbols(ctx, expected)
	if err != nil {
		return Result{}, err
	}
	return Compare(expected, found, opts), nil
}
