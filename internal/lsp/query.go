package lsp

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var outputLocationPattern = regexp.MustCompile(`^(.*):([0-9]+):([0-9]+)(?:[-:].*)?$`)

type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// Symbol is one workspace symbol reported by a server. Kind uses the
// protocol's SymbolKind names ("Function", "Struct", ...).
type Symbol struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Container string   `json:"container,omitempty"`
	Location  Location `json:"location"`
}

type CommandRunner func(ctx context.Context, dir string, name string, args ...string) (string, error)

// WorkspaceSymbols asks server for the symbols named query under rootPath.
// Only exact name matches are returned.
func WorkspaceSymbols(ctx context.Context, rootPath string, query string, server string) ([]Symbol, error) {
	return WorkspaceSymbolsWithRunner(ctx, rootPath, query, server, defaultRunner)
}

func WorkspaceSymbolsWithRunner(ctx context.Context, rootPath string, query string, server string, runner CommandRunner) ([]Symbol, error) {
	if runner == nil {
		return nil, errors.New("command runner is required")
	}
	if strings.TrimSpace(server) == "" {
		return nil, errors.New("lsp server is required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}

	switch server {
	case "gopls":
		output, err := runner(ctx, rootPath, server, "workspace_symbol", "-matcher=caseSensitive", query)
		if err != nil {
			return nil, fmt.Errorf("lsp workspace_symbol query failed: %w", err)
		}
		var out []Symbol
		for _, sym := range ParseSymbolOutput(rootPath, output) {
			if sym.Name == query {
				out = append(out, sym)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("lsp server %q does not support workspace_symbol query backend", server)
	}
}

// ParseSymbolOutput reads "file:line:col-col name Kind" lines. A dotted
// name is split into container and bare name.
func ParseSymbolOutput(rootPath string, output string) []Symbol {
	var symbols []Symbol
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		locations := ParseLocationOutput(rootPath, fields[0])
		if len(locations) != 1 {
			continue
		}
		name := fields[len(fields)-2]
		sym := Symbol{Name: name, Kind: fields[len(fields)-1], Location: locations[0]}
		if i := strings.LastIndex(name, "."); i >= 0 {
			sym.Name = name[i+1:]
			container := name[:i]
			if j := strings.LastIndex(container, "."); j >= 0 {
				container = container[j+1:]
			}
			sym.Container = container
		}
		symbols = append(symbols, sym)
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		a, b := symbols[i].Location, symbols[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return symbols
}

func ParseLocationOutput(rootPath string, output string) []Location {
	lines := strings.Split(output, "\n")
	locations := make([]Location, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := outputLocationPattern.FindStringSubmatch(line)
		if len(match) != 4 {
			continue
		}
		parsedLine, err := strconv.Atoi(match[2])
		if err != nil || parsedLine <= 0 {
			continue
		}
		parsedCol, err := strconv.Atoi(match[3])
		if err != nil || parsedCol <= 0 {
			parsedCol = 1
		}
		locations = append(locations, Location{
			File:   normalizeLocationPath(rootPath, match[1]),
			Line:   parsedLine,
			Column: parsedCol,
		})
	}
	return locations
}

func normalizeLocationPath(rootPath string, locationPath string) string {
	locationPath = strings.TrimSpace(locationPath)
	if locationPath == "" {
		return locationPath
	}
	if filepath.IsAbs(locationPath) {
		rel, err := filepath.Rel(rootPath, locationPath)
		if err == nil && rel != "" && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(locationPath)
}

func defaultRunner(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
