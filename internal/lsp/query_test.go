package lsp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocationOutput(t *testing.T) {
	output := strings.Join([]string{
		"/repo/internal/cli/root.go:42:7",
		"/repo/internal/nav/commands.go:11:3-extra",
		"garbage",
	}, "\n")

	locations := ParseLocationOutput("/repo", output)
	assert.Equal(t, []Location{
		{File: "internal/cli/root.go", Line: 42, Column: 7},
		{File: "internal/nav/commands.go", Line: 11, Column: 3},
	}, locations)
}

func TestParseSymbolOutput(t *testing.T) {
	output := strings.Join([]string{
		"/repo/store/store.go:12:6-11 store.Store Struct",
		"/repo/store/store.go:20:17-20 store.Store.Get Method",
		"/repo/api/api.go:3:6-9 Open Function",
		"noise",
	}, "\n")

	symbols := ParseSymbolOutput("/repo", output)
	assert.Equal(t, []Symbol{
		{Name: "Open", Kind: "Function", Location: Location{File: "api/api.go", Line: 3, Column: 6}},
		{Name: "Store", Kind: "Struct", Container: "store", Location: Location{File: "store/store.go", Line: 12, Column: 6}},
		{Name: "Get", Kind: "Method", Container: "Store", Location: Location{File: "store/store.go", Line: 20, Column: 17}},
	}, symbols)
}

func TestWorkspaceSymbolsWithRunner(t *testing.T) {
	runner := func(_ context.Context, dir string, name string, args ...string) (string, error) {
		assert.Equal(t, "/repo", dir)
		assert.Equal(t, "gopls", name)
		assert.Equal(t, []string{"workspace_symbol", "-matcher=caseSensitive", "Store"}, args)
		return "/repo/store.go:3:6-11 store.Store Struct\n/repo/store.go:9:6-16 store.StoreError Struct\n", nil
	}

	symbols, err := WorkspaceSymbolsWithRunner(context.Background(), "/repo", "Store", "gopls", runner)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "Store", symbols[0].Name)
	assert.Equal(t, "store.go", symbols[0].Location.File)
}

func TestWorkspaceSymbolsUnsupportedServer(t *testing.T) {
	_, err := WorkspaceSymbolsWithRunner(context.Background(), "/repo", "Store", "rust-analyzer", func(context.Context, string, string, ...string) (string, error) {
		return "", nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support")
}

func TestWorkspaceSymbolsRunnerError(t *testing.T) {
	_, err := WorkspaceSymbolsWithRunner(context.Background(), "/repo", "Store", "gopls", func(context.Context, string, string, ...string) (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lsp workspace_symbol query failed")
}
