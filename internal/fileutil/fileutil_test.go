package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFileHashesSkipsMissingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ir", "a.toml"), []byte("[mod.a]\n"), 0o644))

	hashes, err := ScanFileHashes(root, []string{"ir/a.toml", "ir/gone.toml"})
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Len(t, hashes["ir/a.toml"], 16)

	again, err := ScanFileHashes(root, []string{"ir/a.toml"})
	require.NoError(t, err)
	assert.Equal(t, hashes, again)
}

func TestWriteIfChangedTracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")

	changed, err := WriteIfChangedTracked(path, []byte("a"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = WriteIfChangedTracked(path, []byte("a"))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestWriteIfMissingKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blueprint.toml")
	require.NoError(t, WriteIfMissing(path, []byte("first"), 0o644))
	require.NoError(t, WriteIfMissing(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, DedupeStrings([]string{"b", "a", "b"}))
	assert.Equal(t, []string{"a", "b"}, MapKeysSorted(map[string]bool{"b": true, "a": true}))
	assert.Equal(t, "x\n", EnsureTrailingNewline("x"))
	assert.Equal(t, map[string]bool{"a": true, "b": true}, ToSet([]string{"a", "b", "a"}))
}

func TestPrintJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"errors": 1}))
	assert.Equal(t, "{\n  \"errors\": 1\n}\n", buf.String())
}
