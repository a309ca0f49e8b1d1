package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/ignore"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadParsesDocumentsAndReportsParseErrors(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "blueprint.toml"), "[project]\nname = \"demo\"\n")
	mustWriteFile(t, filepath.Join(root, "ir", "b.toml"), "[schema.b]\nkind = \"node\"\n")
	mustWriteFile(t, filepath.Join(root, "ir", "a.toml"), "[schema.a]\nkind = \"node\"\n")
	mustWriteFile(t, filepath.Join(root, "ir", "broken.toml"), "[schema.x]\nkind = \"node\"\nkind = \"edge\"\n")
	mustWriteFile(t, filepath.Join(root, "ir", "deploy.toml"), "[deploy.pipeline]\nname = \"ci\"\n")
	mustWriteFile(t, filepath.Join(root, "ir", "notes.md"), "# not a document\n")
	mustWriteFile(t, filepath.Join(root, "ir", "drafts", "c.toml"), "[schema.c]\nkind = \"node\"\n")

	res, err := Load(context.Background(), Options{
		Root:   root,
		IRRoot: filepath.Join(root, "ir"),
		Ignore: ignore.NewMatcher([]string{"drafts/"}),
		Skip:   []string{filepath.Join(root, "blueprint.toml")},
	})
	require.NoError(t, err)

	var paths []string
	for _, doc := range res.Documents {
		paths = append(paths, doc.Path)
	}
	assert.Equal(t, []string{"ir/a.toml", "ir/b.toml"}, paths)

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, diag.CodeParse, d.Code)
	assert.Equal(t, "ir/broken.toml", d.File)
	assert.Equal(t, 3, d.Line)
}

func TestLoadSkipsManifestInsideIRRoot(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "blueprint.toml")
	mustWriteFile(t, manifest, "[project]\nname = \"demo\"\n")
	mustWriteFile(t, filepath.Join(root, "users.toml"), "[schema.user]\nkind = \"node\"\n")

	res, err := Load(context.Background(), Options{Root: root, IRRoot: root, Skip: []string{manifest}})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "users.toml", res.Documents[0].Path)
	assert.Empty(t, res.Diagnostics)
}

func TestLoadFailsOnMissingIRRoot(t *testing.T) {
	root := t.TempDir()
	_, err := Load(context.Background(), Options{Root: root, IRRoot: filepath.Join(root, "missing")})
	assert.Error(t, err)
}
