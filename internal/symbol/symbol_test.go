package symbol

import (
	"testing"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, path, src string) *document.Document {
	t.Helper()
	doc, err := document.Parse(path, []byte(src))
	require.NoError(t, err)
	return doc
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in     string
		prefix string
		kind   document.Kind
		name   string
		ok     bool
	}{
		{"schema.User", "", document.KindSchema, "User", true},
		{"user.schema.Profile", "user", document.KindSchema, "Profile", true},
		{"example.user.func.create", "example.user", document.KindFunc, "create", true},
		{"mod.api", "", document.KindMod, "api", true},
		{"User", "", "", "", false},
		{"schema.", "", "", "", false},
		{"thing.User", "", "", "", false},
	}
	for _, tc := range cases {
		ref, ok := ParseRef(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if !tc.ok {
			continue
		}
		assert.Equal(t, tc.prefix, ref.Prefix, tc.in)
		assert.Equal(t, tc.kind, ref.Kind, tc.in)
		assert.Equal(t, tc.name, ref.Name, tc.in)
	}
}

func TestNamespacePrefixing(t *testing.T) {
	doc := mustParse(t, "user.toml", "namespace = \"user\"\n[schema.Profile]\nkind = \"node\"\n")
	table, diags := Merge([]Collected{Collect(doc, "default", doc.Namespace)}, nil)
	assert.Empty(t, diags)

	id, ok := table.Lookup("user.schema.Profile")
	require.True(t, ok)
	sym := table.Get(id)
	assert.Equal(t, "Profile", sym.Local)
	assert.Equal(t, "user", sym.Namespace)
	assert.NotNil(t, sym.Schema)

	_, ok = table.Lookup("schema.Profile")
	assert.False(t, ok)
	assert.True(t, table.HasNamespace("user"))
}

func TestMergeReportsNameConflictFirstPathWins(t *testing.T) {
	a := mustParse(t, "a.toml", "[schema.user]\nkind = \"node\"\n")
	b := mustParse(t, "b.toml", "[schema.user]\nkind = \"node\"\n")

	table, diags := Merge([]Collected{Collect(b, "default", ""), Collect(a, "default", "")}, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeNameConflict, diags[0].Code)
	assert.Equal(t, "b.toml", diags[0].File)
	assert.Contains(t, diags[0].Message, "a.toml")

	id, ok := table.Lookup("schema.user")
	require.True(t, ok)
	assert.Equal(t, "a.toml", table.Get(id).File)
	assert.Equal(t, 2, table.Len())
	assert.True(t, table.InFile("b.toml")[0].Shadowed)
}

func TestNewContextResolvesImports(t *testing.T) {
	core := mustParse(t, "core.toml", "namespace = \"core\"\n[schema.id]\nkind = \"value\"\n")
	app := mustParse(t, "app.toml", "import = [\"core as c\", \"billing\", \"nowhere\", \"a b c d\"]\n")
	table, _ := Merge([]Collected{
		Collect(core, "platform", "core"),
		Collect(app, "default", ""),
	}, map[string]string{"billing": "bill"})

	ctx, diags := NewContext(app, "default", "", table)
	require.Len(t, ctx.Imports, 3)

	alias, ok := ctx.Alias("c")
	require.True(t, ok)
	assert.Equal(t, []string{"core"}, alias.Namespaces)
	assert.Equal(t, []string{"bill"}, ctx.Imports[1].Namespaces)
	assert.Empty(t, ctx.Imports[2].Namespaces)
	assert.Len(t, ctx.Unaliased(), 2)

	codes := []string{}
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.ElementsMatch(t, []string{diag.CodeUnknownImport, diag.CodeImportSyntax}, codes)
}

func TestFindByLocalName(t *testing.T) {
	doc := mustParse(t, "a.toml", "namespace = \"user\"\n[schema.Profile]\nkind = \"node\"\n")
	table, _ := Merge([]Collected{Collect(doc, "default", "user")}, nil)

	ids, ok := table.Find("schema.Profile")
	require.True(t, ok)
	assert.Equal(t, "user.schema.Profile", table.Get(ids[0]).Name)

	ids, ok = table.Find("Profile")
	require.True(t, ok)
	assert.Len(t, ids, 1)
}
