package resolve

import (
	"testing"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	table *symbol.Table
	docs  map[string]*document.Document
	pkgs  map[string]string
}

func build(t *testing.T, files map[string]string, pkgs map[string]string) fixture {
	t.Helper()
	f := fixture{docs: make(map[string]*document.Document), pkgs: pkgs}
	var collected []symbol.Collected
	for path, src := range files {
		doc, err := document.Parse(path, []byte(src))
		require.NoError(t, err, path)
		f.docs[path] = doc
		collected = append(collected, symbol.Collect(doc, f.pkg(path), doc.Namespace))
	}
	table, diags := symbol.Merge(collected, nil)
	require.Empty(t, diags)
	f.table = table
	return f
}

func (f fixture) pkg(path string) string {
	if p, ok := f.pkgs[path]; ok {
		return p
	}
	return "default"
}

func (f fixture) context(t *testing.T, path string) symbol.NamespaceContext {
	t.Helper()
	doc := f.docs[path]
	ctx, _ := symbol.NewContext(doc, f.pkg(path), doc.Namespace, f.table)
	return ctx
}

func (f fixture) name(id symbol.ID) string {
	return f.table.Get(id).Name
}

func TestNamespacedFileResolvesItsOwnDeclarations(t *testing.T) {
	f := build(t, map[string]string{
		"user.toml": `namespace = "user"
[schema.Profile]
kind = "node"
`,
		"app.toml": `[func.load]
output = ["schema.Profile"]
`,
	}, nil)
	r := New(f.table, Lenient)

	res := r.Resolve(f.context(t, "user.toml"), "schema.Profile", document.KindSchema)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "user.schema.Profile", f.name(res.ID))

	res = r.Resolve(f.context(t, "app.toml"), "schema.Profile", document.KindSchema)
	assert.Equal(t, Unresolved, res.Status)

	res = r.Resolve(f.context(t, "app.toml"), "user.schema.Profile", document.KindSchema)
	require.Equal(t, Resolved, res.Status)
}

func TestFullyQualifiedPrefixIsDefinitive(t *testing.T) {
	f := build(t, map[string]string{
		"core.toml": "namespace = \"core\"\n[schema.id]\nkind = \"value\"\n",
		"app.toml":  "namespace = \"app\"\n[schema.id]\nkind = \"value\"\n",
	}, nil)
	r := New(f.table, Lenient)

	res := r.Resolve(f.context(t, "app.toml"), "core.schema.id", document.KindSchema)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "core.schema.id", f.name(res.ID))

	res = r.Resolve(f.context(t, "app.toml"), "schema.id", document.KindSchema)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "app.schema.id", f.name(res.ID))
}

func TestAliasResolvesThroughImport(t *testing.T) {
	f := build(t, map[string]string{
		"billing.toml": "namespace = \"billing\"\n[schema.invoice]\nkind = \"node\"\n",
		"app.toml":     "import = [\"billing as b\"]\n[func.pay]\ninput = [\"b.schema.invoice\"]\n",
	}, nil)
	r := New(f.table, Lenient)
	ctx := f.context(t, "app.toml")

	res := r.Resolve(ctx, "b.schema.invoice", document.KindSchema)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "billing.schema.invoice", f.name(res.ID))

	res = r.Resolve(ctx, "b.schema.missing", document.KindSchema)
	assert.Equal(t, Unresolved, res.Status)

	res = r.Resolve(ctx, "zz.schema.invoice", document.KindSchema)
	assert.Equal(t, Unresolved, res.Status)
}

func TestBareNameSearchesUnaliasedImports(t *testing.T) {
	f := build(t, map[string]string{
		"billing.toml": "namespace = \"billing\"\n[schema.invoice]\nkind = \"node\"\n",
		"app.toml":     "import = [\"billing\"]\n[func.pay]\ninput = [\"schema.invoice\"]\n",
	}, nil)
	r := New(f.table, Lenient)

	res := r.Resolve(f.context(t, "app.toml"), "schema.invoice", document.KindSchema)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "billing.schema.invoice", f.name(res.ID))
}

func TestAmbiguityFollowsPolicy(t *testing.T) {
	files := map[string]string{
		"a.toml":   "namespace = \"a\"\n[schema.id]\nkind = \"value\"\n",
		"b.toml":   "namespace = \"b\"\n[schema.id]\nkind = \"value\"\n",
		"app.toml": "import = [\"a\", \"b\"]\n[func.use]\ninput = [\"schema.id\"]\n",
	}
	f := build(t, files, nil)

	lenient := New(f.table, Lenient)
	res := lenient.Resolve(f.context(t, "app.toml"), "schema.id", document.KindSchema)
	require.Equal(t, Ambiguous, res.Status)
	assert.Equal(t, []string{"a.schema.id", "b.schema.id"}, res.Candidates)

	d, ok := lenient.Diagnose(res, "schema.id", document.KindSchema)
	require.True(t, ok)
	assert.Equal(t, diag.CodeAmbiguousName, d.Code)
	assert.Equal(t, diag.Warning, d.Severity)

	strict := New(f.table, Strict)
	d, ok = strict.Diagnose(res, "schema.id", document.KindSchema)
	require.True(t, ok)
	assert.Equal(t, diag.CodeAmbiguousNameError, d.Code)
	assert.Equal(t, diag.Error, d.Severity)
}

func TestKindMismatch(t *testing.T) {
	f := build(t, map[string]string{
		"app.toml": "[func.build]\nintent = \"x\"\n[mod.api]\nschemas = [\"func.build\"]\n",
	}, nil)
	r := New(f.table, Lenient)

	res := r.Resolve(f.context(t, "app.toml"), "func.build", document.KindSchema)
	assert.Equal(t, KindMismatch, res.Status)

	d, ok := r.Diagnose(res, "func.build", document.KindSchema)
	require.True(t, ok)
	assert.Equal(t, diag.CodeKindMismatch, d.Code)
	assert.Contains(t, d.Message, "expected a schema")
}

func TestMalformedReferenceIsUnresolved(t *testing.T) {
	f := build(t, map[string]string{"app.toml": "[schema.x]\nkind = \"node\"\n"}, nil)
	r := New(f.table, Lenient)

	res := r.Resolve(f.context(t, "app.toml"), "x", document.KindSchema)
	assert.Equal(t, Unresolved, res.Status)
	d, ok := r.Diagnose(res, "x", document.KindSchema)
	require.True(t, ok)
	assert.Equal(t, diag.CodeUnresolvedRef, d.Code)
}

func TestLinkSymbolDiagnosesReferencesButNotRequires(t *testing.T) {
	f := build(t, map[string]string{
		"app.toml": `[schema.user]
kind = "node"
fields = { tags = "array<schema.tag>", id = "string" }

[func.save]
input = ["schema.user"]
output = ["schema.missing"]

[mod.api]
funcs = ["func.save"]
requires = ["mod.nowhere"]
`,
	}, nil)
	r := New(f.table, Lenient)
	ctx := f.context(t, "app.toml")

	var links []Link
	var diags []diag.Diagnostic
	for _, sym := range f.table.InFile("app.toml") {
		l, d := r.LinkSymbol(ctx, sym)
		links = append(links, l...)
		diags = append(diags, d...)
	}

	codes := make(map[string]int)
	for _, d := range diags {
		codes[d.Code]++
	}
	assert.Equal(t, map[string]int{diag.CodeUnresolvedRef: 2}, codes)

	relations := make(map[string]Status)
	for _, l := range links {
		relations[l.Relation] = l.Status
	}
	assert.Equal(t, Unresolved, relations["field:tags"])
	assert.Equal(t, Resolved, relations[RelInput])
	assert.Equal(t, Unresolved, relations[RelOutput])
	assert.Equal(t, Unresolved, relations[RelRequires])
}

func TestIndexQueries(t *testing.T) {
	links := []Link{
		{From: 2, Relation: RelFuncs, Target: 1, Status: Resolved},
		{From: 1, Relation: RelInput, Target: 0, Status: Resolved},
		{From: 1, Relation: RelOutput, Target: 0, Status: Resolved},
		{From: 0, Relation: "field:tags", Target: 3, Status: Resolved},
		{From: 1, Relation: RelOutput, Raw: "schema.gone", Target: symbol.NoID, Status: Unresolved},
	}
	idx := NewIndex(links)

	assert.Len(t, idx.Outgoing(1), 3)
	assert.Len(t, idx.Incoming(0), 2)
	assert.Empty(t, idx.Incoming(symbol.NoID))
	assert.Equal(t, []symbol.ID{0}, idx.Targets(1))
	assert.Equal(t, []symbol.ID{0}, idx.Targets(1, RelOutput))
	assert.Empty(t, idx.Targets(2, RelPipeline))
	assert.Equal(t, []symbol.ID{3}, idx.Targets(0, RelField))
	assert.Equal(t, symbol.ID(0), idx.All()[0].From)
}
