package split

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/manifest"
	"github.com/morozRed/blueprint/internal/project"
)

const monolith = `[schema.user]
kind = "node"
fields = { id = "uuid" }

[schema.invoice]
kind = "value"

[schema.audit_entry]
kind = "value"

[func.create_user]
input = ["schema.user"]
output = ["schema.user"]

[func.bill]
input = ["schema.user"]
output = ["schema.invoice"]

[mod.users]
schemas = ["schema.user"]
funcs = ["func.create_user"]
boundary = { http = "POST /users" }

[mod.billing]
schemas = ["schema.invoice", "schema.user"]
funcs = ["func.bill"]
boundary = { http = "POST /invoices" }
`

const splitConfig = `[split]
output_dir = "out"
manifest = "blueprint.toml"
project_name = "shop"

[split.behavior]
shared_symbols = "copy"

[split.packages.identity]
root = "identity"
namespace = "identity"
modules = [{ mod = "mod.users", file = "users.toml" }]

[split.packages.billing]
root = "billing"
namespace = "billing"
depends = ["identity"]
modules = [{ mod = "mod.billing", file = "billing.toml" }]
`

func monolithProject(t *testing.T) *project.Project {
	t.Helper()
	doc, err := document.Parse("app.toml", []byte(monolith))
	require.NoError(t, err)
	p, err := project.FromDocuments(context.Background(), nil, []*document.Document{doc}, project.Options{})
	require.NoError(t, err)
	return p
}

func mustConfig(t *testing.T, src string) *Config {
	t.Helper()
	cfg, diags := ParseConfig("split.toml", []byte(src))
	require.NotNil(t, cfg)
	require.Empty(t, diags)
	cfg.Path = "split.toml"
	return cfg
}

func TestParseConfig(t *testing.T) {
	cfg := mustConfig(t, splitConfig)
	pkgs := cfg.Packages()
	require.Len(t, pkgs, 2)
	assert.Equal(t, "billing", pkgs[0].Name)
	assert.Equal(t, []Assignment{{Mod: "mod.billing", File: "billing.toml"}}, pkgs[0].Modules)
	assert.Equal(t, ".", cfg.Split.IRRoot)
	assert.True(t, cfg.RunProjectCheck())
}

func TestParseConfigProblems(t *testing.T) {
	cfg, diags := ParseConfig("split.toml", []byte(`[split]
manifest = "blueprint.toml"
project_name = "shop"

[split.behavior]
shared_symbols = "hoist"

[split.packages.core]
root = "core"
depends = ["ghost"]
modules = [{ mod = "users", file = "users.toml" }]
`))
	require.NotNil(t, cfg)
	assert.Len(t, diags, 5)
	for _, d := range diags {
		assert.Equal(t, diag.CodeSplitConfig, d.Code)
	}

	cfg, diags = ParseConfig("split.toml", []byte("[split\n"))
	assert.Nil(t, cfg)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.CodeSplitConfig, diags[0].Code)
}

func TestPlanCopiesClosures(t *testing.T) {
	plan := NewPlan(monolithProject(t), mustConfig(t, splitConfig))
	require.False(t, plan.HasErrors(), "%v", plan.Diagnostics)
	require.Len(t, plan.Outputs, 2)

	billing := plan.Outputs[0]
	assert.Equal(t, "billing/billing.toml", billing.Path)
	assert.Equal(t, []string{"func.bill", "mod.billing", "schema.invoice", "schema.user"}, billing.Symbols)
	assert.NotContains(t, billing.Symbols, "schema.audit_entry")

	doc, err := document.Parse(billing.Path, billing.Content)
	require.NoError(t, err)
	assert.Equal(t, "billing", doc.Package)
	assert.Equal(t, "billing", doc.Namespace)
	require.Len(t, doc.Mods, 1)
	assert.Len(t, doc.Schemas, 2)

	shared := diag.WithCode(plan.Diagnostics, diag.CodeSharedSymbolCopied)
	require.Len(t, shared, 1)
	assert.Equal(t, "schema.user", shared[0].Symbol)

	m, err := manifest.Parse(plan.Manifest)
	require.NoError(t, err)
	assert.Equal(t, "shop", m.Project.Name)
	assert.Equal(t, []string{"identity"}, m.Packages["billing"].Depends)
}

func TestPlanReportsMissingModulesAndDuplicateOutputs(t *testing.T) {
	plan := NewPlan(monolithProject(t), mustConfig(t, `[split]
output_dir = "out"
manifest = "blueprint.toml"
project_name = "shop"

[split.packages.a]
root = "shared"
namespace = "a"
modules = [{ mod = "mod.users", file = "one.toml" }, { mod = "mod.nowhere", file = "two.toml" }]

[split.packages.b]
root = "shared"
namespace = "b"
modules = [{ mod = "mod.billing", file = "one.toml" }]
`))
	assert.Len(t, diag.WithCode(plan.Diagnostics, diag.CodeModNotFound), 1)
	assert.Len(t, diag.WithCode(plan.Diagnostics, diag.CodeDupOutput), 1)
	assert.True(t, plan.HasErrors())
}

func TestWriteDetectsConflictsAndVerifies(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	plan := NewPlan(monolithProject(t), mustConfig(t, splitConfig))

	written, diags, err := plan.Write(ctx, dir, false)
	require.NoError(t, err)
	require.Empty(t, diags)
	assert.Equal(t, []string{"billing/billing.toml", "identity/users.toml", "blueprint.toml"}, written)

	checked, err := Verify(ctx, dir, plan)
	require.NoError(t, err)
	assert.False(t, diag.HasErrors(checked), "%v", checked)

	written, diags, err = plan.Write(ctx, dir, false)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Empty(t, written)

	edited := filepath.Join(dir, "identity", "users.toml")
	require.NoError(t, os.WriteFile(edited, []byte("# edited\n"), 0o644))
	_, diags, err = plan.Write(ctx, dir, false)
	require.NoError(t, err)
	conflicts := diag.WithCode(diags, diag.CodeWriteConflict)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "identity/users.toml", conflicts[0].File)

	written, _, err = plan.Write(ctx, dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"identity/users.toml"}, written)
}

func TestPlanRewritesNamespacedReferences(t *testing.T) {
	var docs []*document.Document
	for path, src := range map[string]string{
		"core.toml": "namespace = \"core\"\n\n[schema.user]\nkind = \"node\"\nfields = { id = \"uuid\" }\n",
		"api.toml": `import = ["core as c"]

[func.create]
input = ["c.schema.user"]
output = ["core.schema.user"]

[mod.api]
schemas = ["c.schema.user"]
funcs = ["func.create"]
pipeline = ["func.create"]
`,
	} {
		doc, err := document.Parse(path, []byte(src))
		require.NoError(t, err)
		docs = append(docs, doc)
	}
	p, err := project.FromDocuments(context.Background(), nil, docs, project.Options{})
	require.NoError(t, err)
	require.Empty(t, diag.WithCode(p.Diagnostics, diag.CodeUnresolvedRef))

	plan := NewPlan(p, mustConfig(t, `[split]
output_dir = "out"
manifest = "blueprint.toml"
project_name = "shop"

[split.packages.app]
root = "app"
namespace = "app"
modules = [{ mod = "mod.api", file = "api.toml" }]
`))
	require.False(t, plan.HasErrors(), "%v", plan.Diagnostics)
	require.Len(t, plan.Outputs, 1)

	doc, err := document.Parse(plan.Outputs[0].Path, plan.Outputs[0].Content)
	require.NoError(t, err)
	assert.Equal(t, []string{"schema.user"}, doc.Func("create").Input)
	out, err := project.FromDocuments(context.Background(), nil, []*document.Document{doc}, project.Options{})
	require.NoError(t, err)
	assert.Empty(t, diag.WithCode(out.Diagnostics, diag.CodeUnresolvedRef))
}
