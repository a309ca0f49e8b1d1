package check

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/resolve"
	"github.com/morozRed/blueprint/internal/symbol"
)

func run(t *testing.T, files map[string]string) []diag.Diagnostic {
	t.Helper()
	return runWorkers(t, files, 0)
}

func runWorkers(t *testing.T, files map[string]string, workers int) []diag.Diagnostic {
	t.Helper()
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var docs []*document.Document
	var collected []symbol.Collected
	for _, path := range paths {
		doc, err := document.Parse(path, []byte(files[path]))
		require.NoError(t, err, path)
		docs = append(docs, doc)
		collected = append(collected, symbol.Collect(doc, "default", doc.Namespace))
	}
	table, _ := symbol.Merge(collected, nil)

	var units []Unit
	for _, doc := range docs {
		ctx, _ := symbol.NewContext(doc, "default", doc.Namespace, table)
		units = append(units, Unit{Doc: doc, Context: ctx})
	}
	res, err := Project(context.Background(), resolve.New(table, resolve.Lenient), units, workers)
	require.NoError(t, err)
	return res.Diagnostics
}

func codes(diags []diag.Diagnostic) map[string]int {
	out := make(map[string]int)
	for _, d := range diags {
		out[d.Code]++
	}
	return out
}

func TestEdgeEndpointRules(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.user]
kind = "node"
from = "schema.user"

[schema.follows]
kind = "edge"
from = "schema.user"

[schema.weird]
kind = "graph"
`})
	assert.Equal(t, map[string]int{
		diag.CodeUnexpectedEndpoint:  1,
		diag.CodeEdgeEndpointMissing: 1,
		diag.CodeInvalidSchemaKind:   1,
	}, codes(diags))

	missing := diag.WithCode(diags, diag.CodeEdgeEndpointMissing)[0]
	assert.Equal(t, "schema.follows", missing.Symbol)
	assert.Equal(t, "to", missing.Location)
}

func TestPipelineContinuity(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.order]
kind = "node"
[schema.invoice]
kind = "node"
[schema.receipt]
kind = "node"

[func.place]
input = ["schema.order"]
output = ["schema.order"]

[func.bill]
input = ["schema.order", "schema.receipt"]
output = ["schema.invoice"]

[func.ship]
input = ["schema.receipt"]
output = ["schema.receipt"]

[mod.shop]
schemas = ["schema.order", "schema.invoice", "schema.receipt"]
funcs = ["func.place", "func.bill", "func.ship"]
pipeline = "func.place -> func.bill -> func.ship"
`})
	assert.Equal(t, map[string]int{
		diag.CodePipelinePartial: 1,
		diag.CodePipelineBroken:  1,
	}, codes(diags))

	broken := diag.WithCode(diags, diag.CodePipelineBroken)[0]
	assert.Equal(t, "pipeline(func.bill->func.ship)", broken.Location)
	assert.Equal(t, "mod.shop", broken.Symbol)
}

func TestPipelineAcceptsUnionMembers(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.card]
kind = "node"
[schema.payment]
kind = "boundary"
over = ["schema.card"]

[func.charge]
input = ["schema.payment"]
output = ["schema.card"]

[func.settle]
input = ["schema.payment"]
output = ["schema.payment"]

[mod.pay]
schemas = ["schema.card", "schema.payment"]
funcs = ["func.charge", "func.settle"]
pipeline = ["func.charge", "func.settle"]
`})
	assert.Empty(t, diags)
}

func TestPipelineAcrossFiles(t *testing.T) {
	diags := run(t, map[string]string{
		"a.toml": `namespace = "core"
[schema.id]
kind = "value"
[func.make]
output = ["schema.id"]
`,
		"b.toml": `[func.use]
input = ["core.schema.id"]
[mod.app]
pipeline = ["core.func.make", "func.use"]
`,
	})
	assert.Empty(t, diags)
}

func TestPipelineDuplicateStep(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.x]
kind = "node"
[func.loop]
input = ["schema.x"]
output = ["schema.x"]
[mod.m]
schemas = ["schema.x"]
funcs = ["func.loop"]
pipeline = ["func.loop", "func.loop"]
`})
	assert.Equal(t, map[string]int{diag.CodePipelineDuplicateStep: 1}, codes(diags))
}

func TestUnusedListings(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.user]
kind = "node"
fields = { address = "schema.address" }
[schema.address]
kind = "value"
[schema.stray]
kind = "node"

[func.save]
input = ["schema.user"]
output = ["schema.user"]
[func.extra]
input = ["schema.user"]

[mod.users]
schemas = ["schema.user", "schema.address", "schema.stray"]
funcs = ["func.save", "func.extra"]
pipeline = ["func.save"]
`})
	unused := diag.WithCode(diags, diag.CodeUnusedSymbol)
	require.Len(t, unused, 2)
	var messages []string
	for _, d := range unused {
		messages = append(messages, d.Message)
	}
	assert.Contains(t, messages[0]+messages[1], "schema.stray")
	assert.Contains(t, messages[0]+messages[1], "func.extra")
}

func TestInvalidFieldTypes(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.user]
kind = "node"
fields = { ok = "array<string>", bad = "map<string,int>" }
`})
	invalid := diag.WithCode(diags, diag.CodeInvalidType)
	require.Len(t, invalid, 1)
	assert.Equal(t, "field:bad", invalid[0].Location)
	assert.Equal(t, 3, invalid[0].Line)
}

func TestStatusRules(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[mod.api]
purpose = "x"

[status.mod.api]
state = "finished"
coverage = 1.5

[status.mod.ghost]
state = "done"
`})
	assert.Equal(t, map[string]int{
		diag.CodeInvalidStatus:       2,
		diag.CodeUnknownStatusModule: 1,
	}, codes(diags))
}

func TestRulesRunAfterResolutionFailures(t *testing.T) {
	diags := run(t, map[string]string{"a.toml": `[schema.link]
kind = "edge"
from = "schema.nowhere"

[func.f]
input = ["schema.gone"]
`})
	got := codes(diags)
	assert.Equal(t, 2, got[diag.CodeUnresolvedRef])
	assert.Equal(t, 1, got[diag.CodeEdgeEndpointMissing])
}

func TestProjectOutputDoesNotDependOnWorkers(t *testing.T) {
	files := map[string]string{
		"a.toml": "[schema.a]\nkind = \"value\"\n[func.f]\ninput = [\"schema.a\", \"schema.gone\"]\n",
		"b.toml": "[func.g]\noutput = [\"schema.missing\"]\n",
		"c.toml": "[mod.m]\nfuncs = [\"func.f\"]\npipeline = [\"func.f\", \"func.nope\"]\n",
	}
	serial := runWorkers(t, files, 1)
	require.NotEmpty(t, serial)
	for _, workers := range []int{0, 2, 8} {
		assert.Equal(t, serial, runWorkers(t, files, workers), "workers=%d", workers)
	}
}
