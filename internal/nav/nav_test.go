package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/resolve"
)

const ordersSource = `[schema.order]
kind = "node"
fields = { id = "uuid", lines = "array<schema.line>" }

[schema.line]
kind = "value"
fields = { sku = "string" }

[schema.receipt]
kind = "value"

[schema.unrelated]
kind = "value"

[func.place]
intent = "place an order"
input = ["schema.line"]
output = ["schema.order"]

[func.charge]
intent = "charge the card"
input = ["schema.order"]
output = ["schema.receipt", "schema.ghost"]

[mod.orders]
purpose = "order intake"
schemas = ["schema.order", "schema.line", "schema.receipt"]
funcs = ["func.place", "func.charge"]
pipeline = ["func.place", "func.charge"]
requires = ["mod.ledger"]
boundary = { http = "POST /orders" }

[mod.ledger]
purpose = "bookkeeping"
schemas = ["schema.receipt"]
boundary = { db = "postgres" }

[status]
updated_at = "2026-01-02"

[status.mod.orders]
state = "partial"
coverage = 0.5
notes = "charging stubbed"
`

func newProject(t *testing.T, files map[string]string) *project.Project {
	t.Helper()
	var docs []*document.Document
	for path, src := range files {
		doc, err := document.Parse(path, []byte(src))
		require.NoError(t, err, path)
		docs = append(docs, doc)
	}
	p, err := project.FromDocuments(context.Background(), nil, docs, project.Options{})
	require.NoError(t, err)
	return p
}

func names(rs []SymbolRecord) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func edgeNames(es []EdgeRecord) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Symbol.Name)
	}
	return out
}

func TestClosureIsCompleteAndMinimal(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	root, err := p.Find("mod.orders")
	require.NoError(t, err)

	res := Closure(p, root)
	assert.Equal(t, []string{"schema.line", "schema.order", "schema.receipt"}, names(res.Schemas))
	assert.Equal(t, []string{"func.charge", "func.place"}, names(res.Funcs))
	assert.Equal(t, []string{"mod.orders"}, names(res.Mods), "requires are not followed")
	assert.NotContains(t, names(res.Schemas), "schema.unrelated")

	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, UnresolvedRef{From: "func.charge", Relation: resolve.RelOutput, Raw: "schema.ghost"}, res.Unresolved[0])
	assert.Equal(t, root.ID, res.IDs[0])
}

func TestClosureFollowsFieldTypes(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	order, err := p.Find("schema.order")
	require.NoError(t, err)

	res := Closure(p, order)
	assert.Equal(t, []string{"schema.line", "schema.order"}, names(res.Schemas))
	assert.Empty(t, res.Funcs)
	assert.Empty(t, res.Unresolved)
}

func TestReferrersCarryRelation(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	receipt, err := p.Find("schema.receipt")
	require.NoError(t, err)

	refs := Referrers(p, receipt)
	require.Len(t, refs, 3)
	assert.Equal(t, "func.charge", refs[0].Symbol.Name)
	assert.Equal(t, resolve.RelOutput, refs[0].Relation)
	assert.Equal(t, []string{"func.charge", "mod.ledger", "mod.orders"}, edgeNames(refs))
	for _, r := range refs[1:] {
		assert.Equal(t, resolve.RelSchemas, r.Relation)
	}

	unrelated, err := p.Find("schema.unrelated")
	require.NoError(t, err)
	assert.Empty(t, Referrers(p, unrelated))
}

func TestTraceModule(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	orders, err := p.Find("mod.orders")
	require.NoError(t, err)

	res := Trace(p, orders)
	assert.Empty(t, res.Upstream)
	assert.Equal(t, []string{"mod.ledger"}, edgeNames(res.Downstream))
	require.Len(t, res.Shared, 1)
	assert.Equal(t, "mod.ledger", res.Shared[0].Symbol.Name)
	assert.Equal(t, []string{"schema.receipt"}, res.Shared[0].Via)

	ledger, err := p.Find("mod.ledger")
	require.NoError(t, err)
	assert.Equal(t, []string{"mod.orders"}, edgeNames(Trace(p, ledger).Upstream))
}

func TestTraceSchemaAndFunc(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	order, err := p.Find("schema.order")
	require.NoError(t, err)

	res := Trace(p, order)
	assert.Equal(t, []string{"func.place"}, names(res.Producers))
	assert.Equal(t, []string{"func.charge"}, names(res.Consumers))

	charge, err := p.Find("func.charge")
	require.NoError(t, err)
	res = Trace(p, charge)
	require.Len(t, res.Upstream, 1)
	assert.Equal(t, "func.place", res.Upstream[0].Symbol.Name)
	assert.Equal(t, []string{"schema.order"}, res.Upstream[0].Via)
	assert.Empty(t, res.Downstream)
}

func TestInspectModule(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	orders, err := p.Find("mod.orders")
	require.NoError(t, err)

	view := Inspect(p, orders)
	assert.Equal(t, "order intake", view.Purpose)
	require.Len(t, view.Schemas, 3)
	assert.Equal(t, "schema.order", view.Schemas[0].Name)
	assert.Equal(t, []string{"func.place"}, names(view.Schemas[0].Producers))
	assert.Equal(t, []string{"func.charge"}, names(view.Schemas[0].Consumers))

	require.Len(t, view.Funcs, 2)
	assert.Equal(t, "place an order", view.Funcs[0].Intent)
	assert.Equal(t, []string{"schema.line"}, names(view.Funcs[0].Inputs))
	require.Len(t, view.Pipeline, 2)
	assert.Equal(t, "func.charge", view.Pipeline[1].Name)

	assert.Equal(t, []string{"mod.ledger"}, view.Requires)
	assert.Empty(t, view.Dependents)
	require.Len(t, view.Boundary, 1)
	assert.Equal(t, "http", view.Boundary[0].Name)

	require.NotNil(t, view.Status)
	assert.Equal(t, "partial", view.Status.State)
	require.NotNil(t, view.Status.Coverage)
	assert.InDelta(t, 0.5, *view.Status.Coverage, 1e-9)
	assert.Equal(t, "2026-01-02", view.Status.UpdatedAt)

	ledger, err := p.Find("mod.ledger")
	require.NoError(t, err)
	assert.Nil(t, Inspect(p, ledger).Status)
}
