package nav

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteInspect(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	orders, err := p.Find("mod.orders")
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteInspect(&buf, Inspect(p, orders))
	out := buf.String()
	assert.Contains(t, out, "mod.orders (orders.toml:")
	assert.Contains(t, out, "  status: partial coverage=50% notes=charging stubbed\n")
	assert.Contains(t, out, "  schema.order [node]\n    produced by: func.place\n    consumed by: func.charge\n")
	assert.Contains(t, out, "pipeline: func.place -> func.charge\n")
	assert.Contains(t, out, "  http: POST /orders\n")
	assert.Contains(t, out, "requires: mod.ledger\nrequired by: none\n")
	assert.NotContains(t, out, "unresolved")
}

func TestWriteClosureAndTrace(t *testing.T) {
	p := newProject(t, map[string]string{"orders.toml": ordersSource})
	charge, err := p.Find("func.charge")
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteClosure(&buf, Closure(p, charge))
	assert.Contains(t, buf.String(), "closure of func.charge: 3 schemas, 1 funcs, 0 mods\n")
	assert.Contains(t, buf.String(), "unresolved (1):\n  func.charge output -> schema.ghost\n")

	buf.Reset()
	WriteTrace(&buf, Trace(p, charge))
	assert.Contains(t, buf.String(), "upstream:\n  func.place [")
	assert.Contains(t, buf.String(), "via schema.order\n")

	order, err := p.Find("schema.order")
	require.NoError(t, err)
	buf.Reset()
	WriteReferrers(&buf, RecordOf(order), Referrers(p, order))
	assert.Contains(t, buf.String(), "references to schema.order:\n")

	unrelated, err := p.Find("schema.unrelated")
	require.NoError(t, err)
	buf.Reset()
	WriteReferrers(&buf, RecordOf(unrelated), Referrers(p, unrelated))
	assert.Equal(t, "no references to schema.unrelated\n", buf.String())
}
