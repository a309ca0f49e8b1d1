package tomltree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `namespace = "billing"
import = ["core as c"]

[schema.invoice]
kind = "node"
fields = { id = "uuid", total = "float", lines = "array<schema.line>" }
impl.bind = "Invoice"

[schema.line]
kind = "value"

[func.issue]
input = ["schema.invoice"]
output = ["schema.invoice"]

[status.mod.billing]
state = "partial"
coverage = 0.5
`

func TestParseKeepsDeclarationOrder(t *testing.T) {
	root, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"namespace", "import", "schema", "func", "status"}, root.Keys())

	schemas, ok := root.Table("schema")
	require.True(t, ok)
	assert.Equal(t, []string{"invoice", "line"}, schemas.Keys())

	invoice, ok := schemas.Table("invoice")
	require.True(t, ok)
	assert.Equal(t, 4, invoice.Line)

	fields, ok := invoice.Table("fields")
	require.True(t, ok)
	assert.True(t, fields.Inline)
	assert.Equal(t, []string{"id", "total", "lines"}, fields.Keys())
	assert.Equal(t, 6, invoice.KeyLine("fields"))

	impl, ok := invoice.Table("impl")
	require.True(t, ok)
	bind, ok := impl.String("bind")
	require.True(t, ok)
	assert.Equal(t, "Invoice", bind)
}

func TestParseScalarsAndLines(t *testing.T) {
	root, err := Parse([]byte(sample))
	require.NoError(t, err)

	ns, ok := root.String("namespace")
	require.True(t, ok)
	assert.Equal(t, "billing", ns)
	assert.Equal(t, 1, root.KeyLine("namespace"))
	assert.Equal(t, 2, root.KeyLine("import"))
	assert.Equal(t, []string{"core as c"}, root.Strings("import"))

	status, ok := root.Path("status", "mod", "billing")
	require.True(t, ok)
	coverage, ok := status.Number("coverage")
	require.True(t, ok)
	assert.InDelta(t, 0.5, coverage, 1e-9)
	assert.Equal(t, 16, status.Line)
}

func TestParseSyntaxErrorCarriesPosition(t *testing.T) {
	_, err := Parse([]byte("[schema.a]\nkind = \"node\"\nkind = \"edge\"\n"))
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 3, syntaxErr.Line)
}

func TestStringsAcceptsBraceSet(t *testing.T) {
	root, err := Parse([]byte(`schemas = "{ schema.a, \"schema.b\" }"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"schema.a", "schema.b"}, root.Strings("schemas"))
}

func TestParseBraceSet(t *testing.T) {
	cases := map[string][]string{
		`{ "a", "b", "c" }`:  {"a", "b", "c"},
		`{ a, b }`:           {"a", "b"},
		`{ }`:                nil,
		`{ "schema.user" }`:  {"schema.user"},
		`schema.x, schema.y`: {"schema.x", "schema.y"},
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseBraceSet(input), input)
	}
}

func TestEncodeRoundTripsOrder(t *testing.T) {
	root, err := Parse([]byte(sample))
	require.NoError(t, err)

	again, err := Parse(Encode(root))
	require.NoError(t, err)

	assert.Equal(t, root.Keys(), again.Keys())
	invoice, ok := again.Path("schema", "invoice")
	require.True(t, ok)
	fields, ok := invoice.Table("fields")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "total", "lines"}, fields.Keys())
	assert.Equal(t, `"a\"b\\c\n"`, quote("a\"b\\c\n"))
}

func TestSetKeepsPositionOfExistingKey(t *testing.T) {
	table := NewTable()
	table.Set("a", StringValue("1"))
	table.Set("b", StringValue("2"))
	table.Set("a", StringValue("3"))
	table.Delete("b")

	assert.Equal(t, []string{"a"}, table.Keys())
	value, _ := table.String("a")
	assert.Equal(t, "3", value)
}
