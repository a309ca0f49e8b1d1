package nav

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/symbol"
)

const coreSource = `namespace = "core"

[schema.user]
kind = "node"
fields = { id = "uuid", address = "optional<schema.address>" }

[schema.address]
kind = "value"
fields = { city = "string" }
`

const apiSource = `import = ["core as c"]

[func.create]
intent = "create a user"
input = ["c.schema.user"]
output = ["core.schema.user"]

[mod.api]
purpose = "user api"
schemas = ["c.schema.user"]
funcs = ["func.create"]
pipeline = ["func.create"]
`

// rebuild renders ids as a closure document and loads it back as a
// project of its own.
func rebuild(t *testing.T, p *project.Project, ids []symbol.ID) (*document.Document, *project.Project, []diag.Diagnostic) {
	t.Helper()
	doc, renamed := ClosureDocument(p.Table, p.Links, ids)
	reparsed, err := document.Parse("closure.toml", document.Render(doc))
	require.NoError(t, err)
	out, err := project.FromDocuments(context.Background(), nil, []*document.Document{reparsed}, project.Options{})
	require.NoError(t, err)
	return reparsed, out, renamed
}

func TestClosureDocumentResolvesAcrossNamespaces(t *testing.T) {
	p := newProject(t, map[string]string{"core.toml": coreSource, "api.toml": apiSource})
	require.Empty(t, diag.WithCode(p.Diagnostics, diag.CodeUnresolvedRef))
	root, err := p.Find("mod.api")
	require.NoError(t, err)

	res := Closure(p, root)
	doc, out, renamed := rebuild(t, p, res.IDs)
	assert.Empty(t, renamed)
	assert.Empty(t, diag.WithCode(out.Diagnostics, diag.CodeUnresolvedRef))
	assert.False(t, diag.HasErrors(out.Diagnostics), "%v", out.Diagnostics)

	create := doc.Func("create")
	require.NotNil(t, create)
	assert.Equal(t, []string{"schema.user"}, create.Input)
	assert.Equal(t, []string{"schema.user"}, create.Output)
	assert.Equal(t, []string{"schema.user"}, doc.Mod("api").Schemas)

	again, err := out.Find("mod.api")
	require.NoError(t, err)
	assert.Len(t, Closure(out, again).IDs, len(res.IDs), "the copy carries its whole closure")
}

func TestClosureDocumentDropsNoMember(t *testing.T) {
	p := newProject(t, map[string]string{"core.toml": coreSource, "api.toml": apiSource})
	root, err := p.Find("mod.api")
	require.NoError(t, err)
	res := Closure(p, root)
	require.Len(t, res.IDs, 4)

	for i, id := range res.IDs {
		if id == root.ID {
			continue
		}
		name := p.Table.Get(id).Name
		t.Run(name, func(t *testing.T) {
			without := append(append([]symbol.ID(nil), res.IDs[:i]...), res.IDs[i+1:]...)
			_, out, _ := rebuild(t, p, without)
			assert.NotEmpty(t, diag.WithCode(out.Diagnostics, diag.CodeUnresolvedRef),
				"dropping %s leaves a reference dangling", name)
		})
	}
}

func TestClosureDocumentRenamesCollidingLocals(t *testing.T) {
	api := apiSource + `
[schema.user]
kind = "value"
fields = { login = "string" }
`
	api = strings.Replace(api, `input = ["c.schema.user"]`, `input = ["c.schema.user", "schema.user"]`, 1)
	p := newProject(t, map[string]string{"core.toml": coreSource, "api.toml": api})
	require.Empty(t, diag.WithCode(p.Diagnostics, diag.CodeUnresolvedRef))
	create, err := p.Find("func.create")
	require.NoError(t, err)

	res := Closure(p, create)
	doc, out, renamed := rebuild(t, p, res.IDs)
	require.Len(t, renamed, 1)
	assert.Equal(t, diag.CodeClosureRenamed, renamed[0].Code)
	assert.Equal(t, "core.schema.user", renamed[0].Symbol)
	assert.Equal(t, "core.toml", renamed[0].File)

	assert.NotNil(t, doc.Schema("user"))
	assert.NotNil(t, doc.Schema("core_user"))
	assert.Equal(t, []string{"schema.core_user", "schema.user"}, doc.Func("create").Input)
	assert.Equal(t, []string{"schema.core_user"}, doc.Func("create").Output)
	assert.Empty(t, diag.WithCode(out.Diagnostics, diag.CodeUnresolvedRef))

	original, err := p.Find("core.schema.user")
	require.NoError(t, err)
	assert.Equal(t, "user", original.Schema.Name, "the project's own declarations are untouched")
}
