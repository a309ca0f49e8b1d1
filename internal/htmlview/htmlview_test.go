package htmlview

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/deploy"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
)

const shopSource = `namespace = "shop"

[schema.user]
kind = "node"
fields = { id = "uuid", home = "schema.address" }

[schema.address]
kind = "value"

[schema.follows]
kind = "edge"
from = "schema.user"
to = "schema.user"

[func.register]
intent = "sign a user up"
input = ["schema.address"]
output = ["schema.user", "schema.ghost"]

[mod.accounts]
purpose = "user accounts"
schemas = ["schema.user"]
funcs = ["func.register"]
pipeline = ["func.register"]
requires = ["mod.mail"]

[mod.mail]
purpose = "outbound mail"
`

const deploySource = `[deploy.pipeline]
name = "web"
description = "ships <the> site"

[deploy.target.prod]
kind = "production"
domain = "example.com"

[deploy.job.build]
runs = ["make build"]
produces = ["artifact.image"]

[deploy.job.release]
requires = ["job.build", "job.ghost"]
runs = ["make deploy"]
uses_target = "target.prod"
needs_secrets = ["secret.TOKEN"]
side_effects = ["release"]
`

func shopProject(t *testing.T) *project.Project {
	t.Helper()
	doc, err := document.Parse("shop.toml", []byte(shopSource))
	require.NoError(t, err)
	p, err := project.FromDocuments(context.Background(), nil, []*document.Document{doc}, project.Options{})
	require.NoError(t, err)
	return p
}

func TestProjectGraph(t *testing.T) {
	g := Project(shopProject(t), "shop")

	ids := make(map[string]Node)
	for _, n := range g.Nodes {
		ids[n.ID] = n
	}
	require.Len(t, ids, 6)
	assert.Equal(t, "edge", ids["shop.schema.follows"].Group)
	assert.Equal(t, "user", ids["shop.schema.user"].Label)
	assert.ElementsMatch(t, []Field{{Name: "id", Type: "uuid"}, {Name: "home", Type: "schema.address"}}, ids["shop.schema.user"].Metadata.Fields)
	assert.Equal(t, "sign a user up", ids["shop.func.register"].Metadata.Intent)
	assert.Equal(t, "mod", ids["shop.mod.mail"].Group)

	assert.Contains(t, g.Links, Link{Source: "shop.schema.user", Target: "shop.schema.follows", Label: "from", Type: LinkEdgeFrom})
	assert.Contains(t, g.Links, Link{Source: "shop.schema.follows", Target: "shop.schema.user", Label: "to", Type: LinkEdgeTo})
	assert.Contains(t, g.Links, Link{Source: "shop.schema.user", Target: "shop.schema.address", Label: "home", Type: LinkField})
	assert.Contains(t, g.Links, Link{Source: "shop.schema.address", Target: "shop.func.register", Label: "input", Type: LinkFuncInput})
	assert.Contains(t, g.Links, Link{Source: "shop.func.register", Target: "shop.schema.user", Label: "output", Type: LinkFuncOutput})
	assert.Contains(t, g.Links, Link{Source: "shop.mod.accounts", Target: "shop.func.register", Label: "uses", Type: LinkModFunc})
	assert.Contains(t, g.Links, Link{Source: "shop.mod.accounts", Target: "shop.mod.mail", Label: "requires", Type: LinkModRequire})

	for _, l := range g.Links {
		assert.NotContains(t, l.Target, "ghost", "unresolved references draw nothing")
	}
}

func TestDeployGraph(t *testing.T) {
	f, err := deploy.Parse("deploy.toml", []byte(deploySource))
	require.NoError(t, err)

	g := Deploy(f)
	assert.Equal(t, "Deploy Pipeline - web", g.Title)
	require.Len(t, g.Nodes, 2)
	assert.Equal(t, "default", g.Nodes[0].Group)
	release := g.Nodes[1]
	assert.Equal(t, "production", release.Group)
	assert.Equal(t, JobMetadata{
		Target:      "prod",
		TargetKind:  "production",
		Secrets:     []string{"secret.TOKEN"},
		SideEffects: []string{"release"},
		Commands:    []string{"make deploy"},
	}, release.Metadata)
	assert.Equal(t, []Link{{Source: "build", Target: "release", Label: "requires", Type: "dependency"}}, g.Links)
}

// embeddedData pulls the JSON assigned to data out of a rendered page.
func embeddedData(t *testing.T, page string) map[string]any {
	t.Helper()
	_, rest, ok := strings.Cut(page, "const data = ")
	require.True(t, ok, "page embeds its data")
	var data map[string]any
	require.NoError(t, json.NewDecoder(strings.NewReader(rest)).Decode(&data))
	return data
}

func TestWriteProject(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProject(&buf, Project(shopProject(t), "<shop>")))
	page := buf.String()

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>&lt;shop&gt;</title>")
	assert.Contains(t, page, "d3.v7.min.js")
	assert.NotContains(t, page, "<shop>")

	data := embeddedData(t, page)
	assert.Len(t, data["nodes"], 6)
	assert.NotEmpty(t, data["links"])
}

func TestWriteDeploy(t *testing.T) {
	f, err := deploy.Parse("deploy.toml", []byte(deploySource))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDeploy(&buf, Deploy(f)))
	page := buf.String()

	assert.Contains(t, page, "ships &lt;the&gt; site")
	assert.Contains(t, page, "<li>prod (production) example.com</li>")
	data := embeddedData(t, page)
	assert.Len(t, data["nodes"], 2)
	assert.Equal(t, "Deploy Pipeline - web", data["title"])
}
