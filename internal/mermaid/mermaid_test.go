package mermaid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/depgraph"
	"github.com/morozRed/blueprint/internal/deploy"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/project"
)

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

func TestPipelineLabelsCommonSchemas(t *testing.T) {
	p := newProject(t, map[string]string{"api.toml": `[schema.user]
kind = "node"

[schema.receipt]
kind = "value"

[func.create_user]
intent = "Create a user"
input = ["schema.user"]
output = ["schema.user"]

[func.save_user]
input = ["schema.user"]
output = ["schema.user"]

[func.notify]
input = ["schema.receipt"]

[mod.api]
schemas = ["schema.user", "schema.receipt"]
funcs = ["func.create_user", "func.save_user", "func.notify"]
pipeline = ["func.create_user", "func.save_user", "func.notify"]
`})
	mod, err := p.Find("mod.api")
	require.NoError(t, err)

	out := Pipeline(p, mod)
	assert.Contains(t, out, "title: Pipeline - api\n")
	assert.Contains(t, out, "flowchart LR\n")
	assert.Contains(t, out, `f0["create_user<br/><small>Create a user</small>"]`)
	assert.Contains(t, out, "f0 -->|user| f1")
	assert.Contains(t, out, "f1 -.->|⚠ no common schema| f2")
}

func TestModuleDependenciesMarksMissingRequires(t *testing.T) {
	p := newProject(t, map[string]string{
		"a.toml": "[mod.alpha]\nrequires = [\"mod.beta\", \"mod.ghost\"]\n",
		"b.toml": "[mod.beta]\npurpose = \"test\"\n",
	})
	out := ModuleDependencies(p)
	assert.Contains(t, out, "flowchart TD\n")
	assert.Contains(t, out, `mod_alpha["alpha"]`)
	assert.Contains(t, out, "mod_alpha --> mod_beta\n")
	assert.Contains(t, out, `missing_mod_ghost["mod.ghost⚠"]:::error`)
	assert.Contains(t, out, "mod_alpha --> missing_mod_ghost\n")
}

func TestSchemaGraph(t *testing.T) {
	p := newProject(t, map[string]string{"s.toml": `[schema.user]
kind = "node"
role = "data"

[schema.post]
kind = "node"
role = "data"

[schema.user_posts]
kind = "edge"
from = "schema.user"
to = "schema.post"

[schema.api]
kind = "boundary"
over = ["schema.user"]
`})
	out := SchemaGraph(p)
	assert.Contains(t, out, `schema_user["user<br/><small>node/data</small>"]:::node`)
	assert.Contains(t, out, "schema_user -.->|user_posts| schema_post\n")
	assert.Contains(t, out, "schema_api -.-> schema_user\n")
	assert.Contains(t, out, "classDef boundary")
}

func TestPackageGraph(t *testing.T) {
	g := depgraph.New()
	g.AddEdge("api", "core")
	g.AddNode("tools")
	assert.Equal(t, "graph TD\n    api[api] --> core[core]\n    tools[tools]\n", PackageGraph(g))
}

func TestDeployPipelineStylesTargets(t *testing.T) {
	f, err := deploy.Parse("deploy.toml", []byte(`[deploy.pipeline]
name = "webapp"

[deploy.target.prod]
kind = "production"

[deploy.target.stage]
kind = "staging"

[deploy.job.build]
requires = []
runs = ["make"]

[deploy.job.preview]
requires = ["job.build"]
runs = ["deploy preview"]
uses_target = "target.stage"

[deploy.job.release]
requires = ["job.preview"]
runs = ["deploy"]
uses_target = "target.prod"
side_effects = ["db_migration"]
`))
	require.NoError(t, err)

	out := DeployPipeline(f)
	assert.Contains(t, out, "title: Deploy Pipeline - webapp\n")
	assert.Contains(t, out, `preview["preview<br/><small>target: stage</small>"]:::staging`)
	assert.Contains(t, out, `release["release<br/><small>target: prod</small><br/><small>⚠ db_migration</small>"]:::prod`)
	assert.Contains(t, out, "build --> preview\n")
	assert.Contains(t, out, "preview --> release\n")

	empty := DeployPipeline(&deploy.File{})
	assert.Contains(t, empty, "empty[No jobs defined]")
}
