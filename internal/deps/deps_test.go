package deps

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/manifest"
	"github.com/morozRed/blueprint/internal/project"
)

func shopProject(t *testing.T) *project.Project {
	t.Helper()
	m, err := manifest.Parse([]byte(`[project]
name = "shop"

[packages.core]
root = "core"
namespace = "core"

[packages.api]
root = "api"
namespace = "api"
depends = ["core"]

[packages.billing]
root = "billing"
namespace = "billing"
`))
	require.NoError(t, err)

	sources := map[string]string{
		"core/store.toml":  "[mod.store]\nboundary = { db = \"x\" }\n[mod.cache]\nrequires = [\"mod.store\"]\nboundary = { kv = \"x\" }\n",
		"api/http.toml":    "[mod.http]\nrequires = [\"core.mod.store\", \"billing.mod.charge\"]\nboundary = { http = \"x\" }\n",
		"billing/pay.toml": "[mod.charge]\nboundary = { psp = \"x\" }\n",
	}
	var docs []*document.Document
	for path, src := range sources {
		doc, err := document.Parse(path, []byte(src))
		require.NoError(t, err, path)
		docs = append(docs, doc)
	}
	p, err := project.FromDocuments(context.Background(), m, docs, project.Options{})
	require.NoError(t, err)
	return p
}

func TestPackagesCountModules(t *testing.T) {
	pkgs := Packages(shopProject(t))
	require.Len(t, pkgs, 3)
	assert.Equal(t, Package{Name: "api", Namespace: "api", Root: "api", Depends: []string{"core"}, Modules: 1}, pkgs[0])
	assert.Equal(t, 2, pkgs[2].Modules)

	var buf bytes.Buffer
	WritePackages(&buf, pkgs)
	assert.Contains(t, buf.String(), "api namespace=api root=api modules=1\n  depends: core\n")
}

func TestModuleDepsAnnotatesForeignPackages(t *testing.T) {
	p := shopProject(t)

	store, err := ModuleDeps(p, "core.mod.store")
	require.NoError(t, err)
	assert.Empty(t, store.Dependencies)
	assert.Equal(t, []ModuleRef{{Module: "api.mod.http", Package: "api"}, {Module: "core.mod.cache"}}, store.Dependents)

	var buf bytes.Buffer
	WriteModule(&buf, store)
	assert.Contains(t, buf.String(), "api.mod.http (from api package)")
	assert.Contains(t, buf.String(), "depends on: none")

	_, err = ModuleDeps(p, "mod.nowhere")
	assert.Error(t, err)
}

func TestPackageModules(t *testing.T) {
	p := shopProject(t)
	mods, err := PackageModules(p, "core")
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "core.mod.cache", mods[0].Module)
	assert.Equal(t, []ModuleRef{{Module: "core.mod.store"}}, mods[0].Dependencies)

	_, err = PackageModules(p, "ghost")
	assert.Error(t, err)
}

func TestCrossEdges(t *testing.T) {
	edges := Cross(shopProject(t))
	assert.Equal(t, []CrossEdge{
		{FromPackage: "api", From: "api.mod.http", ToPackage: "billing", To: "billing.mod.charge"},
		{FromPackage: "api", From: "api.mod.http", ToPackage: "core", To: "core.mod.store"},
	}, edges)

	var buf bytes.Buffer
	WriteCross(&buf, edges)
	assert.Equal(t, "api:api.mod.http → billing:billing.mod.charge\napi:api.mod.http → core:core.mod.store\n", buf.String())
}
