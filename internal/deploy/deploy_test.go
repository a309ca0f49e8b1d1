package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/blueprint/internal/diag"
)

const sampleDeploy = `[deploy.pipeline]
name = "webapp"
description = "production deploy pipeline"

[deploy.target.prod]
kind = "production"
domain = "example.com"

[deploy.job.build]
requires = []
runs = ["npm ci", "npm run build"]
produces = ["artifact.image"]

[deploy.job.deploy]
requires = ["job.build"]
runs = ["kubectl apply -f deploy.yaml"]
uses_target = "target.prod"
needs_secrets = ["secret.DB_URL"]
side_effects = ["release"]

[deploy.artifact.image]
type = "docker"
repo = "ghcr.io/acme/app"
tag = "git_sha"

[deploy.secret.DB_URL]
scope = ["target.prod"]

[deploy.release]
strategy = "canary"
health_check = "https://{domain}/healthz"

[deploy.gate]
require_manual_approval_for = ["target.prod"]

[deploy.rollback]
on = ["health_fail", "deploy_fail"]
strategy = "revert_traffic"
`

func parse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse("deploy.toml", []byte(src))
	require.NoError(t, err)
	return f
}

func codes(diags []diag.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestParseSample(t *testing.T) {
	f := parse(t, sampleDeploy)

	require.NotNil(t, f.Pipeline)
	assert.Equal(t, "webapp", f.Pipeline.Name)
	require.Len(t, f.Targets, 1)
	assert.True(t, f.Targets[0].Production())
	require.Len(t, f.Jobs, 2)
	assert.Equal(t, "build", f.Jobs[0].Name)

	job := f.Job("job.deploy")
	require.NotNil(t, job)
	assert.Equal(t, []string{"job.build"}, job.Requires)
	assert.Equal(t, "target.prod", job.UsesTarget)
	assert.Equal(t, []string{"secret.DB_URL"}, job.NeedsSecrets)
	assert.Equal(t, 2, job.Order)

	require.NotNil(t, f.Release)
	require.NotNil(t, f.Gate)
	require.NotNil(t, f.Rollback)
	assert.Equal(t, "revert_traffic", f.Rollback.Strategy)
}

func TestParseRequiresDeploySection(t *testing.T) {
	_, err := Parse("x.toml", []byte("[mod.a]\npurpose = \"x\"\n"))
	assert.ErrorIs(t, err, ErrNoDeploySection)
}

func TestValidDeployHasNoFindings(t *testing.T) {
	assert.Empty(t, Check(parse(t, sampleDeploy)))
}

func TestUndefinedReferences(t *testing.T) {
	f := parse(t, `[deploy.job.build]
requires = []
runs = ["make"]
produces = ["artifact.missing"]

[deploy.job.ship]
requires = ["job.nonexistent", "job.build"]
uses_target = "target.nowhere"
needs_secrets = ["secret.NOPE"]
uses_perm = "perm.admin"
`)
	diags := Check(f)
	for _, code := range []string{
		diag.CodeUndefinedJob,
		diag.CodeUndefinedTarget,
		diag.CodeUndefinedSecret,
		diag.CodeUndefinedPerm,
		diag.CodeUndefinedArtifact,
	} {
		assert.Len(t, diag.WithCode(diags, code), 1, code)
	}
	undefined := diag.WithCode(diags, diag.CodeUndefinedJob)[0]
	assert.Equal(t, "job.ship", undefined.Symbol)
	assert.Equal(t, "requires", undefined.Location)
	assert.Equal(t, 6, undefined.Line)
	assert.False(t, diag.WithCode(diags, diag.CodeUndefinedArtifact)[0].IsError())
}

func TestJobCycleAndNoEntryPoint(t *testing.T) {
	f := parse(t, `[deploy.job.a]
requires = ["job.b"]

[deploy.job.b]
requires = ["job.c"]

[deploy.job.c]
requires = ["job.a"]
`)
	diags := Check(f)
	cycles := diag.WithCode(diags, diag.CodeCircularDependency)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0].Path)
	assert.Len(t, diag.WithCode(diags, diag.CodeNoEntryPoint), 1)
	assert.Empty(t, diag.WithCode(diags, diag.CodeUnreachableJob))
}

func TestUnreachableJob(t *testing.T) {
	f := parse(t, `[deploy.job.build]
requires = []

[deploy.job.test]
requires = ["job.build"]

[deploy.job.orphan]
requires = ["job.nonexistent"]
`)
	diags := Check(f)
	unreachable := diag.WithCode(diags, diag.CodeUnreachableJob)
	require.Len(t, unreachable, 1)
	assert.Equal(t, "job.orphan", unreachable[0].Symbol)
	assert.Equal(t, []string{"build"}, EntryPoints(f))
}

func TestSecretScope(t *testing.T) {
	f := parse(t, `[deploy.target.prod]
kind = "production"

[deploy.target.staging]
kind = "staging"

[deploy.secret.DB_URL]
scope = ["target.prod"]

[deploy.secret.OPEN]

[deploy.job.deploy_staging]
requires = []
uses_target = "target.staging"
needs_secrets = ["secret.DB_URL", "secret.OPEN"]
`)
	violations := diag.WithCode(Check(f), diag.CodeSecretScope)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "DB_URL")
	assert.Equal(t, "needs_secrets", violations[0].Location)
}

func TestProductionNeedsGateAndRollback(t *testing.T) {
	f := parse(t, `[deploy.target.prod]
kind = "prod"

[deploy.job.deploy_prod]
requires = []
uses_target = "target.prod"
`)
	diags := Check(f)
	assert.Len(t, diag.WithCode(diags, diag.CodeNoProductionGate), 1)
	assert.Len(t, diag.WithCode(diags, diag.CodeNoProductionRollback), 1)
}

func TestReleaseRules(t *testing.T) {
	f := parse(t, `[deploy.job.ship]
requires = []
side_effects = ["release", "notification"]
`)
	assert.Equal(t, []string{diag.CodeReleaseNoStrategy}, codes(Check(f)))

	f = parse(t, `[deploy.release]
strategy = "blue_green"

[deploy.job.ship]
requires = []
side_effects = ["release"]
`)
	assert.Equal(t, []string{diag.CodeMissingHealthCheck}, codes(Check(f)))
}

func TestSideEffectStrata(t *testing.T) {
	f := parse(t, `[deploy.target.prod]
kind = "production"

[deploy.target.staging]
kind = "staging"

[deploy.gate]
require_manual_approval_for = ["target.prod"]

[deploy.rollback]
strategy = "revert"

[deploy.job.migrate]
requires = []
uses_target = "target.prod"
side_effects = ["db_migration"]

[deploy.job.migrate_staging]
requires = ["job.migrate"]
uses_target = "target.staging"
side_effects = ["data_deletion"]

[deploy.job.cleanup]
requires = ["job.migrate"]
side_effects = ["schema_migration", "cache_invalidation", "teleport"]
`)
	diags := Check(f)
	ungated := diag.WithCode(diags, diag.CodeUngatedSideEffect)
	require.Len(t, ungated, 1)
	assert.Equal(t, "job.migrate_staging", ungated[0].Symbol)

	noTarget := diag.WithCode(diags, diag.CodeSideEffectNoTarget)
	require.Len(t, noTarget, 1)
	assert.Equal(t, "job.cleanup", noTarget[0].Symbol)

	unknown := diag.WithCode(diags, diag.CodeUnknownSideEffect)
	require.Len(t, unknown, 1)
	assert.Contains(t, unknown[0].Message, "teleport")
	assert.Empty(t, diag.WithCode(diags, diag.CodeNoProductionGate))
}

func TestJobGraphEdges(t *testing.T) {
	g := JobGraph(parse(t, sampleDeploy))
	assert.True(t, g.HasEdge("deploy", "build"))
	assert.False(t, g.HasCycle())
}
