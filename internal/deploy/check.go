package deploy

import (
	"fmt"
	"strings"

	"github.com/morozRed/blueprint/internal/depgraph"
	"github.com/morozRed/blueprint/internal/diag"
)

// Side effects that must run against a gated target.
var gatedSideEffects = map[string]bool{
	"db_migration":     true,
	"schema_migration": true,
	"data_migration":   true,
	"data_deletion":    true,
}

var advisorySideEffects = map[string]bool{
	"release":            true,
	"cache_invalidation": true,
	"notification":       true,
	"artifact_publish":   true,
}

type checker struct {
	file  *File
	diags []diag.Diagnostic
}

// Check runs every deploy rule over f. The result is sorted.
func Check(f *File) []diag.Diagnostic {
	c := &checker{file: f}
	c.references()
	c.jobGraph()
	c.secretScope()
	c.production()
	c.release()
	c.sideEffects()
	diag.Sort(c.diags)
	return diag.Dedupe(c.diags)
}

// JobGraph returns the graph of jobs with an edge from each job to every
// defined job it requires.
func JobGraph(f *File) *depgraph.Graph {
	g := depgraph.New()
	for _, job := range f.Jobs {
		g.AddNode(job.Name)
	}
	for _, job := range f.Jobs {
		for _, req := range job.Requires {
			if dep := f.Job(JobName(req)); dep != nil {
				g.AddEdge(job.Name, dep.Name)
			}
		}
	}
	return g
}

// EntryPoints are jobs with no requires, in declaration order.
func EntryPoints(f *File) []string {
	var out []string
	for _, job := range f.Jobs {
		if len(job.Requires) == 0 {
			out = append(out, job.Name)
		}
	}
	return out
}

func (c *checker) report(d diag.Diagnostic, job *Job, location string) {
	d.File = c.file.Path
	d.Location = location
	if job != nil {
		d.Symbol = "job." + job.Name
		d.Line = job.Line
		d.Order = job.Order
	}
	c.diags = append(c.diags, d)
}

func (c *checker) references() {
	f := c.file
	for _, job := range f.Jobs {
		for _, req := range job.Requires {
			if strings.TrimSpace(req) != "" && f.Job(JobName(req)) == nil {
				c.report(diag.Errorf(diag.CodeUndefinedJob,
					fmt.Sprintf("job %s requires undefined job %q", job.Name, req)), job, "requires")
			}
		}
		if job.UsesTarget != "" && f.Target(job.UsesTarget) == nil {
			c.report(diag.Errorf(diag.CodeUndefinedTarget,
				fmt.Sprintf("job %s uses undefined target %q", job.Name, job.UsesTarget)), job, "uses_target")
		}
		for _, secret := range job.NeedsSecrets {
			if f.Secret(secret) == nil {
				c.report(diag.Errorf(diag.CodeUndefinedSecret,
					fmt.Sprintf("job %s needs undefined secret %q", job.Name, secret)), job, "needs_secrets")
			}
		}
		if job.UsesPerm != "" && f.Perm(job.UsesPerm) == nil {
			c.report(diag.Errorf(diag.CodeUndefinedPerm,
				fmt.Sprintf("job %s uses undefined permission %q", job.Name, job.UsesPerm)), job, "uses_perm")
		}
		for _, artifact := range job.Produces {
			if f.Artifact(artifact) == nil {
				c.report(diag.Warnf(diag.CodeUndefinedArtifact,
					fmt.Sprintf("job %s produces undefined artifact %q", job.Name, artifact)), job, "produces")
			}
		}
	}
}

func (c *checker) jobGraph() {
	f := c.file
	g := JobGraph(f)
	for _, cycle := range g.Cycles() {
		d := diag.Errorf(diag.CodeCircularDependency, "job dependency cycle: "+cycle.String())
		d.Path = cycle
		c.report(d, f.Job(cycle[0]), "requires")
	}

	if len(f.Jobs) == 0 {
		return
	}
	entries := EntryPoints(f)
	if len(entries) == 0 {
		c.report(diag.Errorf(diag.CodeNoEntryPoint, "no entry point: every job requires another job"), nil, "job")
		return
	}
	reachable := g.ReachableReverse(entries...)
	for _, job := range f.Jobs {
		if !reachable[job.Name] {
			c.report(diag.Warnf(diag.CodeUnreachableJob,
				fmt.Sprintf("job %s is not reachable from any entry point", job.Name)), job, "")
		}
	}
}

func (c *checker) secretScope() {
	f := c.file
	for _, job := range f.Jobs {
		if job.UsesTarget == "" {
			continue
		}
		target := TargetName(job.UsesTarget)
		for _, ref := range job.NeedsSecrets {
			secret := f.Secret(ref)
			if secret == nil || len(secret.Scope) == 0 || inScope(secret.Scope, target) {
				continue
			}
			c.report(diag.Errorf(diag.CodeSecretScope,
				fmt.Sprintf("job %s uses secret %s, which is not scoped to target.%s", job.Name, secret.Name, target)), job, "needs_secrets")
		}
	}
}

func inScope(scope []string, target string) bool {
	for _, s := range scope {
		if TargetName(s) == target {
			return true
		}
	}
	return false
}

func (c *checker) production() {
	f := c.file
	needsRollback := false
	for _, job := range f.Jobs {
		target := f.Target(job.UsesTarget)
		if job.UsesTarget == "" || target == nil || !target.Production() {
			continue
		}
		needsRollback = true
		if !f.Gate.Approves(target.Name) {
			c.report(diag.Errorf(diag.CodeNoProductionGate,
				fmt.Sprintf("job %s deploys to production target.%s without a manual approval gate", job.Name, target.Name)), job, "uses_target")
		}
	}
	if needsRollback && f.Rollback == nil {
		c.report(diag.Errorf(diag.CodeNoProductionRollback, "production jobs require a [deploy.rollback] section"), nil, "rollback")
	}
}

func (c *checker) release() {
	f := c.file
	if f.Release == nil {
		for _, job := range f.Jobs {
			if containsString(job.SideEffects, "release") {
				c.report(diag.Warnf(diag.CodeReleaseNoStrategy,
					fmt.Sprintf("job %s has a release side effect but no [deploy.release] section", job.Name)), job, "side_effects")
			}
		}
		return
	}
	switch f.Release.Strategy {
	case "canary", "blue_green":
		if f.Release.HealthCheck == "" {
			c.report(diag.Warnf(diag.CodeMissingHealthCheck,
				fmt.Sprintf("release strategy %s has no health_check", f.Release.Strategy)), nil, "release")
		}
	}
}

func (c *checker) sideEffects() {
	f := c.file
	for _, job := range f.Jobs {
		for _, effect := range job.SideEffects {
			switch {
			case gatedSideEffects[effect]:
				if job.UsesTarget == "" {
					c.report(diag.Errorf(diag.CodeSideEffectNoTarget,
						fmt.Sprintf("job %s has side effect %s but no uses_target", job.Name, effect)), job, "side_effects")
					continue
				}
				if !f.Gate.Approves(job.UsesTarget) {
					c.report(diag.Errorf(diag.CodeUngatedSideEffect,
						fmt.Sprintf("job %s has side effect %s but target.%s is not gated", job.Name, effect, TargetName(job.UsesTarget))), job, "side_effects")
				}
			case advisorySideEffects[effect]:
			default:
				c.report(diag.Warnf(diag.CodeUnknownSideEffect,
					fmt.Sprintf("job %s declares unknown side effect %q", job.Name, effect)), job, "side_effects")
			}
		}
	}
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
