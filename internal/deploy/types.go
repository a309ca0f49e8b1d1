// Package deploy parses deployment descriptions ([deploy.*] sections) and
// checks the job graph and its safety rules.
package deploy

import "strings"

type Pipeline struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Target struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Domain string `json:"domain,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Production reports whether jobs on this target need a gate and a
// rollback plan.
func (t *Target) Production() bool {
	kind := strings.ToLower(strings.TrimSpace(t.Kind))
	return kind == "production" || kind == "prod"
}

type Job struct {
	Name         string   `json:"name"`
	Requires     []string `json:"requires"`
	Runs         []string `json:"runs"`
	UsesTarget   string   `json:"uses_target,omitempty"`
	NeedsSecrets []string `json:"needs_secrets,omitempty"`
	UsesPerm     string   `json:"uses_perm,omitempty"`
	Produces     []string `json:"produces,omitempty"`
	SideEffects  []string `json:"side_effects,omitempty"`
	Line         int      `json:"line,omitempty"`
	Order        int      `json:"-"`
}

type Artifact struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	Repo string `json:"repo,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

type Secret struct {
	Name  string   `json:"name"`
	Scope []string `json:"scope,omitempty"`
}

type Perm struct {
	Name   string   `json:"name"`
	Role   string   `json:"role,omitempty"`
	Allows []string `json:"allows,omitempty"`
}

type Release struct {
	Strategy    string `json:"strategy"`
	HealthCheck string `json:"health_check,omitempty"`
}

type Gate struct {
	RequireManualApprovalFor []string `json:"require_manual_approval_for"`
	Line                     int      `json:"-"`
}

// Approves reports whether target (with or without its "target." prefix)
// needs manual approval.
func (g *Gate) Approves(target string) bool {
	if g == nil {
		return false
	}
	name := TargetName(target)
	for _, entry := range g.RequireManualApprovalFor {
		if TargetName(entry) == name {
			return true
		}
	}
	return false
}

type Rollback struct {
	On       []string `json:"on,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
}

// File is one deployment description. Entity lists keep declaration order.
type File struct {
	Path      string      `json:"path"`
	Pipeline  *Pipeline   `json:"pipeline,omitempty"`
	Targets   []*Target   `json:"targets"`
	Jobs      []*Job      `json:"jobs"`
	Artifacts []*Artifact `json:"artifacts,omitempty"`
	Secrets   []*Secret   `json:"secrets,omitempty"`
	Perms     []*Perm     `json:"perms,omitempty"`
	Release   *Release    `json:"release,omitempty"`
	Gate      *Gate       `json:"gate,omitempty"`
	Rollback  *Rollback   `json:"rollback,omitempty"`
}

func (f *File) Job(name string) *Job {
	name = strings.TrimPrefix(name, "job.")
	for _, j := range f.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

func (f *File) Target(name string) *Target {
	name = TargetName(name)
	for _, t := range f.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (f *File) Secret(name string) *Secret {
	name = strings.TrimPrefix(name, "secret.")
	for _, s := range f.Secrets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (f *File) Perm(name string) *Perm {
	name = strings.TrimPrefix(name, "perm.")
	for _, p := range f.Perms {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (f *File) Artifact(name string) *Artifact {
	name = strings.TrimPrefix(name, "artifact.")
	for _, a := range f.Artifacts {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// TargetName strips the "target." prefix.
func TargetName(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "target.")
}

// JobName strips the "job." prefix.
func JobName(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), "job.")
}
