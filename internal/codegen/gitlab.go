package codegen

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/morozRed/blueprint/internal/deploy"
)

const gitlabImage = "ubuntu:latest"

// Stages in pipeline order.
var gitlabStages = []string{"build", "test", "deploy"}

// GitLabCI renders f as a .gitlab-ci.yml. Production jobs run manually on
// main when the target is gated.
func GitLabCI(f *deploy.File) ([]byte, error) {
	order, err := JobOrder(f)
	if err != nil {
		return nil, err
	}

	root := mapping()
	root.HeadComment = header(f)
	set(root, "stages", sequence(Stages(f)...))
	set(root, "variables", mapping(scalar("GIT_DEPTH"), scalar("1")))
	for _, name := range order {
		set(root, JobKey(name), gitlabJob(f, f.Job(name)))
	}
	return encode(root)
}

// Stages lists the stages used by f's jobs, in pipeline order.
func Stages(f *deploy.File) []string {
	used := make(map[string]bool)
	for _, job := range f.Jobs {
		used[StageOf(job)] = true
	}
	var out []string
	for _, s := range gitlabStages {
		if used[s] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		out = append(out, "build")
	}
	return out
}

// StageOf places a job by name first, then by whether it deploys.
func StageOf(job *deploy.Job) string {
	switch {
	case strings.Contains(job.Name, "build"):
		return "build"
	case strings.Contains(job.Name, "test"):
		return "test"
	case job.UsesTarget != "" || strings.Contains(job.Name, "deploy"):
		return "deploy"
	case len(job.Requires) == 0:
		return "build"
	default:
		return "deploy"
	}
}

func gitlabJob(f *deploy.File, job *deploy.Job) *yaml.Node {
	out := mapping()
	set(out, "stage", scalar(StageOf(job)))
	set(out, "image", scalar(gitlabImage))

	target := f.Target(job.UsesTarget)
	if job.UsesTarget == "" {
		target = nil
	}
	if target != nil && target.Kind != "" {
		set(out, "tags", sequence(strings.ToLower(target.Kind)))
	}
	if deps := needs(job); len(deps) > 0 {
		set(out, "needs", sequence(deps...))
	}
	if secrets := secretNames(job); len(secrets) > 0 {
		vars := mapping()
		for _, s := range secrets {
			set(vars, s, scalar("$"+s))
		}
		set(out, "variables", vars)
	}
	set(out, "script", sequence(job.Runs...))

	if target != nil && target.Production() {
		if f.Gate.Approves(target.Name) {
			set(out, "when", scalar("manual"))
		}
		set(out, "only", sequence("main"))
	}
	if len(job.Produces) > 0 {
		paths := make([]string, 0, len(job.Produces))
		for _, a := range job.Produces {
			paths = append(paths, "build/"+strings.TrimPrefix(a, "artifact."))
		}
		set(out, "artifacts", mapping(scalar("paths"), sequence(paths...)))
	}
	return out
}
