package codegen

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/morozRed/blueprint/internal/deploy"
)

const (
	githubRunner   = "ubuntu-latest"
	checkoutAction = "actions/checkout@v4"
)

// GitHubActions renders f as a workflow. Production targets map to
// environments; approval is enforced by environment protection rules.
func GitHubActions(f *deploy.File) ([]byte, error) {
	order, err := JobOrder(f)
	if err != nil {
		return nil, err
	}

	name := "Deploy Pipeline"
	if f.Pipeline != nil && f.Pipeline.Name != "" {
		name = f.Pipeline.Name
	}
	root := mapping()
	root.HeadComment = header(f)
	set(root, "name", scalar(name))
	set(root, "on", mapping(
		scalar("push"), mapping(scalar("branches"), sequence("main")),
		scalar("workflow_dispatch"), mapping(),
	))

	jobs := mapping()
	for _, jobName := range order {
		set(jobs, JobKey(jobName), githubJob(f, f.Job(jobName)))
	}
	set(root, "jobs", jobs)
	return encode(root)
}

func githubJob(f *deploy.File, job *deploy.Job) *yaml.Node {
	out := mapping()
	set(out, "runs-on", scalar(githubRunner))
	if target := f.Target(job.UsesTarget); job.UsesTarget != "" && target != nil {
		env := scalar(target.Name)
		if target.Production() && f.Gate.Approves(target.Name) {
			env.LineComment = "# manual approval via environment protection rules"
		}
		set(out, "environment", env)
	}
	if deps := needs(job); len(deps) > 0 {
		set(out, "needs", sequence(deps...))
	}

	steps := &yaml.Node{Kind: yaml.SequenceNode}
	steps.Content = append(steps.Content, mapping(
		scalar("name"), scalar("Checkout code"),
		scalar("uses"), scalar(checkoutAction),
	))
	secrets := secretNames(job)
	for i, cmd := range job.Runs {
		step := mapping()
		set(step, "name", scalar(StepName(cmd, i)))
		set(step, "run", literal(cmd))
		if len(secrets) > 0 {
			env := mapping()
			for _, s := range secrets {
				set(env, s, scalar("${{ secrets."+s+" }}"))
			}
			set(step, "env", env)
		}
		steps.Content = append(steps.Content, step)
	}
	set(out, "steps", steps)
	return out
}

// StepName derives a readable step name from a shell command.
func StepName(cmd string, index int) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "Step " + strconv.Itoa(index+1)
	}
	switch parts[0] {
	case "npm", "docker", "kubectl", "cargo", "go", "make", "helm":
		if len(parts) > 1 {
			return "Run " + parts[0] + " " + parts[1]
		}
	}
	return "Run " + parts[0]
}
