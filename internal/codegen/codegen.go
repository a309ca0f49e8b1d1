// Package codegen renders a checked deployment description as CI
// configuration for GitHub Actions or GitLab CI.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	graphlib "github.com/dominikbraun/graph"
	"gopkg.in/yaml.v3"

	"github.com/morozRed/blueprint/internal/deploy"
)

const (
	PlatformGitHub = "github"
	PlatformGitLab = "gitlab"
)

var ErrUnknownPlatform = errors.New("unknown platform (want github or gitlab)")

// Generate renders f for platform.
func Generate(platform string, f *deploy.File) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case PlatformGitHub:
		return GitHubActions(f)
	case PlatformGitLab:
		return GitLabCI(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
}

// DefaultOutput is where each platform expects its configuration.
func DefaultOutput(platform string) string {
	if strings.EqualFold(platform, PlatformGitLab) {
		return ".gitlab-ci.yml"
	}
	return ".github/workflows/deploy.yml"
}

// JobOrder sorts jobs so every job follows the jobs it requires. Ties are
// broken by declaration order.
func JobOrder(f *deploy.File) ([]string, error) {
	position := make(map[string]int, len(f.Jobs))
	g := graphlib.New(graphlib.StringHash, graphlib.Directed())
	for i, job := range f.Jobs {
		position[job.Name] = i
		if err := g.AddVertex(job.Name); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
			return nil, err
		}
	}
	for _, job := range f.Jobs {
		for _, req := range job.Requires {
			dep := f.Job(deploy.JobName(req))
			if dep == nil {
				continue
			}
			if err := g.AddEdge(dep.Name, job.Name); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
				return nil, err
			}
		}
	}
	order, err := graphlib.StableTopologicalSort(g, func(a, b string) bool {
		return position[a] < position[b]
	})
	if err != nil {
		return nil, fmt.Errorf("failed to order jobs: %w", err)
	}
	return order, nil
}

// JobKey turns a job name into a CI-safe key.
func JobKey(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

// SecretEnv is the environment variable a secret is exposed as.
func SecretEnv(ref string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ref), "secret."))
}

func header(f *deploy.File) string {
	lines := []string{"# Generated by blueprint from " + f.Path + ". Do not edit."}
	if f.Pipeline != nil {
		lines = append(lines, "# Pipeline: "+f.Pipeline.Name)
		if f.Pipeline.Description != "" {
			lines = append(lines, "# "+f.Pipeline.Description)
		}
	}
	return strings.Join(lines, "\n")
}

func needs(job *deploy.Job) []string {
	var out []string
	for _, req := range job.Requires {
		if strings.TrimSpace(req) != "" {
			out = append(out, JobKey(deploy.JobName(req)))
		}
	}
	return out
}

func secretNames(job *deploy.Job) []string {
	out := make([]string, 0, len(job.NeedsSecrets))
	for _, s := range job.NeedsSecrets {
		out = append(out, SecretEnv(s))
	}
	sort.Strings(out)
	return out
}

// yaml.Node helpers keep key order stable in the output.

func mapping(pairs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: pairs}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func literal(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, Style: yaml.LiteralStyle}
}

func sequence(values ...string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		n.Content = append(n.Content, scalar(v))
	}
	return n
}

func set(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}

func encode(doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	comment := doc.HeadComment
	doc.HeadComment = ""
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, HeadComment: comment, Content: []*yaml.Node{doc}}); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
