package deploy

import (
	"errors"
	"fmt"
	"os"

	"github.com/morozRed/blueprint/internal/tomltree"
)

var ErrNoDeploySection = errors.New("file has no [deploy] section")

func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy file: %w", err)
	}
	return Parse(path, data)
}

// Parse reads the [deploy.*] sections of data. Unknown keys are ignored.
func Parse(path string, data []byte) (*File, error) {
	root, err := tomltree.Parse(data)
	if err != nil {
		return nil, err
	}
	section, ok := root.Table("deploy")
	if !ok {
		return nil, ErrNoDeploySection
	}

	f := &File{Path: path}
	if t, ok := section.Table("pipeline"); ok {
		f.Pipeline = &Pipeline{Name: t.StringOr("name", ""), Description: t.StringOr("description", "")}
	}
	eachTable(section, "target", func(name string, t *tomltree.Table) {
		f.Targets = append(f.Targets, &Target{
			Name:   name,
			Kind:   t.StringOr("kind", ""),
			Domain: t.StringOr("domain", ""),
			Line:   t.Line,
		})
	})
	eachTable(section, "job", func(name string, t *tomltree.Table) {
		f.Jobs = append(f.Jobs, &Job{
			Name:         name,
			Requires:     t.Strings("requires"),
			Runs:         t.Strings("runs"),
			UsesTarget:   t.StringOr("uses_target", ""),
			NeedsSecrets: t.Strings("needs_secrets"),
			UsesPerm:     t.StringOr("uses_perm", ""),
			Produces:     t.Strings("produces"),
			SideEffects:  t.Strings("side_effects"),
			Line:         t.Line,
			Order:        len(f.Jobs) + 1,
		})
	})
	eachTable(section, "artifact", func(name string, t *tomltree.Table) {
		f.Artifacts = append(f.Artifacts, &Artifact{
			Name: name,
			Type: t.StringOr("type", ""),
			Repo: t.StringOr("repo", ""),
			Tag:  t.StringOr("tag", ""),
		})
	})
	eachTable(section, "secret", func(name string, t *tomltree.Table) {
		f.Secrets = append(f.Secrets, &Secret{Name: name, Scope: t.Strings("scope")})
	})
	eachTable(section, "perm", func(name string, t *tomltree.Table) {
		f.Perms = append(f.Perms, &Perm{Name: name, Role: t.StringOr("role", ""), Allows: t.Strings("allows")})
	})
	if t, ok := section.Table("release"); ok {
		f.Release = &Release{Strategy: t.StringOr("strategy", ""), HealthCheck: t.StringOr("health_check", "")}
	}
	if t, ok := section.Table("gate"); ok {
		f.Gate = &Gate{RequireManualApprovalFor: t.Strings("require_manual_approval_for"), Line: t.Line}
	}
	if t, ok := section.Table("rollback"); ok {
		f.Rollback = &Rollback{On: t.Strings("on"), Strategy: t.StringOr("strategy", "")}
	}
	return f, nil
}

func eachTable(section *tomltree.Table, key string, fn func(name string, t *tomltree.Table)) {
	group, ok := section.Table(key)
	if !ok {
		return
	}
	for _, name := range group.Keys() {
		if t, ok := group.Table(name); ok {
			fn(name, t)
		}
	}
}
