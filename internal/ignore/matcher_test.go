package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"drafts/**",
		"!drafts/keep.toml",
		"*.bak",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", ignored: true},
		{path: ".blueprint/state.json", ignored: true},
		{path: "node_modules/pkg/index.toml", ignored: true},
		{path: "drafts/old.toml", ignored: true},
		{path: "drafts/keep.toml", ignored: false},
		{path: "ir/users.toml.bak", ignored: true},
		{path: "ir/users.toml", ignored: false},
		{path: "vendor", isDir: true, ignored: true},
	}

	for _, tc := range cases {
		if got := m.ShouldIgnore(tc.path, tc.isDir); got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"generated/",
		"!generated/public/",
	})

	if !m.ShouldIgnore("generated/out/a.toml", false) {
		t.Fatalf("expected generated/out/a.toml to be ignored")
	}
	if m.ShouldIgnore("generated/public/a.toml", false) {
		t.Fatalf("expected generated/public/a.toml to be included")
	}
	if m.ShouldIgnore("generated", false) {
		t.Fatalf("a file named like a directory rule must not match")
	}
}

func TestMatcher_AnchoredRule(t *testing.T) {
	m := NewMatcher([]string{"/scratch.toml"})
	if !m.ShouldIgnore("scratch.toml", false) {
		t.Fatalf("expected root scratch.toml to be ignored")
	}
	if m.ShouldIgnore("ir/scratch.toml", false) {
		t.Fatalf("anchored rule must not match nested files")
	}
}

func TestLoadReadsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	content := "# comment\n\nlegacy/\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	m, err := Load(root)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !m.ShouldIgnore("legacy/a.toml", false) {
		t.Fatalf("expected legacy/a.toml to be ignored")
	}

	missing, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load without ignore file returned error: %v", err)
	}
	if missing.ShouldIgnore("ir/a.toml", false) {
		t.Fatalf("expected defaults only")
	}
}
