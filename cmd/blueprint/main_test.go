package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunExitCodes(t *testing.T) {
	root := t.TempDir()
	manifest := filepath.Join(root, "blueprint.toml")
	mustWriteFile(t, manifest, "[project]\nname = \"demo\"\n")
	mustWriteFile(t, filepath.Join(root, "a.toml"), "[func.a]\noutput = [\"schema.missing\"]\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"validate", "--manifest", manifest}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1 for error diagnostics, got %d\nstdout:\n%s", code, stdout.String())
	}
	if !strings.Contains(stdout.String(), "E_UNRESOLVED_REF") {
		t.Fatalf("expected the report on stdout, got:\n%s", stdout.String())
	}
	if strings.Contains(stderr.String(), "Error:") {
		t.Fatalf("expected no error line after a report, got:\n%s", stderr.String())
	}

	mustWriteFile(t, filepath.Join(root, "a.toml"), "[schema.s]\nkind = \"value\"\n")
	stdout.Reset()
	stderr.Reset()
	if code := run(context.Background(), []string{"validate", "--manifest", manifest}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}
}

func TestRunReportsPlainErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "nope.toml")
	code := run(context.Background(), []string{"inspect", "mod.x", "--manifest", missing}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Error: failed to read manifest") {
		t.Fatalf("expected error line on stderr, got:\n%s", stderr.String())
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if got := stdout.String(); got != "blueprint "+version+"\n" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}
