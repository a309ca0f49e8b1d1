package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/fileutil"
)

const (
	HookStart = "# >>> blueprint validate hook >>>"
	HookEnd   = "# <<< blueprint validate hook <<<"
)

func RunInstallHook(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	repoRoot, gitDir, err := ResolveGitPaths(rootPath)
	if err != nil {
		return err
	}
	manifest, err := manifestPath(cmd)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(repoRoot, manifest)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("manifest %s is outside the repository %s", manifest, repoRoot)
	}

	hookPath := filepath.Join(gitDir, "hooks", "pre-commit")
	if err := os.MkdirAll(filepath.Dir(hookPath), 0755); err != nil {
		return fmt.Errorf("failed to create hook directory: %w", err)
	}

	existing := ""
	if data, err := os.ReadFile(hookPath); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing hook: %w", err)
	}

	updated := UpsertHook(existing, repoRoot, filepath.ToSlash(rel))
	if err := os.WriteFile(hookPath, []byte(updated), 0755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed pre-commit hook at %s\n", hookPath)
	return nil
}

func ResolveGitPaths(workingDir string) (repoRoot string, gitDir string, err error) {
	repoRootOut, err := exec.Command("git", "-C", workingDir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", "", fmt.Errorf("not inside a git repository")
	}

	gitDirOut, err := exec.Command("git", "-C", workingDir, "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve git directory: %w", err)
	}

	repoRoot = strings.TrimSpace(string(repoRootOut))
	gitDir = strings.TrimSpace(string(gitDirOut))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(workingDir, gitDir)
	}
	return repoRoot, gitDir, nil
}

// UpsertHook replaces the blueprint block of an existing hook, or appends
// one, keeping every other line.
func UpsertHook(existingHook, repoRoot, manifest string) string {
	block := BuildHookBlock(repoRoot, manifest)

	if existingHook == "" {
		return "#!/bin/sh\n\n" + block + "\n"
	}

	start := strings.Index(existingHook, HookStart)
	end := strings.Index(existingHook, HookEnd)
	if start >= 0 && end >= start {
		end += len(HookEnd)
		updated := existingHook[:start] + block + existingHook[end:]
		return fileutil.EnsureTrailingNewline(updated)
	}

	base := fileutil.EnsureTrailingNewline(existingHook)
	if !strings.HasPrefix(base, "#!") {
		base = "#!/bin/sh\n" + base
	}
	return base + "\n" + block + "\n"
}

// BuildHookBlock runs validate against the manifest and blocks the commit
// on error diagnostics. Without a blueprint binary on PATH it does nothing.
func BuildHookBlock(repoRoot, manifest string) string {
	return fmt.Sprintf(
		"%s\nrepo_root=%q\nif command -v blueprint >/dev/null 2>&1; then\n  (cd \"$repo_root\" && blueprint validate --manifest %q) || exit 1\nfi\n%s",
		HookStart,
		repoRoot,
		manifest,
		HookEnd,
	)
}
