package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/ignore"
	"github.com/morozRed/blueprint/internal/llm"
	"github.com/morozRed/blueprint/internal/lsp"
	"github.com/morozRed/blueprint/internal/project"
	"github.com/morozRed/blueprint/internal/state"
)

type DoctorSummary struct {
	Mode         string                    `json:"mode"`
	RootPath     string                    `json:"root_path"`
	Manifest     string                    `json:"manifest"`
	Documents    int                       `json:"documents"`
	Errors       int                       `json:"errors"`
	Warnings     int                       `json:"warnings"`
	IgnoreFile   bool                      `json:"ignore_file"`
	Hook         string                    `json:"hook"`
	Clean        bool                      `json:"clean"`
	Changed      []string                  `json:"changed"`
	Deleted      []string                  `json:"deleted"`
	Impacted     []string                  `json:"impacted"`
	Reasons      map[string][]string       `json:"reasons,omitempty"`
	LSP          map[string]lsp.Capability `json:"lsp"`
	Integrations map[string]bool           `json:"integrations"`
	Missing      []string                  `json:"missing"`
	Suggestions  []string                  `json:"suggestions"`
	Healthy      bool                      `json:"healthy"`
}

// RunDoctor checks the setup around a project: the manifest and its
// diagnostics, the ignore file, the pre-commit hook, documents changed
// since the last validate, language servers and agent integrations.
func RunDoctor(cmd *cobra.Command, args []string) error {
	path, err := manifestPath(cmd)
	if err != nil {
		return err
	}
	explain, err := OptionalBoolFlag(cmd, "explain", false)
	if err != nil {
		return err
	}
	rootPath := filepath.Dir(path)
	summary := DoctorSummary{
		Mode:         "doctor",
		RootPath:     rootPath,
		Manifest:     path,
		Changed:      []string{},
		Deleted:      []string{},
		Impacted:     []string{},
		Integrations: llm.DetectLLMIntegrations(rootPath),
	}

	var p *project.Project
	if _, statErr := os.Stat(path); statErr != nil {
		summary.Missing = append(summary.Missing, filepath.Base(path))
		summary.Suggestions = append(summary.Suggestions, "run blueprint init")
	} else if p, err = loadProject(cmd); err != nil {
		summary.Missing = append(summary.Missing, "valid manifest ("+err.Error()+")")
		summary.Suggestions = append(summary.Suggestions, "fix "+filepath.Base(path))
	} else {
		summary.Documents = len(p.Documents)
		summary.Errors, summary.Warnings = diag.Count(p.Diagnostics)
		if summary.Errors > 0 {
			summary.Suggestions = append(summary.Suggestions, "run blueprint validate")
		}
		if err := doctorState(&summary, p, explain); err != nil {
			return err
		}
	}

	if _, err := os.Stat(filepath.Join(rootPath, ignore.FileName)); err == nil {
		summary.IgnoreFile = true
	}
	summary.Hook = hookState(rootPath)
	if summary.Hook == "missing" {
		summary.Missing = append(summary.Missing, "pre-commit hook")
		summary.Suggestions = append(summary.Suggestions, "run blueprint install-hook")
	}

	matcher, err := ignore.Load(rootPath)
	if err != nil {
		return err
	}
	summary.LSP = lsp.ProbeCapabilities(lsp.DetectLanguagePresence(sourcePaths(rootPath, matcher)))

	if !summary.Integrations["skills"] || !summary.Integrations["context"] {
		summary.Suggestions = append(summary.Suggestions, "run blueprint init --llm codex,claude,cursor")
	}

	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	sort.Strings(summary.Missing)
	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	sort.Strings(summary.Suggestions)
	if summary.Missing == nil {
		summary.Missing = []string{}
	}
	if summary.Suggestions == nil {
		summary.Suggestions = []string{}
	}
	summary.Healthy = p != nil && summary.Clean && summary.Errors == 0 && len(summary.Missing) == 0

	if ok, err := printJSON(cmd, summary); ok || err != nil {
		return err
	}
	writeDoctor(cmd, summary, explain)
	return nil
}

// doctorState compares the documents on disk with the last recorded
// validate.
func doctorState(summary *DoctorSummary, p *project.Project, explain bool) error {
	root := p.Manifest.Root
	if _, err := os.Stat(state.Path(root)); errors.Is(err, fs.ErrNotExist) {
		summary.Missing = append(summary.Missing, filepath.ToSlash(filepath.Join(state.Dir, state.StateFile)))
		summary.Suggestions = append(summary.Suggestions, "run blueprint validate")
		return nil
	}
	st, err := state.Load(root)
	if err != nil {
		summary.Missing = append(summary.Missing, "valid state file")
		summary.Suggestions = append(summary.Suggestions, "run blueprint validate")
		return nil
	}

	paths := make([]string, 0, len(p.Documents))
	for _, doc := range p.Documents {
		paths = append(paths, doc.Path)
	}
	hashes, err := fileutil.ScanFileHashes(root, paths)
	if err != nil {
		return fmt.Errorf("failed to hash documents: %w", err)
	}
	summary.Changed = st.ChangedFiles(hashes)
	summary.Deleted = st.DeletedFiles(fileutil.ToSet(paths))
	impacted, reasons := st.ImpactedWithReasons(summary.Changed, summary.Deleted)
	summary.Impacted = impacted
	if explain {
		summary.Reasons = reasons
	}
	summary.Clean = len(impacted) == 0
	if !summary.Clean {
		summary.Suggestions = append(summary.Suggestions, "run blueprint validate")
	}
	return nil
}

// hookState is "installed", "missing" or "no-git".
func hookState(rootPath string) string {
	_, gitDir, err := ResolveGitPaths(rootPath)
	if err != nil {
		return "no-git"
	}
	data, err := os.ReadFile(filepath.Join(gitDir, "hooks", "pre-commit"))
	if err != nil || !strings.Contains(string(data), HookStart) {
		return "missing"
	}
	return "installed"
}

// sourcePaths lists files under root that a language server could serve.
func sourcePaths(root string, matcher *ignore.Matcher) []string {
	var paths []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if matcher.ShouldIgnore(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if _, ok := lsp.LanguageForPath(path); ok {
				paths = append(paths, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	return paths
}

func writeDoctor(cmd *cobra.Command, summary DoctorSummary, explain bool) {
	out := cmd.OutOrStdout()
	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Fprintf(out, "doctor: %s\n", status)
	fmt.Fprintf(out, "project: documents=%d errors=%d warnings=%d\n", summary.Documents, summary.Errors, summary.Warnings)
	fmt.Fprintf(out, "state: clean=%t changed=%d deleted=%d impacted=%d\n",
		summary.Clean, len(summary.Changed), len(summary.Deleted), len(summary.Impacted))
	if explain {
		for _, path := range summary.Impacted {
			fmt.Fprintf(out, "  %s: %s\n", path, strings.Join(summary.Reasons[path], "; "))
		}
	}
	fmt.Fprintf(out, "setup: ignore_file=%t hook=%s\n", summary.IgnoreFile, summary.Hook)
	fmt.Fprintf(out, "integrations: skills=%t context=%t codex=%t claude=%t cursor=%t\n",
		summary.Integrations["skills"],
		summary.Integrations["context"],
		summary.Integrations["codex"],
		summary.Integrations["claude"],
		summary.Integrations["cursor"],
	)

	available, present := 0, 0
	for _, language := range lsp.Languages() {
		capability := summary.LSP[language]
		if !capability.Present {
			continue
		}
		present++
		if capability.Available {
			available++
		} else {
			fmt.Fprintf(out, "lsp: %s present but %s is not installed\n", language, capability.Server)
		}
	}
	fmt.Fprintf(out, "lsp: available=%d/%d present languages\n", available, present)
	if len(summary.Missing) > 0 {
		fmt.Fprintf(out, "missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Fprintf(out, "next: %s\n", suggestion)
	}
}
