package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/fileutil"
)

const (
	SkillFile      = ".blueprint/skills/blueprint.md"
	ContextFile    = "CONTEXT.md"
	CodexFile      = "AGENTS.md"
	ClaudeFile     = "CLAUDE.md"
	CursorRuleFile = ".cursor/rules/blueprint.mdc"
)

var providers = []string{"codex", "claude", "cursor"}

// ParseLLMProviders reads a comma or space separated provider list. "all"
// expands to every provider.
func ParseLLMProviders(raw string) ([]string, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return nil, nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(value string) {
		if !seen[value] {
			seen[value] = true
			out = append(out, value)
		}
	}

	for _, chunk := range strings.Split(raw, ",") {
		for _, value := range strings.Fields(chunk) {
			switch value {
			case "all":
				for _, provider := range providers {
					add(provider)
				}
			case "codex", "claude", "cursor":
				add(value)
			default:
				return nil, fmt.Errorf("unsupported --llm provider %q (supported: codex, claude, cursor, all)", value)
			}
		}
	}
	return out, nil
}

// GenerateIntegrationFiles writes the skill file, the CONTEXT.md block and
// one adapter per provider. It returns the slash paths that changed.
func GenerateIntegrationFiles(rootPath string, providers []string) ([]string, error) {
	var updated []string
	track := func(rel string, changed bool) {
		if changed {
			updated = append(updated, rel)
		}
	}

	changed, err := writeFile(rootPath, SkillFile, BuildSkillContent())
	if err != nil {
		return nil, err
	}
	track(SkillFile, changed)

	changed, err = UpsertManagedMarkdownFile(filepath.Join(rootPath, ContextFile), BuildContextBlock())
	if err != nil {
		return nil, err
	}
	track(ContextFile, changed)

	for _, provider := range providers {
		switch provider {
		case "codex":
			changed, err = UpsertManagedMarkdownFile(filepath.Join(rootPath, CodexFile), BuildRootAdapterBlock("Codex"))
			track(CodexFile, changed)
		case "claude":
			changed, err = UpsertManagedMarkdownFile(filepath.Join(rootPath, ClaudeFile), BuildRootAdapterBlock("Claude"))
			track(ClaudeFile, changed)
		case "cursor":
			changed, err = writeFile(rootPath, CursorRuleFile, BuildCursorRuleContent())
			track(CursorRuleFile, changed)
		}
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(updated)
	return updated, nil
}

func writeFile(rootPath, rel, content string) (bool, error) {
	path := filepath.Join(rootPath, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	changed, err := fileutil.WriteIfChangedTracked(path, []byte(content))
	if err != nil {
		return false, fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return changed, nil
}

// DetectLLMIntegrations reports which integration files are installed.
func DetectLLMIntegrations(rootPath string) map[string]bool {
	return map[string]bool{
		"skills":  fileExists(filepath.Join(rootPath, filepath.FromSlash(SkillFile))),
		"context": ContainsManagedBlock(filepath.Join(rootPath, ContextFile)),
		"codex":   ContainsManagedBlock(filepath.Join(rootPath, CodexFile)),
		"claude":  ContainsManagedBlock(filepath.Join(rootPath, ClaudeFile)),
		"cursor":  fileExists(filepath.Join(rootPath, filepath.FromSlash(CursorRuleFile))),
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
