package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/ignore"
	"github.com/morozRed/blueprint/internal/llm"
	"github.com/morozRed/blueprint/internal/manifest"
	"github.com/morozRed/blueprint/internal/state"
)

const starterDocument = `# Describe schemas, funcs and modules here. Run blueprint validate after
# every edit.

[schema.greeting]
kind = "value"
fields = { text = "string" }

[func.greet]
intent = "build a greeting"
output = ["schema.greeting"]

[mod.hello]
purpose = "example module"
schemas = ["schema.greeting"]
funcs = ["func.greet"]
pipeline = ["func.greet"]
`

const starterIgnore = `# Paths blueprint skips when walking the IR root and scanning source.
# Same syntax as .gitignore.
`

type starterFile struct {
	rel     string
	content string
}

// RunInit writes a starter manifest, IR directory and ignore file. Files
// that already exist are kept.
func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	name, err := OptionalStringFlag(cmd, "name")
	if err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(rootPath)
	}
	irRoot, err := OptionalStringFlag(cmd, "ir-root")
	if err != nil {
		return err
	}
	if irRoot == "" {
		irRoot = "ir"
	}
	irRoot = filepath.ToSlash(filepath.Clean(irRoot))

	out := cmd.OutOrStdout()
	files := []starterFile{
		{manifest.DefaultFile, fmt.Sprintf("[project]\nname = %q\n\n[paths]\nir_root = %q\n\n[check]\nambiguity = \"lenient\"\n", name, irRoot)},
		{ignore.FileName, starterIgnore},
	}
	irDir := filepath.Join(rootPath, filepath.FromSlash(irRoot))
	if empty, err := dirEmpty(irDir); err != nil {
		return err
	} else if empty {
		files = append(files, starterFile{irRoot + "/main.toml", starterDocument})
	}

	for _, f := range files {
		path := filepath.Join(rootPath, filepath.FromSlash(f.rel))
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "kept %s\n", f.rel)
			continue
		}
		if err := fileutil.WriteIfMissing(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.rel, err)
		}
		fmt.Fprintf(out, "wrote %s\n", f.rel)
	}
	if err := os.MkdirAll(irDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", irRoot, err)
	}
	if _, err := os.Stat(state.Path(rootPath)); os.IsNotExist(err) {
		if err := state.NewState().Save(rootPath); err != nil {
			return fmt.Errorf("failed to write initial state: %w", err)
		}
	}

	llmRaw, err := OptionalStringFlag(cmd, "llm")
	if err != nil {
		return err
	}
	providers, err := llm.ParseLLMProviders(llmRaw)
	if err != nil {
		return err
	}
	if len(providers) > 0 {
		updated, err := llm.GenerateIntegrationFiles(rootPath, providers)
		if err != nil {
			return err
		}
		if len(updated) > 0 {
			fmt.Fprintf(out, "Updated LLM integration files: %s\n", strings.Join(updated, ", "))
		}
	}

	fmt.Fprintf(out, "Initialized blueprint project %q (run blueprint validate)\n", name)
	return nil
}

func dirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	return len(entries) == 0, nil
}
