// Package split partitions a project's modules into per-package document
// files, copying each module's closure alongside it.
package split

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/morozRed/blueprint/internal/diag"
)

const SharedCopy = "copy"

type Config struct {
	Split Section `toml:"split"`

	// Dir is the directory the config was read from. Relative output
	// paths resolve against it.
	Dir  string `toml:"-"`
	Path string `toml:"-"`
}

type Section struct {
	OutputDir   string                    `toml:"output_dir"`
	Manifest    string                    `toml:"manifest"`
	ProjectName string                    `toml:"project_name"`
	IRRoot      string                    `toml:"ir_root"`
	Behavior    Behavior                  `toml:"behavior"`
	Packages    map[string]PackageSection `toml:"packages"`
}

type Behavior struct {
	SharedSymbols   string `toml:"shared_symbols"`
	RunProjectCheck *bool  `toml:"run_project_check"`
}

type PackageSection struct {
	Root      string       `toml:"root"`
	Namespace string       `toml:"namespace"`
	Depends   []string     `toml:"depends"`
	Modules   []Assignment `toml:"modules"`
}

// Assignment places one module into a file under its package root.
type Assignment struct {
	Mod  string `toml:"mod"`
	File string `toml:"file"`
}

type Package struct {
	Name string
	PackageSection
}

// Packages returns the configured packages sorted by name.
func (c *Config) Packages() []Package {
	out := make([]Package, 0, len(c.Split.Packages))
	for name, pkg := range c.Split.Packages {
		out = append(out, Package{Name: name, PackageSection: pkg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// OutputDir is the absolute output directory.
func (c *Config) OutputDir() string {
	if filepath.IsAbs(c.Split.OutputDir) {
		return filepath.Clean(c.Split.OutputDir)
	}
	return filepath.Join(c.Dir, c.Split.OutputDir)
}

func (c *Config) RunProjectCheck() bool {
	return c.Split.Behavior.RunProjectCheck == nil || *c.Split.Behavior.RunProjectCheck
}

func LoadConfig(path string) (*Config, []diag.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read split config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve split config path: %w", err)
	}
	cfg, diags := ParseConfig(filepath.Base(path), data)
	if cfg != nil {
		cfg.Dir = filepath.Dir(abs)
		cfg.Path = abs
	}
	return cfg, diags, nil
}

// ParseConfig decodes and validates a split config. Problems are reported
// as E_SPLIT_CONFIG; a nil config means it could not be decoded at all.
func ParseConfig(file string, data []byte) (*Config, []diag.Diagnostic) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, []diag.Diagnostic{configError(file, "", fmt.Sprintf("failed to decode split config: %v", err))}
	}

	var diags []diag.Diagnostic
	s := &cfg.Split
	required := []struct{ key, value string }{
		{"output_dir", s.OutputDir},
		{"manifest", s.Manifest},
		{"project_name", s.ProjectName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			diags = append(diags, configError(file, "split."+r.key, "missing split."+r.key))
		}
	}
	if s.IRRoot == "" {
		s.IRRoot = "."
	}
	if s.Behavior.SharedSymbols == "" {
		s.Behavior.SharedSymbols = SharedCopy
	}
	if s.Behavior.SharedSymbols != SharedCopy {
		diags = append(diags, configError(file, "split.behavior.shared_symbols",
			fmt.Sprintf("unsupported shared_symbols %q (only %q is supported)", s.Behavior.SharedSymbols, SharedCopy)))
	}
	if len(s.Packages) == 0 {
		diags = append(diags, configError(file, "split.packages", "missing [split.packages]"))
	}

	for _, pkg := range cfg.Packages() {
		where := "split.packages." + pkg.Name
		if strings.TrimSpace(pkg.Root) == "" {
			diags = append(diags, configError(file, where, fmt.Sprintf("package %s is missing root", pkg.Name)))
		}
		if strings.TrimSpace(pkg.Namespace) == "" {
			diags = append(diags, configError(file, where, fmt.Sprintf("package %s is missing namespace", pkg.Name)))
		}
		if len(pkg.Modules) == 0 {
			diags = append(diags, configError(file, where, fmt.Sprintf("package %s assigns no modules", pkg.Name)))
		}
		for _, dep := range pkg.Depends {
			if _, ok := s.Packages[dep]; !ok {
				diags = append(diags, configError(file, where, fmt.Sprintf("package %s depends on unknown package %q", pkg.Name, dep)))
			}
		}
		for i, a := range pkg.Modules {
			if !strings.HasPrefix(a.Mod, "mod.") && !strings.Contains(a.Mod, ".mod.") {
				diags = append(diags, configError(file, fmt.Sprintf("%s.modules[%d]", where, i),
					fmt.Sprintf("module %q must be written as mod.<name>", a.Mod)))
			}
			if strings.TrimSpace(a.File) == "" {
				diags = append(diags, configError(file, fmt.Sprintf("%s.modules[%d]", where, i),
					fmt.Sprintf("module %s has no file", a.Mod)))
			}
		}
	}
	return &cfg, diags
}

func configError(file, location, message string) diag.Diagnostic {
	d := diag.Errorf(diag.CodeSplitConfig, message)
	d.File = file
	d.Location = location
	return d
}
