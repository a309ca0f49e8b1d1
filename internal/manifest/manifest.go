// Package manifest loads the project manifest (blueprint.toml) and assigns
// documents to packages.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultFile    = "blueprint.toml"
	DefaultPackage = "default"
)

type Manifest struct {
	Project  ProjectSection            `toml:"project"`
	Paths    PathsSection              `toml:"paths"`
	Packages map[string]PackageSection `toml:"packages"`
	Check    CheckSection              `toml:"check"`

	// Path is the manifest file; Root is its directory.
	Path string `toml:"-"`
	Root string `toml:"-"`
}

type ProjectSection struct {
	Name string `toml:"name"`
}

type PathsSection struct {
	IRRoot string `toml:"ir_root"`
}

type PackageSection struct {
	Root      string   `toml:"root"`
	Namespace string   `toml:"namespace"`
	Depends   []string `toml:"depends"`
}

// CheckSection tunes validation policy.
type CheckSection struct {
	Ambiguity string `toml:"ambiguity"`
	Orphans   *bool  `toml:"orphans"`
}

func (c CheckSection) StrictAmbiguity() bool {
	return strings.EqualFold(strings.TrimSpace(c.Ambiguity), "strict")
}

func (c CheckSection) OrphansEnabled() bool {
	return c.Orphans == nil || *c.Orphans
}

type Package struct {
	Name      string
	Root      string
	Namespace string
	Depends   []string
}

var ErrMissingProjectName = errors.New("manifest is missing [project].name")

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	m.Path = abs
	m.Root = filepath.Dir(abs)
	return m, nil
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if strings.TrimSpace(m.Project.Name) == "" {
		return nil, ErrMissingProjectName
	}
	switch strings.ToLower(strings.TrimSpace(m.Check.Ambiguity)) {
	case "", "lenient", "strict":
	default:
		return nil, fmt.Errorf("[check].ambiguity must be \"lenient\" or \"strict\", got %q", m.Check.Ambiguity)
	}
	if strings.TrimSpace(m.Paths.IRRoot) == "" {
		m.Paths.IRRoot = "."
	}
	return &m, nil
}

// IRRoot returns the absolute document root.
func (m *Manifest) IRRoot() string {
	if filepath.IsAbs(m.Paths.IRRoot) {
		return filepath.Clean(m.Paths.IRRoot)
	}
	return filepath.Join(m.Root, m.Paths.IRRoot)
}

// PackageList returns packages sorted by name, roots slash-cleaned and
// relative to the manifest directory.
func (m *Manifest) PackageList() []Package {
	names := make([]string, 0, len(m.Packages))
	for name := range m.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Package, 0, len(names))
	for _, name := range names {
		section := m.Packages[name]
		out = append(out, Package{
			Name:      name,
			Root:      cleanRoot(section.Root),
			Namespace: strings.TrimSpace(section.Namespace),
			Depends:   append([]string(nil), section.Depends...),
		})
	}
	return out
}

func (m *Manifest) Package(name string) (Package, bool) {
	for _, pkg := range m.PackageList() {
		if pkg.Name == name {
			return pkg, true
		}
	}
	return Package{}, false
}

func cleanRoot(root string) string {
	root = filepath.ToSlash(filepath.Clean(strings.TrimSpace(root)))
	return strings.TrimPrefix(root, "./")
}
