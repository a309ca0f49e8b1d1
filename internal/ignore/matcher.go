// Package ignore implements .blueprintignore: gitignore-like rules where
// the last matching rule wins.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const FileName = ".blueprintignore"

// Defaults are applied before user rules, so a "!" rule can re-include them.
var Defaults = []string{
	".git/",
	".blueprint/",
	"node_modules/",
	"vendor/",
	"target/",
	"dist/",
}

type rule struct {
	glob     *regexp.Regexp
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool
}

type Matcher struct {
	rules []rule
}

func NewMatcher(userRules []string) *Matcher {
	m := &Matcher{}
	for _, line := range append(append([]string(nil), Defaults...), userRules...) {
		if r, ok := parseRule(line); ok {
			m.rules = append(m.rules, r)
		}
	}
	return m
}

// Load reads root/.blueprintignore. A missing file yields the defaults.
func Load(root string) (*Matcher, error) {
	rules, err := ReadRules(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	return NewMatcher(rules), nil
}

// ReadRules returns the non-empty, non-comment lines of an ignore file.
func ReadRules(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	defer f.Close()

	var rules []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return rules, nil
}

// ShouldIgnore reports whether relPath is excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalize(relPath)
	if relPath == "" || relPath == "." {
		return false
	}
	ignored := false
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}
	var r rule
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		r.negated = true
		line = rest
	}
	if rest, ok := strings.CutPrefix(line, "/"); ok {
		r.anchored = true
		line = rest
	}
	if rest, ok := strings.CutSuffix(line, "/"); ok {
		r.dirOnly = true
		line = rest
	}
	line = normalize(line)
	if line == "" {
		return rule{}, false
	}
	r.pattern = line
	r.glob = regexp.MustCompile("^" + globToRegex(line) + "$")
	return r, true
}

func (r rule) matches(relPath string, isDir bool) bool {
	if r.dirOnly {
		// a directory rule also covers everything below it
		for _, prefix := range prefixes(relPath) {
			if r.anchored && r.glob.MatchString(prefix) {
				return true
			}
			if !r.anchored && (r.glob.MatchString(prefix) || r.glob.MatchString(path.Base(prefix))) {
				if prefix != relPath || isDir {
					return true
				}
			}
		}
		return false
	}

	if r.anchored {
		return r.glob.MatchString(relPath)
	}
	if strings.Contains(r.pattern, "/") {
		for _, suffix := range suffixes(relPath) {
			if r.glob.MatchString(suffix) {
				return true
			}
		}
		return false
	}
	for _, segment := range strings.Split(relPath, "/") {
		if r.glob.MatchString(segment) {
			return true
		}
	}
	return false
}

// prefixes of "a/b/c" are "a", "a/b" and "a/b/c".
func prefixes(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[:i+1], "/")
	}
	return out
}

// suffixes of "a/b/c" are "a/b/c", "b/c" and "c".
func suffixes(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[i:], "/")
	}
	return out
}

func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		switch ch := pattern[i]; {
		case ch == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			b.WriteString(".*")
			i++
		case ch == '*':
			b.WriteString("[^/]*")
		case ch == '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	return b.String()
}

func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}
