// Package state is the on-disk record store under .blueprint/: one record
// per document with its content hash, its modules and the documents it
// depends on.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	Dir                 = ".blueprint"
	StateFile           = "state.json"
	CurrentStateVersion = "2"
)

// DocumentState tracks one document as of the last recorded validate.
type DocumentState struct {
	Hash         string    `json:"hash"`
	Package      string    `json:"package,omitempty"`
	Modules      []string  `json:"modules,omitempty"`
	Dependencies []string  `json:"dependencies,omitempty"`
	Errors       int       `json:"errors,omitempty"`
	Warnings     int       `json:"warnings,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type State struct {
	Version   string                   `json:"version"`
	UpdatedAt time.Time                `json:"updated_at"`
	Documents map[string]DocumentState `json:"documents"`
}

func NewState() *State {
	return &State{
		Version:   CurrentStateVersion,
		Documents: make(map[string]DocumentState),
	}
}

// Path is the state file under a project root.
func Path(root string) string {
	return filepath.Join(root, Dir, StateFile)
}

// Load reads the state under root. A missing file is an empty state.
func Load(root string) (*State, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	migrateState(&s)
	return &s, nil
}

// Save writes the state under root, creating .blueprint/ as needed.
func (s *State) Save(root string) error {
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	if s.Documents == nil {
		s.Documents = make(map[string]DocumentState)
	}
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", Dir, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func (s *State) SetDocument(path string, doc DocumentState) {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	s.Documents[path] = doc
}

func (s *State) GetHash(path string) (string, bool) {
	doc, ok := s.Documents[path]
	if !ok {
		return "", false
	}
	return doc.Hash, true
}

// HasChanged reports true for unknown documents too.
func (s *State) HasChanged(path, currentHash string) bool {
	stored, ok := s.GetHash(path)
	return !ok || stored != currentHash
}

func (s *State) RemoveDocument(path string) {
	delete(s.Documents, path)
}

// ChangedFiles returns new or modified documents, sorted.
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)
	for path, hash := range currentHashes {
		if s.HasChanged(path, hash) {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// DeletedFiles returns recorded documents missing from current, sorted.
func (s *State) DeletedFiles(current map[string]bool) []string {
	deleted := make([]string, 0)
	for path := range s.Documents {
		if !current[path] {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// ImpactedFiles returns changed and deleted documents plus every document
// that transitively depends on one of them.
func (s *State) ImpactedFiles(changed, deleted []string) []string {
	impacted, _ := s.ImpactedWithReasons(changed, deleted)
	return impacted
}

// ImpactedWithReasons is ImpactedFiles with the reasons each document was
// pulled in.
func (s *State) ImpactedWithReasons(changed, deleted []string) ([]string, map[string][]string) {
	reverse := make(map[string][]string)
	for path, doc := range s.Documents {
		for _, dep := range doc.Dependencies {
			reverse[dep] = append(reverse[dep], path)
		}
	}
	for path := range reverse {
		sort.Strings(reverse[path])
	}

	reasons := make(map[string][]string)
	seen := make(map[string]bool)
	queue := make([]string, 0, len(changed)+len(deleted))
	for _, path := range changed {
		if !seen[path] {
			queue = append(queue, path)
		}
		seen[path] = true
		reasons[path] = appendReason(reasons[path], "changed")
	}
	for _, path := range deleted {
		if !seen[path] {
			queue = append(queue, path)
		}
		seen[path] = true
		reasons[path] = appendReason(reasons[path], "deleted")
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		for _, dependent := range reverse[path] {
			reasons[dependent] = appendReason(reasons[dependent], "depends on "+path)
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			queue = append(queue, dependent)
		}
	}

	out := make([]string, 0, len(seen))
	for path := range seen {
		out = append(out, path)
		sort.Strings(reasons[path])
	}
	sort.Strings(out)
	return out, reasons
}

func appendReason(existing []string, reason string) []string {
	for _, item := range existing {
		if item == reason {
			return existing
		}
	}
	return append(existing, reason)
}

func migrateState(s *State) {
	if s.Documents == nil {
		s.Documents = make(map[string]DocumentState)
	}
	switch s.Version {
	case "", "1":
		// version 1 tracked source files, not documents
		s.Documents = make(map[string]DocumentState)
		s.Version = CurrentStateVersion
	case CurrentStateVersion:
	default:
		// Keep unknown versions untouched.
	}
}
