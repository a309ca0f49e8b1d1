// Package status reads and edits the [status] section of a document:
// per-module implementation state, coverage and notes.
package status

import (
	"errors"
	"fmt"
	"strings"

	"github.com/morozRed/blueprint/internal/document"
)

var (
	ErrStatusExists = errors.New("status section already exists")
	ErrNoStatus     = errors.New("no [status] section (run status init first)")
	ErrNoModules    = errors.New("no modules declared")
)

// InitialState is what init and sync give new entries.
const InitialState = "todo"

// Update names the fields set should change; nil fields are kept.
type Update struct {
	State    *string
	Coverage *float64
	Notes    *string
}

func (u Update) Empty() bool {
	return u.State == nil && u.Coverage == nil && u.Notes == nil
}

func (u Update) Validate() error {
	if u.Empty() {
		return errors.New("at least one of state, coverage or notes is required")
	}
	if u.State != nil && !document.ValidState(*u.State) {
		return fmt.Errorf("invalid state %q (want one of %s)", *u.State, strings.Join(document.States, ", "))
	}
	if u.Coverage != nil && (*u.Coverage < 0 || *u.Coverage > 1) {
		return fmt.Errorf("coverage %v is outside [0, 1]", *u.Coverage)
	}
	return nil
}

type Entry struct {
	Module   string   `json:"module"`
	Purpose  string   `json:"purpose,omitempty"`
	State    string   `json:"state,omitempty"`
	Coverage *float64 `json:"coverage,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Set      bool     `json:"set"`
}

type Report struct {
	File      string  `json:"file"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	HasStatus bool    `json:"has_status"`
	Entries   []Entry `json:"entries"`
}

// List pairs every declared module with its status entry, in declaration
// order.
func List(doc *document.Document) Report {
	r := Report{File: doc.Path, HasStatus: doc.Status != nil, Entries: []Entry{}}
	if doc.Status != nil {
		r.UpdatedAt = doc.Status.UpdatedAt
	}
	for _, mod := range doc.Mods {
		r.Entries = append(r.Entries, entryFor(doc, mod))
	}
	return r
}

// Show returns one module's entry. name may carry the "mod." prefix.
func Show(doc *document.Document, name string) (Entry, error) {
	mod := doc.Mod(LocalName(name))
	if mod == nil {
		return Entry{}, fmt.Errorf("module mod.%s not found in %s", LocalName(name), doc.Path)
	}
	return entryFor(doc, mod), nil
}

func entryFor(doc *document.Document, mod *document.Mod) Entry {
	e := Entry{Module: "mod." + mod.Name, Purpose: mod.Purpose}
	ms, ok := moduleStatus(doc, mod.Name)
	if !ok {
		return e
	}
	e.Set = true
	e.State = ms.State
	e.Notes = ms.Notes
	if ms.HasCoverage {
		c := ms.Coverage
		e.Coverage = &c
	}
	return e
}

func moduleStatus(doc *document.Document, local string) (document.ModuleStatus, bool) {
	if doc.Status == nil {
		return document.ModuleStatus{}, false
	}
	for _, ms := range doc.Status.Modules {
		if ms.Module == local {
			return ms, true
		}
	}
	return document.ModuleStatus{}, false
}

// LocalName strips a leading "mod.".
func LocalName(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "mod.")
}

// Symbol returns the display glyph and label for a state.
func Symbol(state string) string {
	switch state {
	case "done":
		return "✓ done"
	case "partial":
		return "◐ partial"
	case "skeleton":
		return "◯ skeleton"
	case "blocked":
		return "✗ blocked"
	case "todo":
		return "☐ todo"
	default:
		return state
	}
}
