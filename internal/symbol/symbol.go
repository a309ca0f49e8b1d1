// Package symbol builds the project-wide table of qualified symbols. Symbols
// live in one arena and are addressed by integer ID; every other package
// holds IDs, never pointers into another file's declarations.
package symbol

import (
	"strings"

	"github.com/morozRed/blueprint/internal/document"
)

type ID int

const NoID ID = -1

type Symbol struct {
	ID        ID
	Kind      document.Kind
	Name      string
	Local     string
	Namespace string
	Package   string
	File      string
	Order     int
	Line      int

	// Shadowed symbols lost a name conflict. They keep an ID so their own
	// references are still checked, but lookups never return them.
	Shadowed bool

	Schema *document.Schema
	Func   *document.Func
	Mod    *document.Mod
}

// Qualify builds "<ns>.<kind>.<local>" or "<kind>.<local>".
func Qualify(namespace string, kind document.Kind, local string) string {
	if namespace == "" {
		return string(kind) + "." + local
	}
	return namespace + "." + string(kind) + "." + local
}

// Ref is a reference string split around its kind segment.
type Ref struct {
	Prefix string
	Kind   document.Kind
	Name   string
}

// Bare reports whether the reference carries no prefix.
func (r Ref) Bare() bool {
	return r.Prefix == ""
}

// Local is the "<kind>.<name>" tail.
func (r Ref) Local() string {
	return string(r.Kind) + "." + r.Name
}

// ParseRef finds the first kind segment that is followed by a name:
// "user.schema.Profile" has prefix "user", "schema.Profile" has none.
func ParseRef(ref string) (Ref, bool) {
	parts := strings.Split(strings.TrimSpace(ref), ".")
	for i := 0; i < len(parts)-1; i++ {
		kind, ok := document.ParseKind(parts[i])
		if !ok {
			continue
		}
		name := strings.Join(parts[i+1:], ".")
		if name == "" {
			return Ref{}, false
		}
		for _, p := range parts[:i] {
			if p == "" {
				return Ref{}, false
			}
		}
		return Ref{Prefix: strings.Join(parts[:i], "."), Kind: kind, Name: name}, true
	}
	return Ref{}, false
}
