// Package languages registers the tree-sitter parsers used to find code
// symbols for implementation drift.
package languages

import "github.com/morozRed/blueprint/internal/parser"

// NewDefaultRegistry creates a registry with all supported language parsers
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewGoParser())
	r.Register(NewRustParser())
	r.Register(NewTypeScriptParser())

	return r
}
