package languages

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func column(node *sitter.Node) int {
	return int(node.StartPoint().Column) + 1
}

// compact collapses whitespace runs so multi-line headers read as one line.
func compact(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
