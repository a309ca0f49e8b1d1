package languages

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/morozRed/blueprint/internal/parser"
)

// GoParser implements parsing for Go source files
type GoParser struct {
	parser *sitter.Parser
}

func NewGoParser() *GoParser {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &GoParser{parser: p}
}

func (g *GoParser) Language() string {
	return "go"
}

func (g *GoParser) Extensions() []string {
	return []string{".go"}
}

func (g *GoParser) Parse(ctx context.Context, filename string, content []byte) (*parser.FileSymbols, error) {
	tree, err := g.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &parser.FileSymbols{
		Path:     filename,
		Language: "go",
		Symbols:  make([]parser.Symbol, 0),
	}
	g.extractSymbols(tree.RootNode(), content, result)
	return result, nil
}

func (g *GoParser) extractSymbols(node *sitter.Node, content []byte, result *parser.FileSymbols) {
	switch node.Type() {
	case "function_declaration":
		if sym := g.extractFunction(node, content); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "method_declaration":
		if sym := g.extractMethod(node, content); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "type_declaration":
		result.Symbols = append(result.Symbols, g.extractTypeDecl(node, content)...)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		g.extractSymbols(node.Child(i), content, result)
	}
}

func (g *GoParser) extractFunction(node *sitter.Node, content []byte) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      parser.SymbolFunction,
		Signature: g.buildFunctionSignature(node, content),
		Line:      line(nameNode),
		Column:    column(nameNode),
	}
}

func (g *GoParser) extractMethod(node *sitter.Node, content []byte) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	receiver := ""
	if receiverNode := node.ChildByFieldName("receiver"); receiverNode != nil {
		receiver = receiverNode.Content(content)
	}

	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      parser.SymbolMethod,
		Container: receiverType(receiver),
		Signature: strings.TrimSpace(receiver + " " + g.buildFunctionSignature(node, content)),
		Line:      line(nameNode),
		Column:    column(nameNode),
	}
}

func (g *GoParser) extractTypeDecl(node *sitter.Node, content []byte) []parser.Symbol {
	symbols := make([]parser.Symbol, 0)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_spec" && child.Type() != "type_alias" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		kind := parser.SymbolType
		if typeNode := child.ChildByFieldName("type"); typeNode != nil {
			switch typeNode.Type() {
			case "struct_type":
				kind = parser.SymbolStruct
			case "interface_type":
				kind = parser.SymbolInterface
			}
		}

		symbols = append(symbols, parser.Symbol{
			Name:      nameNode.Content(content),
			Kind:      kind,
			Signature: g.buildTypeSignature(child, content),
			Line:      line(nameNode),
			Column:    column(nameNode),
		})
	}
	return symbols
}

func (g *GoParser) buildFunctionSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	paramsNode := node.ChildByFieldName("parameters")
	resultNode := node.ChildByFieldName("result")

	sig := "func"
	if nameNode != nil {
		sig += " " + nameNode.Content(content)
	}
	if paramsNode != nil {
		sig += paramsNode.Content(content)
	}
	if resultNode != nil {
		sig += " " + resultNode.Content(content)
	}
	return sig
}

func (g *GoParser) buildTypeSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil {
		return ""
	}

	sig := "type " + nameNode.Content(content)
	if typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			sig += " struct"
		case "interface_type":
			sig += " interface"
		default:
			sig += " " + typeNode.Content(content)
		}
	}
	return sig
}

// receiverType reduces "(s *Store[K])" to "Store".
func receiverType(receiver string) string {
	receiver = strings.Trim(strings.TrimSpace(receiver), "()")
	fields := strings.Fields(receiver)
	if len(fields) == 0 {
		return ""
	}
	typ := strings.TrimLeft(fields[len(fields)-1], "*")
	if i := strings.Index(typ, "["); i >= 0 {
		typ = typ[:i]
	}
	return typ
}
