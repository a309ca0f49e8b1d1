package languages

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/morozRed/blueprint/internal/parser"
)

// RustParser implements parsing for Rust source files
type RustParser struct {
	parser *sitter.Parser
}

func NewRustParser() *RustParser {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	return &RustParser{parser: p}
}

func (r *RustParser) Language() string {
	return "rust"
}

func (r *RustParser) Extensions() []string {
	return []string{".rs"}
}

func (r *RustParser) Parse(ctx context.Context, filename string, content []byte) (*parser.FileSymbols, error) {
	tree, err := r.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &parser.FileSymbols{
		Path:     filename,
		Language: "rust",
		Symbols:  make([]parser.Symbol, 0),
	}
	r.extractSymbols(tree.RootNode(), content, result, "")
	return result, nil
}

// extractSymbols walks items. container is the impl or trait type the
// current items belong to; functions inside one are methods.
func (r *RustParser) extractSymbols(node *sitter.Node, content []byte, result *parser.FileSymbols, container string) {
	switch node.Type() {
	case "function_item", "function_signature_item":
		kind := parser.SymbolFunction
		if container != "" {
			kind = parser.SymbolMethod
		}
		if sym := r.named(node, content, kind); sym != nil {
			sym.Container = container
			sym.Signature = r.buildFunctionSignature(node, content)
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "struct_item", "union_item":
		r.add(node, content, parser.SymbolStruct, "struct", result)
		return

	case "enum_item":
		r.add(node, content, parser.SymbolEnum, "enum", result)
		return

	case "type_item":
		r.add(node, content, parser.SymbolType, "type", result)
		return

	case "trait_item":
		sym := r.add(node, content, parser.SymbolInterface, "trait", result)
		if sym != nil {
			r.walkBody(node, content, result, sym.Name)
		}
		return

	case "impl_item":
		typ := ""
		if typeNode := node.ChildByFieldName("type"); typeNode != nil {
			typ = implType(typeNode.Content(content))
		}
		r.walkBody(node, content, result, typ)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		r.extractSymbols(node.Child(i), content, result, container)
	}
}

func (r *RustParser) walkBody(node *sitter.Node, content []byte, result *parser.FileSymbols, container string) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		r.extractSymbols(body.Child(i), content, result, container)
	}
}

func (r *RustParser) add(node *sitter.Node, content []byte, kind parser.SymbolKind, keyword string, result *parser.FileSymbols) *parser.Symbol {
	sym := r.named(node, content, kind)
	if sym == nil {
		return nil
	}
	sym.Signature = keyword + " " + sym.Name
	result.Symbols = append(result.Symbols, *sym)
	return sym
}

func (r *RustParser) named(node *sitter.Node, content []byte, kind parser.SymbolKind) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &parser.Symbol{
		Name:   nameNode.Content(content),
		Kind:   kind,
		Line:   line(nameNode),
		Column: column(nameNode),
	}
}

func (r *RustParser) buildFunctionSignature(node *sitter.Node, content []byte) string {
	sig := "fn"
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		sig += " " + nameNode.Content(content)
	}
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		sig += compact(paramsNode.Content(content))
	}
	if returnNode := node.ChildByFieldName("return_type"); returnNode != nil {
		sig += " -> " + compact(returnNode.Content(content))
	}
	return sig
}

// implType reduces "Store<K, V>" or "crate::db::Store" to "Store".
func implType(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "<"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndex(raw, "::"); i >= 0 {
		raw = raw[i+2:]
	}
	return strings.TrimLeft(raw, "&")
}
