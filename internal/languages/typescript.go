package languages

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/morozRed/blueprint/internal/parser"
)

// TypeScriptParser implements parsing for TypeScript/JavaScript source files
type TypeScriptParser struct {
	tsParser  *sitter.Parser
	tsxParser *sitter.Parser
	jsParser  *sitter.Parser
}

func NewTypeScriptParser() *TypeScriptParser {
	ts := sitter.NewParser()
	ts.SetLanguage(typescript.GetLanguage())

	tsxp := sitter.NewParser()
	tsxp.SetLanguage(tsx.GetLanguage())

	js := sitter.NewParser()
	js.SetLanguage(javascript.GetLanguage())

	return &TypeScriptParser{
		tsParser:  ts,
		tsxParser: tsxp,
		jsParser:  js,
	}
}

func (t *TypeScriptParser) Language() string {
	return "typescript"
}

func (t *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}

func (t *TypeScriptParser) Parse(ctx context.Context, filename string, content []byte) (*parser.FileSymbols, error) {
	p := t.tsParser
	lang := "typescript"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsx":
		p = t.tsxParser
	case ".js", ".jsx", ".mjs", ".cjs":
		p = t.jsParser
		lang = "javascript"
	}

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &parser.FileSymbols{
		Path:     filename,
		Language: lang,
		Symbols:  make([]parser.Symbol, 0),
	}
	t.extractSymbols(tree.RootNode(), content, result, "")
	return result, nil
}

func (t *TypeScriptParser) extractSymbols(node *sitter.Node, content []byte, result *parser.FileSymbols, className string) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if sym := t.named(node, content, parser.SymbolFunction, t.buildFunctionSignature); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "method_definition":
		if sym := t.named(node, content, parser.SymbolMethod, t.buildMethodSignature); sym != nil {
			sym.Container = className
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "class_declaration", "abstract_class_declaration":
		sym := t.named(node, content, parser.SymbolClass, t.buildClassSignature)
		if sym == nil {
			return
		}
		result.Symbols = append(result.Symbols, *sym)
		if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
			for i := 0; i < int(bodyNode.ChildCount()); i++ {
				t.extractSymbols(bodyNode.Child(i), content, result, sym.Name)
			}
		}
		return

	case "interface_declaration":
		if sym := t.named(node, content, parser.SymbolInterface, keywordSignature("interface")); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "type_alias_declaration":
		if sym := t.named(node, content, parser.SymbolType, keywordSignature("type")); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "enum_declaration":
		if sym := t.named(node, content, parser.SymbolEnum, keywordSignature("enum")); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		return

	case "lexical_declaration", "variable_declaration":
		result.Symbols = append(result.Symbols, t.extractVariableDeclarations(node, content)...)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		t.extractSymbols(node.Child(i), content, result, className)
	}
}

type signatureFunc func(node *sitter.Node, content []byte) string

func (t *TypeScriptParser) named(node *sitter.Node, content []byte, kind parser.SymbolKind, sig signatureFunc) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      kind,
		Signature: sig(node, content),
		Line:      line(nameNode),
		Column:    column(nameNode),
	}
}

// extractVariableDeclarations picks up const/let bindings to arrow
// functions and function expressions. Other bindings are variables.
func (t *TypeScriptParser) extractVariableDeclarations(node *sitter.Node, content []byte) []parser.Symbol {
	symbols := make([]parser.Symbol, 0)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			continue
		}
		valueNode := child.ChildByFieldName("value")

		sym := parser.Symbol{
			Name:      nameNode.Content(content),
			Kind:      parser.SymbolVariable,
			Signature: "const " + nameNode.Content(content),
			Line:      line(nameNode),
			Column:    column(nameNode),
		}
		if valueNode != nil && (valueNode.Type() == "arrow_function" || valueNode.Type() == "function" || valueNode.Type() == "function_expression") {
			sym.Kind = parser.SymbolFunction
			sym.Signature = t.buildArrowFunctionSignature(nameNode, valueNode, content)
		}
		symbols = append(symbols, sym)
	}
	return symbols
}

func (t *TypeScriptParser) buildFunctionSignature(node *sitter.Node, content []byte) string {
	return "function" + t.callableTail(node, content)
}

func (t *TypeScriptParser) buildMethodSignature(node *sitter.Node, content []byte) string {
	return strings.TrimSpace(t.callableTail(node, content))
}

func (t *TypeScriptParser) callableTail(node *sitter.Node, content []byte) string {
	sig := ""
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		sig += " " + nameNode.Content(content)
	}
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		sig += compact(paramsNode.Content(content))
	}
	if returnNode := node.ChildByFieldName("return_type"); returnNode != nil {
		sig += compact(returnNode.Content(content))
	}
	return sig
}

func (t *TypeScriptParser) buildClassSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	sig := "class " + nameNode.Content(content)
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "class_heritage" {
			sig += " " + compact(child.Content(content))
		}
	}
	return sig
}

func (t *TypeScriptParser) buildArrowFunctionSignature(nameNode, valueNode *sitter.Node, content []byte) string {
	sig := "const " + nameNode.Content(content) + " = "
	if paramsNode := valueNode.ChildByFieldName("parameters"); paramsNode != nil {
		sig += compact(paramsNode.Content(content))
	} else if paramNode := valueNode.ChildByFieldName("parameter"); paramNode != nil {
		sig += paramNode.Content(content)
	} else {
		sig += "()"
	}
	if returnNode := valueNode.ChildByFieldName("return_type"); returnNode != nil {
		sig += compact(returnNode.Content(content))
	}
	return sig + " =>"
}

func keywordSignature(keyword string) signatureFunc {
	return func(node *sitter.Node, content []byte) string {
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return keyword
		}
		return keyword + " " + nameNode.Content(content)
	}
}
