package parser

// SymbolKind represents the type of code symbol
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolMethod
	SymbolClass
	SymbolStruct
	SymbolInterface
	SymbolEnum
	SymbolType
	SymbolVariable
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFunction:
		return "func"
	case SymbolMethod:
		return "method"
	case SymbolClass:
		return "class"
	case SymbolStruct:
		return "struct"
	case SymbolInterface:
		return "interface"
	case SymbolEnum:
		return "enum"
	case SymbolType:
		return "type"
	case SymbolVariable:
		return "var"
	default:
		return "unknown"
	}
}

// Symbol is a declaration found in source code.
type Symbol struct {
	ID        string
	Name      string
	Kind      SymbolKind
	Container string // receiver, class, impl or trait the symbol belongs to
	Signature string // e.g., "func(ctx context.Context, id string) (*User, error)"
	File      string // relative file path
	Line      int
	Column    int
}

// FileSymbols holds all symbols extracted from a single file
type FileSymbols struct {
	Path     string
	Language string
	Symbols  []Symbol
	Hash     string
}

// ParseIssue captures non-fatal parser warnings/errors encountered while scanning files.
type ParseIssue struct {
	File     string `json:"file"`
	Language string `json:"language,omitempty"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// ParseResult holds the symbols of every scanned file under RootPath.
type ParseResult struct {
	Files    []FileSymbols
	RootPath string
	Issues   []ParseIssue
}

// Symbols flattens the result, in file order.
func (r *ParseResult) Symbols() []Symbol {
	var out []Symbol
	for _, f := range r.Files {
		out = append(out, f.Symbols...)
	}
	return out
}
