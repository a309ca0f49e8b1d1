// Package drift compares the code symbols that schemas and funcs declare
// through impl.bind, impl.lang and impl.path against the symbols found in
// a source tree.
package drift

import "strings"

type Kind string

const (
	KindSchema Kind = "schema"
	KindFunc   Kind = "func"
)

// LanguageEither accepts code in any language.
const LanguageEither = "either"

// Expected is one schema or func that should exist in code.
type Expected struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Bind string `json:"impl_bind,omitempty"`
	Lang string `json:"impl_lang,omitempty"`
	Path string `json:"impl_path,omitempty"`
	File string `json:"file"`
	Line int    `json:"line,omitempty"`

	local string
}

// SearchName is impl.bind when set, else the local name.
func (e Expected) SearchName() string {
	if e.Bind != "" {
		return e.Bind
	}
	return e.local
}

// MatchesLanguage reports whether code in lang can implement e. An unset
// impl.lang or "either" accepts any language.
func (e Expected) MatchesLanguage(lang string) bool {
	want := NormalizeLanguage(e.Lang)
	if want == "" || want == LanguageEither {
		return true
	}
	return want == NormalizeLanguage(lang)
}

// NormalizeLanguage folds the accepted spellings of a language onto the
// scanner's names.
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "ts", "typescript", "tsx", "js", "javascript":
		return "typescript"
	case "rs", "rust":
		return "rust"
	case "go", "golang":
		return "go"
	case LanguageEither, "both", "any":
		return LanguageEither
	case "":
		return ""
	default:
		return strings.ToLower(strings.TrimSpace(lang))
	}
}

// Found is a code symbol. Kind uses the language server protocol's
// SymbolKind names.
type Found struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Container string `json:"container,omitempty"`
	Language  string `json:"language,omitempty"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column,omitempty"`
}

func (f Found) key() string {
	return f.File + ":" + f.Container + "." + f.Name + ":" + f.Kind
}

type Match struct {
	Expected Expected `json:"expected"`
	Found    Found    `json:"found"`
}

type Ambiguity struct {
	Expected   Expected `json:"expected"`
	Candidates []Found  `json:"candidates"`
}

type Result struct {
	Matched   []Match     `json:"matched"`
	Missing   []Expected  `json:"missing"`
	Ambiguous []Ambiguity `json:"ambiguous"`
	Extra     []Found     `json:"extra"`
}

// HasIssues reports any missing, ambiguous or extra symbol.
func (r Result) HasIssues() bool {
	return len(r.Missing) > 0 || len(r.Ambiguous) > 0 || len(r.Extra) > 0
}

func (r Result) TotalExpected() int {
	return len(r.Matched) + len(r.Missing) + len(r.Ambiguous)
}

func (r Result) TotalFound() int {
	return len(r.Matched) + len(r.Extra)
}
