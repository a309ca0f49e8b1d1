package drift

import (
	"sort"
	"strings"
)

var (
	funcKinds   = map[string]bool{"Function": true, "Method": true, "Variable": true}
	schemaKinds = map[string]bool{"Interface": true, "Class": true, "Struct": true, "Enum": true, "Type": true}

	// extraKinds are the found kinds worth reporting when nothing claims
	// them; variables and aliases are too noisy.
	extraKinds = map[string]bool{"Function": true, "Method": true, "Interface": true, "Class": true, "Struct": true, "Enum": true}
)

// Options narrows a comparison. Language, when set, skips expected
// symbols bound to another language and found symbols in another one.
type Options struct {
	Language string
}

// Compare matches every expected symbol against found by search name,
// kind, language and impl.path. No candidate is missing, one is a match
// and several are ambiguous. Found symbols no expectation claimed are
// extra.
func Compare(expected []Expected, found []Found, opts Options) Result {
	res := Result{
		Matched:   []Match{},
		Missing:   []Expected{},
		Ambiguous: []Ambiguity{},
		Extra:     []Found{},
	}
	lang := NormalizeLanguage(opts.Language)
	if lang == LanguageEither {
		lang = ""
	}

	byName := make(map[string][]Found)
	for _, f := range found {
		if lang != "" && NormalizeLanguage(f.Language) != lang {
			continue
		}
		byName[f.Name] = append(byName[f.Name], f)
	}

	claimed := make(map[string]bool)
	for _, exp := range expected {
		if lang != "" && !exp.MatchesLanguage(lang) {
			continue
		}
		candidates := candidatesFor(exp, byName[exp.SearchName()])
		switch len(candidates) {
		case 0:
			res.Missing = append(res.Missing, exp)
		case 1:
			res.Matched = append(res.Matched, Match{Expected: exp, Found: candidates[0]})
			claimed[candidates[0].key()] = true
		default:
			res.Ambiguous = append(res.Ambiguous, Ambiguity{Expected: exp, Candidates: candidates})
			for _, c := range candidates {
				claimed[c.key()] = true
			}
		}
	}

	for _, f := range found {
		if lang != "" && NormalizeLanguage(f.Language) != lang {
			continue
		}
		if !claimed[f.key()] && extraKinds[f.Kind] {
			res.Extra = append(res.Extra, f)
		}
	}
	sortFound(res.Extra)
	return res
}

func candidatesFor(exp Expected, named []Found) []Found {
	var out []Found
	for _, f := range named {
		if !kindMatches(exp.Kind, f.Kind) {
			continue
		}
		if f.Language != "" && !exp.MatchesLanguage(f.Language) {
			continue
		}
		if exp.Path != "" && !pathMatches(exp.Path, f) {
			continue
		}
		out = append(out, f)
	}
	sortFound(out)
	return out
}

func kindMatches(kind Kind, found string) bool {
	switch kind {
	case KindFunc:
		return funcKinds[found]
	case KindSchema:
		return schemaKinds[found]
	}
	return false
}

// pathMatches accepts a symbol whose file lies under path, or whose
// container and path contain one another.
func pathMatches(path string, f Found) bool {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return true
	}
	if strings.Contains(f.File, path) {
		return true
	}
	if f.Container == "" {
		return false
	}
	return strings.Contains(f.Container, path) || strings.Contains(path, f.Container)
}

func sortFound(fs []Found) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].File != fs[j].File {
			return fs[i].File < fs[j].File
		}
		if fs[i].Line != fs[j].Line {
			return fs[i].Line < fs[j].Line
		}
		return fs[i].Name < fs[j].Name
	})
}

func sortExpected(es []Expected) {
	sort.Slice(es, func(i, j int) bool { return es[i].Name < es[j].Name })
}
