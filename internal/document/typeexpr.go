package document

import (
	"fmt"
	"regexp"
	"strings"
)

type TypeForm int

const (
	TypePrimitive TypeForm = iota
	TypeSchemaRef
	TypeArray
	TypeOptional
)

// Type is a parsed field type descriptor. Unions are not written inline;
// they are declared with a schema's over list.
type Type struct {
	Form TypeForm
	Name string
	Elem *Type
}

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	refPattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)*schema\.[A-Za-z_][A-Za-z0-9_]*$`)
)

// ParseType accepts a primitive identifier, a schema reference,
// array<T>, [T], optional<T> and T?.
func ParseType(desc string) (*Type, error) {
	s := strings.TrimSpace(desc)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty type")
	case strings.HasSuffix(s, "?"):
		elem, err := ParseType(strings.TrimSuffix(s, "?"))
		if err != nil {
			return nil, err
		}
		return &Type{Form: TypeOptional, Elem: elem}, nil
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return &Type{Form: TypeArray, Elem: elem}, nil
	case strings.HasSuffix(s, ">"):
		open := strings.Index(s, "<")
		if open <= 0 {
			return nil, fmt.Errorf("malformed generic type %q", s)
		}
		form := TypeArray
		switch strings.TrimSpace(s[:open]) {
		case "array":
		case "optional":
			form = TypeOptional
		default:
			return nil, fmt.Errorf("unknown type constructor %q", strings.TrimSpace(s[:open]))
		}
		elem, err := ParseType(s[open+1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return &Type{Form: form, Elem: elem}, nil
	case refPattern.MatchString(s):
		return &Type{Form: TypeSchemaRef, Name: s}, nil
	case identPattern.MatchString(s):
		return &Type{Form: TypePrimitive, Name: s}, nil
	default:
		return nil, fmt.Errorf("invalid type %q", s)
	}
}

// SchemaRefs lists the schema references inside t.
func (t *Type) SchemaRefs() []string {
	if t == nil {
		return nil
	}
	if t.Form == TypeSchemaRef {
		return []string{t.Name}
	}
	return t.Elem.SchemaRefs()
}

// MapRefs replaces every schema reference in t with fn's result and
// reports whether any changed.
func (t *Type) MapRefs(fn func(string) string) bool {
	switch {
	case t == nil:
		return false
	case t.Form == TypeSchemaRef:
		name := fn(t.Name)
		changed := name != t.Name
		t.Name = name
		return changed
	default:
		return t.Elem.MapRefs(fn)
	}
}

func (t *Type) String() string {
	switch t.Form {
	case TypeArray:
		return "array<" + t.Elem.String() + ">"
	case TypeOptional:
		return "optional<" + t.Elem.String() + ">"
	default:
		return t.Name
	}
}
