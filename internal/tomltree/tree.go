// Package tomltree holds an order-preserving view of a TOML document. Every
// table remembers the order its keys were declared in and the line that
// declared it, so callers can report diagnostics in document order.
package tomltree

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	String Kind = iota
	Integer
	Float
	Bool
	Datetime
	Array
	TableKind
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Datetime:
		return "datetime"
	case Array:
		return "array"
	case TableKind:
		return "table"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one TOML value. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	Bool  bool
	Items []*Value
	Table *Table
	Line  int
}

type Table struct {
	Line   int
	Inline bool
	keys   []string
	values map[string]*Value
}

func NewTable() *Table {
	return &Table{values: make(map[string]*Value)}
}

func StringValue(s string) *Value {
	return &Value{Kind: String, Str: s}
}

func FloatValue(f float64) *Value {
	return &Value{Kind: Float, Float: f}
}

func StringArray(items []string) *Value {
	v := &Value{Kind: Array, Items: make([]*Value, 0, len(items))}
	for _, item := range items {
		v.Items = append(v.Items, StringValue(item))
	}
	return v
}

func TableValue(t *Table) *Value {
	return &Value{Kind: TableKind, Table: t}
}

// Keys returns keys in declaration order.
func (t *Table) Keys() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

func (t *Table) Get(key string) (*Value, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.values[key]
	return v, ok
}

// Set stores v under key. Existing keys keep their original position.
func (t *Table) Set(key string, v *Value) {
	if t.values == nil {
		t.values = make(map[string]*Value)
	}
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

func (t *Table) Delete(key string) {
	if _, ok := t.values[key]; !ok {
		return
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Table returns the subtable stored under key, if any.
func (t *Table) Table(key string) (*Table, bool) {
	v, ok := t.Get(key)
	if !ok || v.Kind != TableKind {
		return nil, false
	}
	return v.Table, true
}

// Path walks dotted subtables, e.g. Path("deploy", "job").
func (t *Table) Path(keys ...string) (*Table, bool) {
	current := t
	for _, key := range keys {
		next, ok := current.Table(key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// String returns a trimmed string value. Non-string values read as absent.
func (t *Table) String(key string) (string, bool) {
	v, ok := t.Get(key)
	if !ok || v.Kind != String {
		return "", false
	}
	return strings.TrimSpace(v.Str), true
}

// StringOr is String with a fallback for absent keys.
func (t *Table) StringOr(key, fallback string) string {
	if s, ok := t.String(key); ok {
		return s
	}
	return fallback
}

// Strings reads an array of strings. A plain string is treated as an
// inline-brace set such as "{ a, b }".
func (t *Table) Strings(key string) []string {
	v, ok := t.Get(key)
	if !ok {
		return nil
	}
	switch v.Kind {
	case Array:
		out := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			if item.Kind == String {
				out = append(out, strings.TrimSpace(item.Str))
			}
		}
		return out
	case String:
		return ParseBraceSet(v.Str)
	default:
		return nil
	}
}

// Number reads an integer or float as float64. Numeric strings are accepted.
func (t *Table) Number(key string) (float64, bool) {
	v, ok := t.Get(key)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case Integer:
		return float64(v.Int), true
	case Float:
		return v.Float, true
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// KeyLine returns the line of the key/value declaration, or the table line
// when the key was not found.
func (t *Table) KeyLine(key string) int {
	if v, ok := t.Get(key); ok && v.Line > 0 {
		return v.Line
	}
	if t == nil {
		return 0
	}
	return t.Line
}

// ParseBraceSet splits "{ a, "b" }" into its trimmed, unquoted entries.
func ParseBraceSet(input string) []string {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.Trim(strings.TrimSpace(part), `"`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
