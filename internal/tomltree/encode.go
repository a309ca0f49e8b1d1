package tomltree

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Encode renders root as TOML, keeping key order. Scalars and inline
// tables are written before subtables, which become [dotted.headers].
func Encode(root *Table) []byte {
	var buf bytes.Buffer
	encodeTable(&buf, root, nil)
	return buf.Bytes()
}

// KeyValue renders one "key = value" line.
func KeyValue(key string, v *Value) string {
	return formatKey(key) + " = " + formatValue(v)
}

func encodeTable(buf *bytes.Buffer, t *Table, path []string) {
	var subtables []string
	for _, key := range t.keys {
		v := t.values[key]
		if v.Kind == TableKind && !v.Table.Inline {
			subtables = append(subtables, key)
			continue
		}
		fmt.Fprintf(buf, "%s = %s\n", formatKey(key), formatValue(v))
	}

	for _, key := range subtables {
		child := t.values[key].Table
		childPath := append(append([]string{}, path...), key)
		if child.hasBody() {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			fmt.Fprintf(buf, "[%s]\n", formatPath(childPath))
		}
		encodeTable(buf, child, childPath)
	}
}

func (t *Table) hasBody() bool {
	for _, key := range t.keys {
		v := t.values[key]
		if v.Kind != TableKind || v.Table.Inline {
			return true
		}
	}
	return len(t.keys) == 0
}

func formatPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = formatKey(p)
	}
	return strings.Join(parts, ".")
}

func formatKey(key string) string {
	if key == "" {
		return `""`
	}
	for _, r := range key {
		if !(r == '_' || r == '-' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			return quote(key)
		}
	}
	return key
}

func formatValue(v *Value) string {
	switch v.Kind {
	case String:
		return quote(v.Str)
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		switch {
		case math.IsInf(v.Float, 1):
			return "inf"
		case math.IsInf(v.Float, -1):
			return "-inf"
		case math.IsNaN(v.Float):
			return "nan"
		}
		s := strconv.FormatFloat(v.Float, 'f', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Datetime:
		return v.Str
	case Array:
		items := make([]string, len(v.Items))
		for i, item := range v.Items {
			items[i] = formatValue(item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case TableKind:
		entries := make([]string, 0, len(v.Table.keys))
		for _, key := range v.Table.keys {
			entries = append(entries, formatKey(key)+" = "+formatValue(v.Table.values[key]))
		}
		if len(entries) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(entries, ", ") + " }"
	default:
		return `""`
	}
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
