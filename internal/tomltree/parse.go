package tomltree

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

// SyntaxError reports a malformed document.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

var keyLinePattern = regexp.MustCompile(`^\s*([A-Za-z0-9_\-."']+?)\s*=`)

// Parse decodes data into an ordered table tree.
func Parse(data []byte) (*Table, error) {
	// The unstable parser skips semantic checks such as duplicate keys, so
	// the document is validated by the regular decoder first.
	var probe map[string]any
	if err := toml.Unmarshal(data, &probe); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, &SyntaxError{Line: row, Column: col, Message: decodeErr.Error()}
		}
		return nil, &SyntaxError{Message: err.Error()}
	}

	lines := scanLines(data)
	root := NewTable()
	root.Line = 1
	current := root

	p := unstable.Parser{}
	p.Reset(data)
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.Table:
			path := keyParts(expr.Key())
			table, err := descend(root, path, lines.headers[strings.Join(path, ".")])
			if err != nil {
				return nil, err
			}
			current = table
		case unstable.ArrayTable:
			path := keyParts(expr.Key())
			table, err := appendArrayTable(root, path, lines.headers[strings.Join(path, ".")])
			if err != nil {
				return nil, err
			}
			current = table
		case unstable.KeyValue:
			if err := setKeyValue(current, expr, lines); err != nil {
				return nil, err
			}
		}
	}
	if err := p.Error(); err != nil {
		return nil, &SyntaxError{Message: err.Error()}
	}
	return root, nil
}

func keyParts(it unstable.Iterator) []string {
	parts := make([]string, 0, 2)
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func descend(root *Table, path []string, line int) (*Table, error) {
	current := root
	for i, part := range path {
		v, ok := current.Get(part)
		if !ok {
			next := NewTable()
			if i == len(path)-1 {
				next.Line = line
			}
			current.Set(part, TableValue(next))
			current = next
			continue
		}
		switch v.Kind {
		case TableKind:
			current = v.Table
			if i == len(path)-1 && current.Line == 0 {
				current.Line = line
			}
		case Array:
			if len(v.Items) == 0 || v.Items[len(v.Items)-1].Kind != TableKind {
				return nil, &SyntaxError{Line: line, Message: fmt.Sprintf("key %q is not a table", strings.Join(path[:i+1], "."))}
			}
			current = v.Items[len(v.Items)-1].Table
		default:
			return nil, &SyntaxError{Line: line, Message: fmt.Sprintf("key %q is not a table", strings.Join(path[:i+1], "."))}
		}
	}
	return current, nil
}

func appendArrayTable(root *Table, path []string, line int) (*Table, error) {
	parent, err := descend(root, path[:len(path)-1], 0)
	if err != nil {
		return nil, err
	}
	last := path[len(path)-1]
	next := NewTable()
	next.Line = line
	v, ok := parent.Get(last)
	if !ok {
		parent.Set(last, &Value{Kind: Array, Items: []*Value{TableValue(next)}, Line: line})
		return next, nil
	}
	if v.Kind != Array {
		return nil, &SyntaxError{Line: line, Message: fmt.Sprintf("key %q is not an array of tables", strings.Join(path, "."))}
	}
	v.Items = append(v.Items, TableValue(next))
	return next, nil
}

func setKeyValue(table *Table, expr *unstable.Node, lines lineIndex) error {
	path := keyParts(expr.Key())
	target := table
	for _, part := range path[:len(path)-1] {
		v, ok := target.Get(part)
		if !ok {
			next := NewTable()
			next.Line = table.Line
			target.Set(part, TableValue(next))
			target = next
			continue
		}
		if v.Kind != TableKind {
			return &SyntaxError{Line: table.Line, Message: fmt.Sprintf("key %q is not a table", part)}
		}
		target = v.Table
	}

	value, err := convert(expr.Value())
	if err != nil {
		return err
	}
	value.Line = lines.keyLine(table, path[0])
	markLines(value, value.Line)
	target.Set(path[len(path)-1], value)
	return nil
}

func markLines(v *Value, line int) {
	switch v.Kind {
	case TableKind:
		if v.Table.Line == 0 {
			v.Table.Line = line
		}
		for _, key := range v.Table.keys {
			child := v.Table.values[key]
			if child.Line == 0 {
				child.Line = line
			}
			markLines(child, line)
		}
	case Array:
		for _, item := range v.Items {
			if item.Line == 0 {
				item.Line = line
			}
			markLines(item, line)
		}
	}
}

func convert(node *unstable.Node) (*Value, error) {
	switch node.Kind {
	case unstable.String:
		return &Value{Kind: String, Str: string(node.Data)}, nil
	case unstable.Bool:
		return &Value{Kind: Bool, Bool: string(node.Data) == "true"}, nil
	case unstable.Integer:
		raw := strings.ReplaceAll(string(node.Data), "_", "")
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return nil, &SyntaxError{Message: fmt.Sprintf("invalid integer %q", node.Data)}
		}
		return &Value{Kind: Integer, Int: n}, nil
	case unstable.Float:
		raw := strings.ReplaceAll(string(node.Data), "_", "")
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &SyntaxError{Message: fmt.Sprintf("invalid float %q", node.Data)}
		}
		return &Value{Kind: Float, Float: f}, nil
	case unstable.LocalDate, unstable.LocalTime, unstable.LocalDateTime, unstable.DateTime:
		return &Value{Kind: Datetime, Str: string(node.Data)}, nil
	case unstable.Array:
		out := &Value{Kind: Array}
		it := node.Children()
		for it.Next() {
			item, err := convert(it.Node())
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		}
		return out, nil
	case unstable.InlineTable:
		table := NewTable()
		table.Inline = true
		it := node.Children()
		for it.Next() {
			child := it.Node()
			if child.Kind != unstable.KeyValue {
				continue
			}
			path := keyParts(child.Key())
			target := table
			for _, part := range path[:len(path)-1] {
				next, ok := target.Table(part)
				if !ok {
					next = NewTable()
					next.Inline = true
					target.Set(part, TableValue(next))
				}
				target = next
			}
			value, err := convert(child.Value())
			if err != nil {
				return nil, err
			}
			target.Set(path[len(path)-1], value)
		}
		return TableValue(table), nil
	default:
		return nil, &SyntaxError{Message: fmt.Sprintf("unsupported value kind %s", node.Kind)}
	}
}

// lineIndex maps header paths and key/value declarations to 1-based lines.
type lineIndex struct {
	headers map[string]int
	keys    map[string]int
}

func (l lineIndex) keyLine(table *Table, key string) int {
	if line, ok := l.keys[fmt.Sprintf("%d:%s", table.Line, key)]; ok {
		return line
	}
	return table.Line
}

func scanLines(data []byte) lineIndex {
	index := lineIndex{headers: make(map[string]int), keys: make(map[string]int)}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	lineNo := 0
	headerLine := 1
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			header := strings.Trim(line, "[]")
			if end := strings.Index(line, "]"); end > 0 {
				header = strings.Trim(line[:end], "[")
			}
			path := splitHeader(header)
			if _, seen := index.headers[path]; !seen {
				index.headers[path] = lineNo
			}
			headerLine = lineNo
			continue
		}
		match := keyLinePattern.FindStringSubmatch(line)
		if len(match) != 2 {
			continue
		}
		first := splitHeader(match[1])
		if dot := strings.Index(first, "."); dot >= 0 {
			first = first[:dot]
		}
		key := fmt.Sprintf("%d:%s", headerLine, first)
		if _, seen := index.keys[key]; !seen {
			index.keys[key] = lineNo
		}
	}
	return index
}

func splitHeader(header string) string {
	parts := strings.Split(header, ".")
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `"'`)
	}
	return strings.Join(parts, ".")
}
