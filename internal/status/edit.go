package status

import (
	"fmt"
	"strings"

	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/tomltree"
)

// Edits work on source lines so comments and layout outside the touched
// keys survive.

const banner = `# ============================================================================
# IMPLEMENTATION STATUS
# ============================================================================
`

// Init appends a [status] section with a todo entry per module. It returns
// the new content and the modules it added.
func Init(data []byte, doc *document.Document, today string) ([]byte, []string, error) {
	if doc.Status != nil {
		return nil, nil, ErrStatusExists
	}
	if len(doc.Mods) == 0 {
		return nil, nil, ErrNoModules
	}

	var b strings.Builder
	b.WriteString(ensureBlankLine(string(data)))
	b.WriteString(banner)
	b.WriteString("\n[status]\n")
	b.WriteString(tomltree.KeyValue("updated_at", tomltree.StringValue(today)) + "\n")
	added := make([]string, 0, len(doc.Mods))
	for _, mod := range doc.Mods {
		b.WriteString(newEntry(mod.Name))
		added = append(added, "mod."+mod.Name)
	}
	return reparse(doc.Path, b.String(), added)
}

// Sync appends entries for modules that have none and bumps updated_at.
// Nothing changes when every module already has an entry.
func Sync(data []byte, doc *document.Document, today string) ([]byte, []string, error) {
	if doc.Status == nil {
		return nil, nil, ErrNoStatus
	}
	var missing []string
	var b strings.Builder
	for _, mod := range doc.Mods {
		if _, ok := moduleStatus(doc, mod.Name); ok {
			continue
		}
		missing = append(missing, "mod."+mod.Name)
		b.WriteString(newEntry(mod.Name))
	}
	if len(missing) == 0 {
		return data, nil, nil
	}
	text := fileutil.EnsureTrailingNewline(string(data)) + b.String()
	text = touch(text, today)
	return reparse(doc.Path, text, missing)
}

// Set changes one module's entry and bumps updated_at.
func Set(data []byte, doc *document.Document, name string, u Update, today string) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	local := LocalName(name)
	if doc.Mod(local) == nil {
		return nil, fmt.Errorf("module mod.%s not found in %s", local, doc.Path)
	}
	if doc.Status == nil {
		return nil, ErrNoStatus
	}
	if _, ok := moduleStatus(doc, local); !ok {
		return nil, fmt.Errorf("mod.%s has no status entry (run status sync first)", local)
	}

	lines := splitLines(string(data))
	start := findHeader(lines, "status.mod."+local)
	if start < 0 {
		return nil, fmt.Errorf("status for mod.%s is not written as a [status.mod.%s] table", local, local)
	}
	if u.State != nil {
		lines = setKey(lines, start, "state", tomltree.StringValue(*u.State))
	}
	if u.Coverage != nil {
		lines = setKey(lines, start, "coverage", tomltree.FloatValue(*u.Coverage))
	}
	if u.Notes != nil {
		lines = setKey(lines, start, "notes", tomltree.StringValue(*u.Notes))
	}
	out, _, err := reparse(doc.Path, touch(strings.Join(lines, ""), today), nil)
	return out, err
}

func newEntry(local string) string {
	return fmt.Sprintf("\n[status.mod.%s]\n%s\n%s\n%s\n", local,
		tomltree.KeyValue("state", tomltree.StringValue(InitialState)),
		tomltree.KeyValue("coverage", tomltree.FloatValue(0)),
		tomltree.KeyValue("notes", tomltree.StringValue("")))
}

// touch sets [status].updated_at, adding the [status] header above the
// first status subtable when the section only exists implicitly.
func touch(text, today string) string {
	lines := splitLines(text)
	value := tomltree.StringValue(today)
	if start := findHeader(lines, "status"); start >= 0 {
		return strings.Join(setKey(lines, start, "updated_at", value), "")
	}
	for i, line := range lines {
		if strings.HasPrefix(headerName(line), "status.") {
			head := []string{"[status]\n", tomltree.KeyValue("updated_at", value) + "\n", "\n"}
			lines = append(lines[:i], append(head, lines[i:]...)...)
			break
		}
	}
	return strings.Join(lines, "")
}

// setKey replaces key's line in the table whose header is at start, or
// inserts it after the table's last non-blank line.
func setKey(lines []string, start int, key string, v *tomltree.Value) []string {
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "[") {
			end = i
			break
		}
	}
	line := tomltree.KeyValue(key, v) + "\n"
	last := start
	for i := start + 1; i < end; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		last = i
		if k, _, ok := strings.Cut(trimmed, "="); ok && strings.TrimSpace(k) == key {
			lines[i] = line
			return lines
		}
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:last+1]...)
	if !strings.HasSuffix(out[len(out)-1], "\n") {
		out[len(out)-1] += "\n"
	}
	out = append(out, line)
	return append(out, lines[last+1:]...)
}

func findHeader(lines []string, name string) int {
	for i, line := range lines {
		if headerName(line) == name {
			return i
		}
	}
	return -1
}

// headerName returns the dotted name of a [table] header line, or "".
func headerName(line string) string {
	trimmed := strings.TrimSpace(line)
	if i := strings.Index(trimmed, "#"); i >= 0 {
		trimmed = strings.TrimSpace(trimmed[:i])
	}
	if !strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "[[") || !strings.HasSuffix(trimmed, "]") {
		return ""
	}
	parts := strings.Split(trimmed[1:len(trimmed)-1], ".")
	for i := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `"`)
	}
	return strings.Join(parts, ".")
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.SplitAfter(text, "\n")
}

func ensureBlankLine(s string) string {
	if s == "" {
		return s
	}
	s = fileutil.EnsureTrailingNewline(s)
	if strings.HasSuffix(s, "\n\n") {
		return s
	}
	return s + "\n"
}

// reparse checks the edited text still parses as a document.
func reparse(path, text string, added []string) ([]byte, []string, error) {
	if _, err := document.Parse(path, []byte(text)); err != nil {
		return nil, nil, fmt.Errorf("edited status no longer parses: %w", err)
	}
	return []byte(text), added, nil
}
