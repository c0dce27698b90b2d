// Package render turns a value (a filtered document, a message, or
// nothing) into display text. It is side-effect free; callers own the
// surface the text lands on.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tablescope/tablescope/internal/result"
)

// Mode selects the JSON layout of the displayed document.
type Mode int

const (
	ModePretty Mode = iota
	ModeCompact
)

func (m Mode) String() string {
	if m == ModeCompact {
		return "compact"
	}
	return "pretty"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModePretty {
		return ModeCompact
	}
	return ModePretty
}

// Text renders v for display. Strings pass through unchanged (status and
// error messages are their own payload), nil renders as a blank display,
// and anything else is JSON-encoded per mode.
func Text(v any, mode Mode) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		var (
			b   []byte
			err error
		)
		if mode == ModeCompact {
			b, err = json.Marshal(val)
		} else {
			b, err = json.MarshalIndent(val, "", "  ")
		}
		if err != nil {
			return fmt.Sprintf("render error: %v", err)
		}
		return string(b)
	}
}

// Markdown renders the document's tables as GitHub-flavored pipe tables,
// one section per table. Used by the web view (converted to HTML) and as
// a human-readable export shape.
func Markdown(doc *result.Document) string {
	tables := doc.Tables()
	if len(tables) == 0 {
		return "_No tables to display._\n"
	}
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### Page %d · Table %d\n\n", t.Page, t.TableIndex)
		writePipeTable(&b, t)
	}
	return b.String()
}

func writePipeTable(b *strings.Builder, t result.Table) {
	width := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		b.WriteString("_empty table_\n")
		return
	}

	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			b.WriteString(" " + escapeCell(v) + " |")
		}
		b.WriteString("\n")
	}

	writeRow(t.Headers)
	b.WriteString("|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = CellString(c)
		}
		writeRow(cells)
	}
}

// CellString renders one opaque cell value as text. Nulls become the
// empty string, matching the backend's CSV export.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		// JSON numbers decode as float64; print integers without a
		// fractional part.
		if c == float64(int64(c)) {
			return fmt.Sprintf("%d", int64(c))
		}
		return fmt.Sprintf("%g", c)
	case bool:
		return fmt.Sprintf("%t", c)
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprint(c)
		}
		return string(b)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
