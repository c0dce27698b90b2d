// Package result models a single extraction result as returned by the
// backend: a JSON object with an ordered list of extracted tables plus
// whatever other top-level fields the server chose to include. Documents
// are immutable once parsed; a new fetch replaces the old document
// wholesale.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is returned by Parse when the response body cannot be
// treated as a JSON object. Callers are expected to degrade to Empty()
// rather than fail the session.
var ErrMalformed = errors.New("result is not a JSON object")

// Table is one extracted table, addressed by (page, table index).
type Table struct {
	Page       int
	TableIndex int
	Headers    []string
	Rows       [][]any

	raw    json.RawMessage
	search string
}

// Raw returns the table's original JSON encoding, byte for byte.
func (t Table) Raw() json.RawMessage { return t.raw }

// Matches reports whether the lowercased JSON serialization of the whole
// record contains query (case-insensitive). An empty query matches.
func (t Table) Matches(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(t.search, strings.ToLower(query))
}

// Document is the full extraction result for one upload. Top-level fields
// other than "tables" are carried opaquely and survive re-serialization.
type Document struct {
	tables    []Table
	hasTables bool
	extra     map[string]json.RawMessage
}

// Empty returns a document with no tables and no extra fields. It stands
// in for a malformed response body.
func Empty() *Document {
	return &Document{}
}

// Parse decodes a backend response into a Document. It fails with
// ErrMalformed only when the top level is not an object; an absent or
// unusable "tables" field is valid and means "no tables".
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	doc := &Document{extra: make(map[string]json.RawMessage, len(top))}
	for k, v := range top {
		if k != "tables" {
			doc.extra[k] = v
		}
	}

	rawTables, ok := top["tables"]
	if !ok {
		return doc, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(rawTables, &entries); err != nil {
		// Not an array; keep it as an opaque field instead of failing.
		doc.extra["tables"] = rawTables
		return doc, nil
	}

	doc.hasTables = true
	doc.tables = make([]Table, 0, len(entries))
	for _, raw := range entries {
		var fields struct {
			Page       int      `json:"page"`
			TableIndex int      `json:"table_index"`
			Headers    []string `json:"headers"`
			Rows       [][]any  `json:"rows"`
		}
		// Lenient per entry: an undecodable record keeps zero values but
		// is still carried and searchable through its raw form.
		_ = json.Unmarshal(raw, &fields)
		doc.tables = append(doc.tables, Table{
			Page:       fields.Page,
			TableIndex: fields.TableIndex,
			Headers:    fields.Headers,
			Rows:       fields.Rows,
			raw:        raw,
			search:     strings.ToLower(string(raw)),
		})
	}
	return doc, nil
}

// HasTables reports whether the original response carried a "tables"
// array at all. Filtering is a no-op on documents without one.
func (d *Document) HasTables() bool { return d != nil && d.hasTables }

// Tables returns the document's tables in backend order. Callers must
// not mutate the returned slice.
func (d *Document) Tables() []Table {
	if d == nil {
		return nil
	}
	return d.tables
}

// WithTables returns a shallow clone with the table list replaced. All
// other fields pass through unchanged.
func (d *Document) WithTables(tables []Table) *Document {
	return &Document{
		tables:    tables,
		hasTables: d.hasTables,
		extra:     d.extra,
	}
}

// ID returns the backend-assigned result identifier, if present.
func (d *Document) ID() string { return d.StringField("id") }

// Filename returns the uploaded file's name, if the backend included it.
func (d *Document) Filename() string { return d.StringField("filename") }

// StringField decodes the named opaque top-level field as a string.
// Missing or non-string fields yield "".
func (d *Document) StringField(name string) string {
	if d == nil {
		return ""
	}
	raw, ok := d.extra[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// MarshalJSON re-serializes the document with every opaque field intact
// and tables in their original order. Keys are emitted sorted, so
// identical documents always encode to identical bytes.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.extra)+1)
	for k, v := range d.extra {
		out[k] = v
	}
	if d.hasTables {
		raws := make([]json.RawMessage, len(d.tables))
		for i, t := range d.tables {
			raws[i] = t.raw
		}
		encoded, err := json.Marshal(raws)
		if err != nil {
			return nil, err
		}
		out["tables"] = encoded
	}
	return json.Marshal(out)
}
