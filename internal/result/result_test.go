package result

import (
	"encoding/json"
	"errors"
	"testing"
)

const sampleResult = `{
	"id": "r1",
	"filename": "report.pdf",
	"created_at": "2026-08-01T10:00:00Z",
	"use_llm": false,
	"tables": [
		{"page": 1, "table_index": 0, "headers": ["Name", "Qty"], "rows": [["Widget", 3]]},
		{"page": 1, "table_index": 1, "headers": ["City"], "rows": [["Oslo"]]},
		{"page": 2, "table_index": 0, "headers": [], "rows": []}
	]
}`

func TestParse_KnownFields(t *testing.T) {
	doc, err := Parse([]byte(sampleResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.HasTables() {
		t.Fatal("expected HasTables to be true")
	}
	tables := doc.Tables()
	if len(tables) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(tables))
	}
	if tables[0].Page != 1 || tables[0].TableIndex != 0 {
		t.Errorf("table[0]: expected (1,0), got (%d,%d)", tables[0].Page, tables[0].TableIndex)
	}
	if tables[2].Page != 2 {
		t.Errorf("table[2]: expected page 2, got %d", tables[2].Page)
	}
	if tables[0].Headers[1] != "Qty" {
		t.Errorf("expected header %q, got %q", "Qty", tables[0].Headers[1])
	}
}

func TestParse_OpaqueFieldsSurvive(t *testing.T) {
	doc, err := Parse([]byte(sampleResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "r1" {
		t.Errorf("expected id %q, got %q", "r1", doc.ID())
	}
	if doc.Filename() != "report.pdf" {
		t.Errorf("expected filename %q, got %q", "report.pdf", doc.Filename())
	}
	if doc.StringField("created_at") != "2026-08-01T10:00:00Z" {
		t.Errorf("expected created_at to pass through, got %q", doc.StringField("created_at"))
	}
}

func TestParse_MalformedTopLevel(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `42`, `not json`} {
		if _, err := Parse([]byte(body)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Parse(%q): expected ErrMalformed, got %v", body, err)
		}
	}
}

func TestParse_AbsentTablesIsValid(t *testing.T) {
	doc, err := Parse([]byte(`{"id":"r2","message":"no tabular content"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.HasTables() {
		t.Error("expected HasTables to be false")
	}
	if len(doc.Tables()) != 0 {
		t.Errorf("expected no tables, got %d", len(doc.Tables()))
	}
	if doc.StringField("message") != "no tabular content" {
		t.Error("expected unknown field to be retained")
	}
}

func TestParse_NonArrayTablesKeptOpaque(t *testing.T) {
	doc, err := Parse([]byte(`{"id":"r3","tables":"pending"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.HasTables() {
		t.Error("expected non-array tables field to not count as tables")
	}
	if doc.StringField("tables") != "pending" {
		t.Error("expected non-array tables field to be carried opaquely")
	}
}

func TestMarshalJSON_Deterministic(t *testing.T) {
	doc, err := Parse([]byte(sampleResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("expected byte-identical output for identical input")
	}

	// Round trip keeps every field.
	doc2, err := Parse(a)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if doc2.ID() != "r1" || len(doc2.Tables()) != 3 {
		t.Errorf("round trip lost data: id=%q tables=%d", doc2.ID(), len(doc2.Tables()))
	}
	if doc2.StringField("created_at") != "2026-08-01T10:00:00Z" {
		t.Error("round trip lost opaque field")
	}
}

func TestTableMatches_CaseInsensitive(t *testing.T) {
	doc, err := Parse([]byte(sampleResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tables := doc.Tables()
	if !tables[0].Matches("WIDGET") {
		t.Error("expected case-insensitive match on cell content")
	}
	if !tables[0].Matches("qty") {
		t.Error("expected match on header content")
	}
	if tables[1].Matches("widget") {
		t.Error("expected no match for content from another table")
	}
	if !tables[2].Matches("") {
		t.Error("expected empty query to match everything")
	}
}

func TestWithTables_ShallowClone(t *testing.T) {
	doc, err := Parse([]byte(sampleResult))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	narrowed := doc.WithTables(doc.Tables()[:1])
	if len(narrowed.Tables()) != 1 {
		t.Fatalf("expected 1 table, got %d", len(narrowed.Tables()))
	}
	if narrowed.ID() != "r1" {
		t.Error("expected extra fields to pass through clone")
	}
	if len(doc.Tables()) != 3 {
		t.Error("expected original document to be untouched")
	}
}
