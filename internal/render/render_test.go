package render

import (
	"strings"
	"testing"

	"github.com/tablescope/tablescope/internal/result"
)

func parseDoc(t *testing.T, body string) *result.Document {
	t.Helper()
	doc, err := result.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestText_NilIsBlank(t *testing.T) {
	if got := Text(nil, ModePretty); got != "" {
		t.Errorf("expected blank display for nil, got %q", got)
	}
}

func TestText_MessagePassesThrough(t *testing.T) {
	msg := "upload failed: connection refused"
	if got := Text(msg, ModeCompact); got != msg {
		t.Errorf("expected message unchanged, got %q", got)
	}
}

func TestText_PrettyVsCompact(t *testing.T) {
	doc := parseDoc(t, `{"id":"r1","tables":[{"page":1,"table_index":0}]}`)
	pretty := Text(doc, ModePretty)
	compact := Text(doc, ModeCompact)

	if !strings.Contains(pretty, "\n") {
		t.Error("expected pretty output to be indented across lines")
	}
	if strings.Contains(compact, "\n") {
		t.Error("expected compact output on a single line")
	}
	if !strings.Contains(compact, `"id":"r1"`) {
		t.Errorf("expected compact output to contain the id, got %q", compact)
	}
}

func TestMode_Toggle(t *testing.T) {
	if ModePretty.Toggle() != ModeCompact || ModeCompact.Toggle() != ModePretty {
		t.Error("expected toggle to flip between the two modes")
	}
	if ModePretty.String() != "pretty" || ModeCompact.String() != "compact" {
		t.Error("unexpected mode names")
	}
}

func TestMarkdown_PipeTables(t *testing.T) {
	doc := parseDoc(t, `{"tables":[
		{"page":2,"table_index":1,"headers":["Name","Total"],"rows":[["Widget",12],["Gad|get",null]]}
	]}`)
	md := Markdown(doc)

	if !strings.Contains(md, "### Page 2 · Table 1") {
		t.Errorf("expected section heading, got:\n%s", md)
	}
	if !strings.Contains(md, "| Name | Total |") {
		t.Errorf("expected header row, got:\n%s", md)
	}
	if !strings.Contains(md, "| --- | --- |") {
		t.Errorf("expected separator row, got:\n%s", md)
	}
	if !strings.Contains(md, "| Widget | 12 |") {
		t.Errorf("expected data row with integer cell, got:\n%s", md)
	}
	if !strings.Contains(md, `Gad\|get`) {
		t.Errorf("expected pipe escaped inside a cell, got:\n%s", md)
	}
	if !strings.Contains(md, `| Gad\|get |  |`) {
		t.Errorf("expected null cell rendered empty, got:\n%s", md)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	doc := parseDoc(t, `{"tables":[]}`)
	if got := Markdown(doc); !strings.Contains(got, "No tables") {
		t.Errorf("expected empty notice, got %q", got)
	}
}

func TestCellString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{float64(3), "3"},
		{float64(2.5), "2.5"},
		{true, "true"},
	}
	for _, c := range cases {
		if got := CellString(c.in); got != c.want {
			t.Errorf("CellString(%v): expected %q, got %q", c.in, c.want, got)
		}
	}
}
