package filter

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/tablescope/tablescope/internal/result"
)

func mustParse(t *testing.T, body string) *result.Document {
	t.Helper()
	doc, err := result.Parse([]byte(body))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func fixture(t *testing.T) *result.Document {
	return mustParse(t, `{
		"id": "r1",
		"tables": [
			{"page": 1, "table_index": 0, "headers": ["Name"], "rows": [["alpha"]]},
			{"page": 1, "table_index": 1, "headers": ["Name"], "rows": [["Beta"]]},
			{"page": 2, "table_index": 0, "headers": ["Name"], "rows": [["gamma"]]},
			{"page": 3, "table_index": 2, "headers": ["Name"], "rows": [["alpha","beta"]]}
		]
	}`)
}

func pagesOf(tables []result.Table) [][2]int {
	out := make([][2]int, len(tables))
	for i, tb := range tables {
		out[i] = [2]int{tb.Page, tb.TableIndex}
	}
	return out
}

func TestFilteredTables_NoFilters(t *testing.T) {
	doc := fixture(t)
	got := FilteredTables(doc, New())
	if len(got) != 4 {
		t.Fatalf("expected all 4 tables, got %d", len(got))
	}
}

func TestFilteredTables_PageFilter(t *testing.T) {
	doc := fixture(t)
	got := FilteredTables(doc, State{Page: 1, TableIndex: -1})
	want := [][2]int{{1, 0}, {1, 1}}
	if !reflect.DeepEqual(pagesOf(got), want) {
		t.Errorf("expected %v, got %v", want, pagesOf(got))
	}
}

func TestFilteredTables_PageAndIndex(t *testing.T) {
	doc := fixture(t)
	got := FilteredTables(doc, State{Page: 1, TableIndex: 1})
	if len(got) != 1 || got[0].Page != 1 || got[0].TableIndex != 1 {
		t.Errorf("expected exactly table (1,1), got %v", pagesOf(got))
	}
}

func TestFilteredTables_QueryCaseInsensitive(t *testing.T) {
	doc := fixture(t)
	got := FilteredTables(doc, State{TableIndex: -1, Query: "BETA"})
	want := [][2]int{{1, 1}, {3, 2}}
	if !reflect.DeepEqual(pagesOf(got), want) {
		t.Errorf("expected %v, got %v", want, pagesOf(got))
	}
}

func TestFilteredTables_PreservesRelativeOrder(t *testing.T) {
	doc := fixture(t)
	got := FilteredTables(doc, State{TableIndex: 0, Query: ""})
	want := [][2]int{{1, 0}, {2, 0}}
	if !reflect.DeepEqual(pagesOf(got), want) {
		t.Errorf("expected subsequence %v in document order, got %v", want, pagesOf(got))
	}
}

func TestBuildFilteredView_Idempotent(t *testing.T) {
	doc := fixture(t)
	s := State{Page: 1, TableIndex: -1, Query: "a"}
	once := BuildFilteredView(doc, s)
	twice := BuildFilteredView(once, s)

	a, err := json.Marshal(once)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(twice)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("expected applying the view twice to equal applying it once")
	}
}

func TestBuildFilteredView_PassesExtrasThrough(t *testing.T) {
	doc := fixture(t)
	view := BuildFilteredView(doc, State{Page: 2, TableIndex: -1})
	if view.ID() != "r1" {
		t.Errorf("expected id to pass through, got %q", view.ID())
	}
	if len(view.Tables()) != 1 {
		t.Errorf("expected 1 table on page 2, got %d", len(view.Tables()))
	}
}

func TestBuildFilteredView_NoOpWithoutTables(t *testing.T) {
	doc := mustParse(t, `{"id":"r9","message":"nothing tabular"}`)
	view := BuildFilteredView(doc, State{Page: 5, TableIndex: 3, Query: "x"})
	if view != doc {
		t.Error("expected the same document back for a non-tabular payload")
	}
}

func TestAvailablePages(t *testing.T) {
	doc := fixture(t)
	got := AvailablePages(doc)
	if !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
}

func TestAvailablePages_IgnoresZeroPage(t *testing.T) {
	doc := mustParse(t, `{"tables":[
		{"page": 0, "table_index": 0},
		{"page": 2, "table_index": 0}
	]}`)
	got := AvailablePages(doc)
	if !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("expected [2], got %v", got)
	}
}

func TestAvailableTableIndices_RelativeToPage(t *testing.T) {
	doc := fixture(t)
	all := AvailableTableIndices(doc, 0)
	if !reflect.DeepEqual(all, []int{0, 1, 2}) {
		t.Errorf("expected [0 1 2] for all pages, got %v", all)
	}
	p1 := AvailableTableIndices(doc, 1)
	if !reflect.DeepEqual(p1, []int{0, 1}) {
		t.Errorf("expected [0 1] for page 1, got %v", p1)
	}
	p3 := AvailableTableIndices(doc, 3)
	if !reflect.DeepEqual(p3, []int{2}) {
		t.Errorf("expected [2] for page 3, got %v", p3)
	}
}

func TestClamp_ResetsVanishedTableIndex(t *testing.T) {
	doc := fixture(t)
	// Table index 2 exists on page 3 but not on page 1.
	s := State{Page: 3, TableIndex: 2}
	s.Page = 1
	s = s.Clamp(doc)
	if s.TableIndex != -1 {
		t.Errorf("expected table index reset to -1, got %d", s.TableIndex)
	}
}

func TestClamp_KeepsValidTableIndex(t *testing.T) {
	doc := fixture(t)
	s := State{Page: 1, TableIndex: 1, Query: "q"}
	got := s.Clamp(doc)
	if got != s {
		t.Errorf("expected state unchanged, got %+v", got)
	}
}

func TestResetSelection_PreservesQuery(t *testing.T) {
	s := State{Page: 4, TableIndex: 2, Query: "total"}
	got := s.ResetSelection()
	if got.Page != 0 || got.TableIndex != -1 {
		t.Errorf("expected selection reset, got %+v", got)
	}
	if got.Query != "total" {
		t.Errorf("expected query preserved, got %q", got.Query)
	}
}

func TestUploadScenario(t *testing.T) {
	// Upload returns r1; fetch yields three tables across two pages.
	doc := mustParse(t, `{"id":"r1","tables":[
		{"page":1,"table_index":0},
		{"page":1,"table_index":1},
		{"page":2,"table_index":0}
	]}`)
	if got := AvailablePages(doc); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected pages [1 2], got %v", got)
	}
	if got := AvailableTableIndices(doc, 1); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("expected indices [0 1] on page 1, got %v", got)
	}
}
