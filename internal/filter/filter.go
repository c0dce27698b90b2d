// Package filter is the pure query engine over a loaded result document.
// Every function here is referentially transparent: no I/O, no hidden
// state, identical inputs yield identical output.
package filter

import (
	"sort"

	"github.com/tablescope/tablescope/internal/result"
)

// State is the user's current, ephemeral selection. Page 0 means "all
// pages"; TableIndex -1 means "all tables"; an empty Query means no text
// filter.
type State struct {
	Page       int
	TableIndex int
	Query      string
}

// New returns the unfiltered selection.
func New() State {
	return State{Page: 0, TableIndex: -1}
}

// ResetSelection drops the page and table selection back to "all" while
// keeping the query text. Used when a new document replaces the old one.
func (s State) ResetSelection() State {
	return State{Page: 0, TableIndex: -1, Query: s.Query}
}

// Clamp resets TableIndex to "all" when it is no longer a valid choice
// under the current page selection of the given document.
func (s State) Clamp(doc *result.Document) State {
	if s.TableIndex == -1 {
		return s
	}
	for _, idx := range AvailableTableIndices(doc, s.Page) {
		if idx == s.TableIndex {
			return s
		}
	}
	s.TableIndex = -1
	return s
}

// FilteredTables applies the page filter, then the table-index filter,
// then the substring query, composed as a logical AND. The result is a
// subsequence of doc.Tables() preserving relative order.
func FilteredTables(doc *result.Document, s State) []result.Table {
	tables := doc.Tables()
	out := make([]result.Table, 0, len(tables))
	for _, t := range tables {
		if s.Page != 0 && t.Page != s.Page {
			continue
		}
		if s.TableIndex != -1 && t.TableIndex != s.TableIndex {
			continue
		}
		if !t.Matches(s.Query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BuildFilteredView returns a shallow clone of doc with its tables
// replaced by the filtered subsequence. Documents without a tables field
// are returned unchanged; filtering is a view concern and has nothing to
// narrow on a non-tabular payload.
func BuildFilteredView(doc *result.Document, s State) *result.Document {
	if doc == nil || !doc.HasTables() {
		return doc
	}
	return doc.WithTables(FilteredTables(doc, s))
}

// AvailablePages returns the distinct page numbers present in the
// document, ascending. Tables without a usable page (0 or negative) are
// not selectable and do not contribute.
func AvailablePages(doc *result.Document) []int {
	seen := make(map[int]struct{})
	for _, t := range doc.Tables() {
		if t.Page > 0 {
			seen[t.Page] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// AvailableTableIndices returns the distinct table_index values among
// tables matching the page selection (all tables when page is 0),
// ascending. The valid domain of a table selection is always relative to
// the page filter, never the whole document.
func AvailableTableIndices(doc *result.Document, page int) []int {
	seen := make(map[int]struct{})
	for _, t := range doc.Tables() {
		if page != 0 && t.Page != page {
			continue
		}
		if t.TableIndex >= 0 {
			seen[t.TableIndex] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
