// Package session is the workflow orchestrator: it owns the current
// result, the current result id, and the filter/display selections, and
// sequences upload, history listing, result fetches, debounced search,
// and export selection.
//
// The model is a single event loop: all state changes happen through
// methods called from that loop, network work happens inside Commands
// (run on goroutines), and each Command's outcome re-enters the loop as
// an Event handed to Apply. Commands never touch session state directly,
// so transitions are atomic with respect to one another.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/filter"
	"github.com/tablescope/tablescope/internal/gateway"
	"github.com/tablescope/tablescope/internal/preflight"
	"github.com/tablescope/tablescope/internal/render"
	"github.com/tablescope/tablescope/internal/result"
)

// Phase is the orchestrator's coarse state.
type Phase int

const (
	Idle Phase = iota
	Uploading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Uploading:
		return "uploading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// State is the session's visible state. Filter and render components
// receive it as an explicit input; nothing reads it ambiently.
type State struct {
	Phase    Phase
	ErrMsg   string
	Info     string
	Doc      *result.Document
	ResultID string
	Filter   filter.State
	Mode     render.Mode
	History  []gateway.HistoryItem
	Busy     bool
}

// Event is the outcome of a Command, fed back into Apply on the event
// loop.
type Event interface{ isEvent() }

// Command performs network or file I/O off the event loop and yields
// exactly one Event.
type Command func(ctx context.Context) Event

type uploadDone struct {
	epoch uint64
	id    string
	pages int
	err   error
}

type resultFetched struct {
	tag string
	id  string
	doc *result.Document
	err error
}

type historyFetched struct {
	epoch      uint64
	items      []gateway.HistoryItem
	pickLatest bool
	err        error
}

func (uploadDone) isEvent()     {}
func (resultFetched) isEvent()  {}
func (historyFetched) isEvent() {}

// Session coordinates the gateway and the session state.
type Session struct {
	gw  *gateway.Client
	log *slog.Logger

	st           State
	epoch        uint64
	pendingFetch string
	pendingQuery string
	queryGen     uint64
}

func New(gw *gateway.Client, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		gw:  gw,
		log: log,
		st: State{
			Filter: filter.New(),
			Mode:   render.ModePretty,
		},
	}
}

// State returns a copy of the current session state.
func (s *Session) State() State { return s.st }

// SubmitUpload transitions to Uploading and returns the command that
// preflights the file, uploads it, and reports the assigned id. Any
// previously loaded result is dropped immediately; the display shows a
// transient placeholder until the follow-up fetch lands.
func (s *Session) SubmitUpload(path string, useLLM bool, maxBytes int64) Command {
	epoch := s.bumpEpoch()
	s.st.Phase = Uploading
	s.st.Doc = nil
	s.st.ResultID = ""
	s.st.ErrMsg = ""
	s.st.Info = ""
	s.st.Busy = true
	s.pendingFetch = ""

	return func(ctx context.Context) Event {
		pages, err := preflight.Check(path, maxBytes)
		if err != nil {
			return uploadDone{epoch: epoch, err: fmt.Errorf("preflight %s: %w", filepath.Base(path), err)}
		}
		f, err := os.Open(path)
		if err != nil {
			return uploadDone{epoch: epoch, err: fmt.Errorf("open %s: %w", filepath.Base(path), err)}
		}
		defer f.Close()
		resp, err := s.gw.Upload(ctx, filepath.Base(path), f, useLLM)
		if err != nil {
			return uploadDone{epoch: epoch, err: err}
		}
		s.log.Info("upload accepted", "id", resp.ID, "file", resp.Filename, "pages", pages)
		return uploadDone{epoch: epoch, id: resp.ID, pages: pages}
	}
}

// SelectResult starts a tagged fetch of the given result. Issuing a new
// fetch supersedes any fetch still in flight; the stale completion will
// be discarded when it arrives.
func (s *Session) SelectResult(id string) Command {
	s.bumpEpoch()
	return s.fetch(id)
}

// ViewLatest fetches the history and loads its newest entry.
func (s *Session) ViewLatest() Command {
	epoch := s.bumpEpoch()
	s.st.Busy = true
	return func(ctx context.Context) Event {
		items, err := s.gw.History(ctx)
		return historyFetched{epoch: epoch, items: items, pickLatest: true, err: err}
	}
}

// RefreshHistory refetches the history list without changing the loaded
// result. A refreshed list is never wrong, so these completions carry no
// epoch and are applied even after the intent that issued them is gone.
func (s *Session) RefreshHistory() Command {
	return func(ctx context.Context) Event {
		items, err := s.gw.History(ctx)
		return historyFetched{items: items, err: err}
	}
}

// Clear drops the current result and returns the session to Idle. The
// session is always reachable back to Idle; no error is fatal.
func (s *Session) Clear() {
	s.st.Phase = Idle
	s.st.Doc = nil
	s.st.ResultID = ""
	s.st.ErrMsg = ""
	s.st.Info = ""
	s.st.Busy = false
	s.st.Filter = filter.New()
	s.pendingFetch = ""
	s.pendingQuery = ""
	s.queryGen++
	s.bumpEpoch()
}

// bumpEpoch invalidates every upload and history completion still in
// flight. Called on each result-switching intent so superseded
// completions are recognized and discarded in Apply; result fetches use
// their own per-request tag instead.
func (s *Session) bumpEpoch() uint64 {
	s.epoch++
	return s.epoch
}

// Apply folds an event into the session state and returns any follow-up
// commands. It is the only place completion results are written, and it
// always validates them against current state first.
func (s *Session) Apply(ev Event) []Command {
	switch ev := ev.(type) {
	case uploadDone:
		if ev.epoch != s.epoch {
			s.log.Debug("discarding stale upload completion", "id", ev.id)
			return nil
		}
		s.st.Busy = false
		if ev.err != nil {
			s.st.Phase = Failed
			s.st.ErrMsg = fmt.Sprintf("upload failed: %v", ev.err)
			s.log.Warn("upload failed", "error", ev.err)
			return nil
		}
		// The upload response carries only an id. Chain the result
		// fetch; the history refresh is a side effect, not a gate.
		return []Command{s.fetch(ev.id), s.RefreshHistory()}

	case resultFetched:
		if ev.tag != s.pendingFetch {
			s.log.Debug("discarding stale result fetch", "id", ev.id, "tag", ev.tag)
			return nil
		}
		s.pendingFetch = ""
		s.st.Busy = false
		doc := ev.doc
		if ev.err != nil {
			if !errors.Is(ev.err, result.ErrMalformed) {
				s.st.Phase = Failed
				s.st.ErrMsg = ev.err.Error()
				return nil
			}
			// A malformed body degrades to an empty document rather
			// than failing the session.
			s.log.Warn("malformed result body", "id", ev.id, "error", ev.err)
			doc = result.Empty()
		}
		s.st.Phase = Loaded
		s.st.Doc = doc
		s.st.ResultID = ev.id
		s.st.ErrMsg = ""
		s.st.Info = ""
		// New document, new option domains. The query text survives a
		// result switch; page and table selections do not.
		s.st.Filter = s.st.Filter.ResetSelection()
		return nil

	case historyFetched:
		// A view-latest that was superseded must not load or fail
		// anything; its item list is still worth keeping.
		stale := ev.pickLatest && ev.epoch != s.epoch
		if ev.err != nil {
			if ev.pickLatest && !stale {
				s.st.Busy = false
				s.st.Phase = Failed
				s.st.ErrMsg = ev.err.Error()
			} else {
				s.log.Warn("history refresh failed", "error", ev.err)
			}
			return nil
		}
		s.st.History = ev.items
		if !ev.pickLatest || stale {
			return nil
		}
		if len(ev.items) == 0 {
			s.st.Busy = false
			s.st.Info = "no extraction history yet"
			return nil
		}
		return []Command{s.fetch(ev.items[0].ID)}
	}
	return nil
}

// fetch tags a result fetch so its completion can be recognized as
// current or stale. At most one tag is live; issuing a new fetch
// invalidates the previous one.
func (s *Session) fetch(id string) Command {
	tag := uuid.NewString()
	s.pendingFetch = tag
	s.st.Busy = true
	return func(ctx context.Context) Event {
		doc, err := s.gw.Result(ctx, id)
		return resultFetched{tag: tag, id: id, doc: doc, err: err}
	}
}

// SetPage updates the page selection. A table selection that is no
// longer valid under the new page resets to "all tables".
func (s *Session) SetPage(page int) {
	s.st.Filter.Page = page
	s.st.Filter = s.st.Filter.Clamp(s.st.Doc)
}

// SetTableIndex updates the table selection.
func (s *Session) SetTableIndex(idx int) {
	s.st.Filter.TableIndex = idx
}

// ToggleMode flips between pretty and compact display.
func (s *Session) ToggleMode() {
	s.st.Mode = s.st.Mode.Toggle()
}

// EditQuery records a keystroke's worth of query text and returns the
// generation to hand to CommitQuery after the quiescence window. Each
// edit supersedes all earlier pending generations.
func (s *Session) EditQuery(text string) uint64 {
	s.pendingQuery = text
	s.queryGen++
	return s.queryGen
}

// CancelEdit abandons any uncommitted query text. Debounce callbacks
// already scheduled for the abandoned edit find their generation
// superseded and do nothing.
func (s *Session) CancelEdit() {
	s.pendingQuery = s.st.Filter.Query
	s.queryGen++
}

// CommitQuery applies the pending query if gen is still current, and
// reports whether the caller should re-render. Superseded generations
// are discarded, never queued; the commit reads session state at fire
// time, so a query scheduled against an earlier document simply applies
// to whatever is loaded now.
func (s *Session) CommitQuery(gen uint64) bool {
	if gen != s.queryGen {
		return false
	}
	s.st.Filter.Query = s.pendingQuery
	return true
}

// Query returns the active (committed) query text.
func (s *Session) Query() string { return s.st.Filter.Query }

// View derives the filtered view of the current document.
func (s *Session) View() *result.Document {
	return filter.BuildFilteredView(s.st.Doc, s.st.Filter)
}

// DisplayText produces what the render sink should show right now.
func (s *Session) DisplayText() string {
	switch {
	case s.st.Phase == Uploading:
		return render.Text("extraction in progress...", s.st.Mode)
	case s.st.Phase == Failed:
		return render.Text(s.st.ErrMsg, s.st.Mode)
	case s.st.Info != "":
		return render.Text(s.st.Info, s.st.Mode)
	case s.st.Doc == nil:
		return render.Text(nil, s.st.Mode)
	default:
		return render.Text(s.View(), s.st.Mode)
	}
}

// CSVSelection validates and returns the (id, page, table) triple for a
// single-table CSV export. Without a loaded result or a fully specified
// selection it fails with gateway.ErrSelectionRequired, which callers
// surface as a transient hint rather than a document-level error.
func (s *Session) CSVSelection() (id string, page, tableIndex int, err error) {
	if s.st.ResultID == "" || s.st.Filter.Page == 0 || s.st.Filter.TableIndex == -1 {
		return "", 0, 0, gateway.ErrSelectionRequired
	}
	return s.st.ResultID, s.st.Filter.Page, s.st.Filter.TableIndex, nil
}
