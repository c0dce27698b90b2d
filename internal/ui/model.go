// Package ui is the interactive terminal surface. It owns no session
// logic: key events call into the session on the bubbletea event loop,
// network work runs as tea commands, and completions re-enter the loop
// as messages handed to session.Apply.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/export"
	"github.com/tablescope/tablescope/internal/filter"
	"github.com/tablescope/tablescope/internal/gateway"
	"github.com/tablescope/tablescope/internal/session"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputUpload
)

type focusArea int

const (
	focusHistory focusArea = iota
	focusViewer
)

// Messages fed back into Update.
type (
	eventMsg      struct{ ev session.Event }
	queryTickMsg  struct{ gen uint64 }
	exportDoneMsg struct {
		what string
		path string
		err  error
	}
)

type Model struct {
	ses *session.Session
	gw  *gateway.Client
	cfg config.Config

	hist   table.Model
	view   viewport.Model
	input  textinput.Model
	spin   spinner.Model
	help   help.Model
	keymap KeyMap
	styles Styles

	inputMode  inputMode
	focus      focusArea
	uploadLLM  bool
	notice     string
	showHelp   bool
	termWidth  int
	termHeight int
}

func New(ses *session.Session, gw *gateway.Client, cfg config.Config) *Model {
	m := &Model{
		ses:    ses,
		gw:     gw,
		cfg:    cfg,
		help:   help.New(),
		keymap: DefaultKeyMap(),
		styles: NewStyles(),
		input:  textinput.New(),
		spin:   spinner.New(),
	}
	m.spin.Spinner = spinner.Dot
	m.input.CharLimit = 512

	m.hist = table.New(
		table.WithFocused(true),
		table.WithHeight(8),
		table.WithColumns([]table.Column{
			{Title: "file", Width: 32},
			{Title: "created", Width: 20},
			{Title: "tables", Width: 6},
			{Title: "llm", Width: 4},
		}),
	)
	m.view = viewport.New(80, 16)
	return m
}

// Run starts the program.
func Run(ses *session.Session, gw *gateway.Client, cfg config.Config) error {
	p := tea.NewProgram(New(ses, gw, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.runSession([]session.Command{m.ses.RefreshHistory()}))
}

// runSession turns session commands into tea commands. Each completion
// comes back as an eventMsg and is applied on the event loop, so state
// transitions never interleave.
func (m *Model) runSession(cmds []session.Command) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	batch := make([]tea.Cmd, len(cmds))
	for i, cmd := range cmds {
		batch[i] = func() tea.Msg {
			return eventMsg{ev: cmd(context.Background())}
		}
	}
	return tea.Batch(batch...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		m.layout()
		return m, nil

	case eventMsg:
		followups := m.ses.Apply(msg.ev)
		m.refresh()
		return m, m.runSession(followups)

	case queryTickMsg:
		// Superseded generations are discarded here; only the final
		// keystroke's value after the quiescence window is applied.
		if m.ses.CommitQuery(msg.gen) {
			m.refresh()
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("%s failed: %v", msg.what, msg.err)
		} else {
			m.notice = fmt.Sprintf("%s -> %s", msg.what, msg.path)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != inputNone {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keymap.Upload):
		m.inputMode = inputUpload
		m.input.Prompt = "upload> "
		m.input.Placeholder = "path/to/file.pdf  (tab toggles LLM cleanup)"
		m.input.SetValue("")
		m.input.Focus()
		return m, nil

	case key.Matches(msg, m.keymap.Search):
		m.inputMode = inputSearch
		m.input.Prompt = "/"
		m.input.Placeholder = "search table content"
		m.input.SetValue(m.ses.Query())
		m.input.Focus()
		return m, nil

	case key.Matches(msg, m.keymap.ViewLatest):
		return m, m.runSession([]session.Command{m.ses.ViewLatest()})

	case key.Matches(msg, m.keymap.Refresh):
		return m, m.runSession([]session.Command{m.ses.RefreshHistory()})

	case key.Matches(msg, m.keymap.View):
		if id, ok := m.selectedHistoryID(); ok {
			return m, m.runSession([]session.Command{m.ses.SelectResult(id)})
		}
		return m, nil

	case key.Matches(msg, m.keymap.Download):
		if id, ok := m.selectedHistoryID(); ok {
			return m, m.exportCmd("download", func(ctx context.Context) (string, error) {
				return export.SaveJSON(ctx, m.gw, m.cfg.ExportDir, id)
			})
		}
		return m, nil

	case key.Matches(msg, m.keymap.Clear):
		m.ses.Clear()
		m.notice = ""
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keymap.NextPage):
		m.cyclePage(1)
		return m, nil
	case key.Matches(msg, m.keymap.PrevPage):
		m.cyclePage(-1)
		return m, nil
	case key.Matches(msg, m.keymap.NextTable):
		m.cycleTable(1)
		return m, nil
	case key.Matches(msg, m.keymap.PrevTable):
		m.cycleTable(-1)
		return m, nil

	case key.Matches(msg, m.keymap.Mode):
		m.ses.ToggleMode()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keymap.Copy):
		if err := clipboard.WriteAll(m.ses.DisplayText()); err != nil {
			m.notice = fmt.Sprintf("copy failed: %v", err)
		} else {
			m.notice = "copied current view"
		}
		return m, nil

	case key.Matches(msg, m.keymap.ExportCSV):
		id, page, idx, err := m.ses.CSVSelection()
		if err != nil {
			// Transient hint, not a document-level error.
			m.notice = "csv export needs an exact page and table selection"
			return m, nil
		}
		return m, m.exportCmd("csv export", func(ctx context.Context) (string, error) {
			return export.SaveCSV(ctx, m.gw, m.cfg.ExportDir, id, page, idx)
		})

	case key.Matches(msg, m.keymap.ExportZip):
		st := m.ses.State()
		if st.ResultID == "" {
			m.notice = "load a result before exporting"
			return m, nil
		}
		id := st.ResultID
		return m, m.exportCmd("zip export", func(ctx context.Context) (string, error) {
			return export.SaveZip(ctx, m.gw, m.cfg.ExportDir, id)
		})

	case key.Matches(msg, m.keymap.ExportXLSX):
		st := m.ses.State()
		if st.ResultID == "" {
			m.notice = "load a result before exporting"
			return m, nil
		}
		view := m.ses.View()
		path := export.XLSXPath(m.cfg.ExportDir, st.ResultID)
		return m, m.exportCmd("xlsx export", func(ctx context.Context) (string, error) {
			return path, export.WriteXLSX(view, path)
		})

	case key.Matches(msg, m.keymap.SyncAll):
		items := m.ses.State().History
		if len(items) == 0 {
			m.notice = "nothing to sync"
			return m, nil
		}
		return m, m.exportCmd("sync", func(ctx context.Context) (string, error) {
			n, err := export.SyncAll(ctx, m.gw, items, m.cfg.ExportDir)
			return fmt.Sprintf("%s (%d files)", m.cfg.ExportDir, n), err
		})

	case key.Matches(msg, m.keymap.SwitchFocus):
		if m.focus == focusHistory {
			m.focus = focusViewer
			m.hist.Blur()
		} else {
			m.focus = focusHistory
			m.hist.Focus()
		}
		return m, nil
	}

	// Remaining keys scroll whichever pane has focus.
	var cmd tea.Cmd
	if m.focus == focusHistory {
		m.hist, cmd = m.hist.Update(msg)
	} else {
		m.view, cmd = m.view.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.inputMode == inputSearch {
			m.ses.CancelEdit()
		}
		m.inputMode = inputNone
		m.input.Blur()
		return m, nil

	case tea.KeyTab:
		if m.inputMode == inputUpload {
			m.uploadLLM = !m.uploadLLM
			return m, nil
		}

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.inputMode
		m.inputMode = inputNone
		m.input.Blur()
		switch mode {
		case inputUpload:
			if value == "" {
				return m, nil
			}
			cmd := m.ses.SubmitUpload(value, m.uploadLLM, m.cfg.MaxUploadBytes)
			m.refresh()
			return m, m.runSession([]session.Command{cmd})
		case inputSearch:
			// Enter applies immediately; no need to wait out the window.
			m.ses.CommitQuery(m.ses.EditQuery(value))
			m.refresh()
			return m, nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.inputMode == inputSearch {
		// Debounced live search: schedule a commit for this generation
		// and let stale generations die at fire time.
		gen := m.ses.EditQuery(m.input.Value())
		return m, tea.Batch(cmd, tea.Tick(m.cfg.DebounceWindow, func(time.Time) tea.Msg {
			return queryTickMsg{gen: gen}
		}))
	}
	return m, cmd
}

func (m *Model) exportCmd(what string, run func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		path, err := run(context.Background())
		return exportDoneMsg{what: what, path: path, err: err}
	}
}

func (m *Model) selectedHistoryID() (string, bool) {
	items := m.ses.State().History
	idx := m.hist.Cursor()
	if idx < 0 || idx >= len(items) {
		return "", false
	}
	return items[idx].ID, true
}

// cyclePage steps through "all" plus the document's available pages.
func (m *Model) cyclePage(dir int) {
	st := m.ses.State()
	options := append([]int{0}, filter.AvailablePages(st.Doc)...)
	m.ses.SetPage(cycle(options, st.Filter.Page, dir))
	m.refresh()
}

// cycleTable steps through "all" plus the indices valid for the current
// page selection.
func (m *Model) cycleTable(dir int) {
	st := m.ses.State()
	options := append([]int{-1}, filter.AvailableTableIndices(st.Doc, st.Filter.Page)...)
	m.ses.SetTableIndex(cycle(options, st.Filter.TableIndex, dir))
	m.refresh()
}

func cycle(options []int, current, dir int) int {
	if len(options) == 0 {
		return current
	}
	pos := 0
	for i, v := range options {
		if v == current {
			pos = i
			break
		}
	}
	pos = (pos + dir + len(options)) % len(options)
	return options[pos]
}

func (m *Model) refresh() {
	st := m.ses.State()

	rows := make([]table.Row, len(st.History))
	for i, item := range st.History {
		llm := "no"
		if item.UseLLM {
			llm = "yes"
		}
		rows[i] = table.Row{item.Filename, item.CreatedAt, strconv.Itoa(item.TableCount), llm}
	}
	m.hist.SetRows(rows)

	m.view.SetContent(m.ses.DisplayText())
}

func (m *Model) layout() {
	w := m.termWidth
	if w < 40 {
		w = 40
	}
	histH := 8
	viewH := m.termHeight - histH - 6
	if viewH < 4 {
		viewH = 4
	}
	m.hist.SetWidth(w)
	m.view.Width = w
	m.view.Height = viewH
}

func (m *Model) View() string {
	st := m.ses.State()

	title := m.styles.Title.Render("tablescope") + "  " +
		m.styles.Status.Render(m.gw.BaseURL())

	sections := []string{
		title,
		m.styles.Section.Render("history"),
		m.hist.View(),
		m.styles.Section.Render(m.viewerHeading(st)),
		m.view.View(),
	}

	if m.inputMode != inputNone {
		line := m.styles.Input.Render(m.input.View())
		if m.inputMode == inputUpload {
			line += m.styles.Status.Render(fmt.Sprintf("  [llm cleanup: %t]", m.uploadLLM))
		}
		sections = append(sections, line)
	}
	sections = append(sections, m.statusLine(st))
	if m.showHelp {
		sections = append(sections, m.help.FullHelpView(m.keymap.FullHelp()))
	} else {
		sections = append(sections, m.help.ShortHelpView(m.keymap.ShortHelp()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) viewerHeading(st session.State) string {
	if st.ResultID == "" {
		return "viewer"
	}
	name := ""
	if st.Doc != nil && st.Doc.Filename() != "" {
		name = " · " + st.Doc.Filename()
	}
	return fmt.Sprintf("viewer: %s%s", st.ResultID, name)
}

func (m *Model) statusLine(st session.State) string {
	page := "all"
	if st.Filter.Page != 0 {
		page = strconv.Itoa(st.Filter.Page)
	}
	tbl := "all"
	if st.Filter.TableIndex != -1 {
		tbl = strconv.Itoa(st.Filter.TableIndex)
	}
	busy := ""
	if st.Busy {
		busy = " " + m.spin.View()
	}
	status := fmt.Sprintf("[%s] page:%s table:%s query:%q mode:%s shown:%d%s",
		st.Phase, page, tbl, st.Filter.Query, st.Mode, len(m.ses.View().Tables()), busy)
	line := m.styles.Status.Render(status)
	if m.notice != "" {
		line += "  " + m.styles.Notice.Render(m.notice)
	}
	return line
}
