package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the viewer understands.
type KeyMap struct {
	Upload      key.Binding
	ViewLatest  key.Binding
	Refresh     key.Binding
	View        key.Binding
	Download    key.Binding
	Clear       key.Binding
	Search      key.Binding
	NextPage    key.Binding
	PrevPage    key.Binding
	NextTable   key.Binding
	PrevTable   key.Binding
	Mode        key.Binding
	Copy        key.Binding
	ExportCSV   key.Binding
	ExportZip   key.Binding
	ExportXLSX  key.Binding
	SyncAll     key.Binding
	SwitchFocus key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Upload:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload pdf")),
		ViewLatest:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "view latest")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh history")),
		View:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "view selected")),
		Download:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download json")),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		NextPage:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next page")),
		PrevPage:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "prev page")),
		NextTable:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next table")),
		PrevTable:   key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "prev table")),
		Mode:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "pretty/compact")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy view")),
		ExportCSV:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export csv")),
		ExportZip:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "export zip")),
		ExportXLSX:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export xlsx")),
		SyncAll:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync all")),
		SwitchFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Upload, k.ViewLatest, k.View, k.Search, k.Mode, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Upload, k.ViewLatest, k.Refresh, k.View, k.Download, k.Clear},
		{k.Search, k.NextPage, k.PrevPage, k.NextTable, k.PrevTable, k.Mode},
		{k.Copy, k.ExportCSV, k.ExportZip, k.ExportXLSX, k.SyncAll},
		{k.SwitchFocus, k.Help, k.Quit},
	}
}
