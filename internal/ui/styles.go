package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title    lipgloss.Style
	Status   lipgloss.Style
	Notice   lipgloss.Style
	Input    lipgloss.Style
	Selected lipgloss.Style
	Section  lipgloss.Style
}

func NewStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Status:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Input:    lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		Section:  lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	}
}
