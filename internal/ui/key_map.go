package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the dashboard.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	refresh key.Binding
	logout  key.Binding
	hide    key.Binding
	reload  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh token")),
		logout:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logout")),
		hide:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hide/show")),
		reload:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "reload subscription")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.refresh, k.logout, k.hide, k.reload, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.refresh, k.reload},
		{k.hide, k.logout, k.quit},
	}
}
