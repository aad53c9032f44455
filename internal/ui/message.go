package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ottx/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgProgress
	MsgActionDone
)

type actionResult struct {
	name string
	err  error
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg(st session.State) Msg {
	return Msg{kind: MsgStateChanged, data: st}
}

// progressMsg is the constructor for [MsgProgress]
func progressMsg(update session.ProgressUpdate) Msg {
	return Msg{kind: MsgProgress, data: update}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(name string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{name: name, err: err}}
}
