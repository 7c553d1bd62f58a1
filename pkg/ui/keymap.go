package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyMap struct {
	Submit     key.Binding
	Newline    key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Export     key.Binding

	Help key.Binding
	Quit key.Binding
}

// Terminals do not report shift+enter, so the newline modifier is alt+enter
// (or ctrl+j, which most terminals send for it anyway).
var DefaultKeyMap = KeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Newline: key.NewBinding(
		key.WithKeys("alt+enter", "ctrl+j"),
		key.WithHelp("alt+enter", "new line"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdown", "scroll down"),
	),
	Export: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save transcript"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Newline, k.Export, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline},
		{k.ScrollUp, k.ScrollDown},
		{k.Export, k.Help, k.Quit},
	}
}

// ComposerAction is what a key press means to the composer.
type ComposerAction int

const (
	// ActionEdit hands the key to the text area.
	ActionEdit ComposerAction = iota
	ActionSubmit
	ActionNewline
)

func (a ComposerAction) String() string {
	switch a {
	case ActionSubmit:
		return "submit"
	case ActionNewline:
		return "newline"
	default:
		return "edit"
	}
}

func ComposerActionFor(msg tea.KeyMsg, km KeyMap) ComposerAction {
	switch {
	case key.Matches(msg, km.Newline):
		return ActionNewline
	case key.Matches(msg, km.Submit):
		return ActionSubmit
	default:
		return ActionEdit
	}
}
