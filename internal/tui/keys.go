package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start    key.Binding
	Reload   key.Binding
	More     key.Binding
	Less     key.Binding
	Continue key.Binding
	Discard  key.Binding
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	Next     key.Binding
	Pause    key.Binding
	Adjust   key.Binding
	End      key.Binding
	Suspend  key.Binding
	Quit     key.Binding
	Confirm  key.Binding
	Cancel   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		More:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "5 min more")),
		Less:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "5 min less")),
		Continue: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue")),
		Discard:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discard")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Switch:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "switch here")),
		Next:     key.NewBinding(key.WithKeys("tab", "n"), key.WithHelp("tab", "next")),
		Pause:    key.NewBinding(key.WithKeys("p", " ", "space"), key.WithHelp("p", "pause/resume")),
		Adjust:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "adjust")),
		End:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end")),
		Suspend:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "suspend & quit")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Confirm:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// bindings adapts a flat list to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k keyMap) forScreen(s screen) bindings {
	switch s {
	case screenPrompt:
		return bindings{k.Continue, k.Discard, k.Quit}
	case screenSession:
		return bindings{k.Up, k.Down, k.Switch, k.Next, k.Pause, k.Adjust, k.End, k.Suspend}
	case screenAdjust:
		return bindings{k.Confirm, k.Cancel}
	default:
		return bindings{k.Start, k.More, k.Less, k.Reload, k.Quit}
	}
}
