package zoetrope

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings the carousel answers to. Every
// binding is rebindable; the defaults cover both arrow keys and the
// WASD cluster so the ring can be driven one-handed.
type KeyMap struct {
	Previous key.Binding
	Next     key.Binding
	Select   key.Binding
	Close    key.Binding
	Retry    key.Binding
}

// DefaultKeyMap returns the standard carousel bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Previous: key.NewBinding(
			key.WithKeys("left", "a", "up", "w"),
			key.WithHelp("←/a", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "d", "down", "s"),
			key.WithHelp("→/d", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
	}
}

// ShortHelp implements help.KeyMap for the footer hint line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Select, k.Close}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next},
		{k.Select, k.Close, k.Retry},
	}
}
