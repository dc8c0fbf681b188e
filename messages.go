package zoetrope

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// IndexChangedMsg is emitted whenever the active index changes, from
// navigation and external reconciliation alike. Host models can watch
// for it instead of (or as well as) registering OnIndexChange.
type IndexChangedMsg struct {
	Index int
	Item  Item
}

// ItemSelectedMsg is emitted when the user confirms the active item.
type ItemSelectedMsg struct {
	Item Item
}

// CloseRequestedMsg is emitted when the user asks to close the
// carousel. Hosts that embed the widget can intercept it; a carousel
// running as the program root quits on it.
type CloseRequestedMsg struct{}

// SetIndexMsg drives the external controlled-index path from outside
// the widget, typically via Program.Send. It is authoritative and is
// never dropped by the navigation cooldown.
type SetIndexMsg struct {
	Index int
}

// SetItemsMsg replaces the item list, remounting every item.
type SetItemsMsg struct {
	Items []Item
}

// SetLoadingMsg toggles the loading state.
type SetLoadingMsg struct {
	Loading bool
}

// ScrubMsg positions the ring by slider percentage in [0, 100].
type ScrubMsg struct {
	Percent float64
}

// frameMsg advances the rotation glide by one animation frame.
type frameMsg struct {
	gen int
	at  time.Time
}

// cooldownMsg ends the navigation debounce window.
type cooldownMsg struct {
	gen int
}

// emit wraps a message in a command for the program loop.
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
