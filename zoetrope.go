// Package zoetrope is a ring carousel for Bubble Tea terminal UIs.
//
// A zoetrope is the Victorian parlor toy that spins a ring of
// pictures past a viewing slit until they appear to move. This widget
// does the same for arbitrary content items: it arranges them evenly
// around a ring in 3D space, turns the ring one item at a time under
// keyboard, mouse, or external control, and projects the result onto
// the terminal with perspective scaling, isolating per-item render
// failures so one broken card never stops the show.
//
// Basic usage:
//
//	items := []zoetrope.Item{
//		zoetrope.NewBasicItem("First reel", "image"),
//		zoetrope.NewBasicItem("Second reel", "video"),
//	}
//
//	m := zoetrope.New(items).
//		WithTitle("Saturday matinee").
//		WithCallbacks(zoetrope.Callbacks{
//			OnItemSelect: func(item zoetrope.Item) { open(item) },
//		})
//
//	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
//	if _, err := p.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// Custom renderers vary presentation by item type without touching
// navigation logic:
//
//	m = m.WithRenderer(func(item zoetrope.Item, active bool, scale float64) string {
//		return item.(*Poster).Art(scale)
//	})
package zoetrope

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/teranos/zoetrope/jam"
)

// Callbacks are the engine's outward notifications. All of them are
// optional and fire-and-forget; the engine never waits on them.
type Callbacks struct {
	OnClose       func()
	OnItemSelect  func(Item)
	OnIndexChange func(int)
	OnItemFault   func(Item, *jam.Jam)
}

// Model is the carousel widget. It implements tea.Model, so it can
// run as a program root or be embedded in a host model. Construct
// with New or NewWithConfig; the zero value is not usable.
type Model struct {
	cfg    Config
	keys   KeyMap
	styles Styles
	cb     Callbacks

	items    []Item
	title    string
	loading  bool
	renderer ItemRenderer

	wheel wheel
	booth *booth

	spin   spinner.Model
	slider progress.Model
	help   help.Model

	width, height int
	ready         bool
	animating     bool
	generation    int // invalidates timers from before a remount
}

// New builds a carousel over the given items with default tuning.
func New(items []Item) Model {
	return NewWithConfig(items, DefaultConfig())
}

// NewWithConfig builds a carousel with explicit tuning.
func NewWithConfig(items []Item, cfg Config) Model {
	cfg = cfg.normalized()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	sl := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	sl.Width = 24

	return Model{
		cfg:    cfg,
		keys:   DefaultKeyMap(),
		styles: DefaultStyles(),
		items:  items,
		wheel:  newWheel(len(items), 0),
		booth:  newBooth(nil),
		spin:   sp,
		slider: sl,
		help:   help.New(),
	}
}

// WithTitle sets the display-only header title.
func (m Model) WithTitle(title string) Model {
	m.title = title
	return m
}

// WithIndex seeds the active index at mount, the controlled-index
// starting point. The ring seats itself there without animating.
func (m Model) WithIndex(index int) Model {
	m.wheel = newWheel(len(m.items), index)
	return m
}

// WithLoading mounts the carousel in the loading state.
func (m Model) WithLoading(loading bool) Model {
	m.loading = loading
	return m
}

// WithRenderer installs the item renderer plugin. A nil renderer
// falls back to DefaultRenderer.
func (m Model) WithRenderer(r ItemRenderer) Model {
	m.renderer = r
	return m
}

// WithKeyMap replaces the key bindings.
func (m Model) WithKeyMap(keys KeyMap) Model {
	m.keys = keys
	return m
}

// WithStyles replaces the widget's lipgloss styles.
func (m Model) WithStyles(styles Styles) Model {
	m.styles = styles
	return m
}

// WithCallbacks registers the outward notifications.
func (m Model) WithCallbacks(cb Callbacks) Model {
	m.cb = cb
	return m
}

// WithPolicy replaces the fault handling policy for the incident
// ledger.
func (m Model) WithPolicy(policy *jam.Policy) Model {
	m.booth = newBooth(policy)
	return m
}

// SetItems replaces the reel, remounting every item: burned items
// recover, timers from the old mount die, and the ring re-seats on
// the clamped active index.
func (m *Model) SetItems(items []Item) tea.Cmd {
	m.items = items
	m.generation++
	m.booth.remountItems()
	m.wheel = newWheel(len(items), m.wheel.active)
	m.animating = false
	return nil
}

// SetIndex follows an externally controlled index. Authoritative:
// it is never dropped by the navigation cooldown, and the rotation
// animates over by the exact angular delta.
func (m *Model) SetIndex(index int) tea.Cmd {
	return m.followIndex(index)
}

// SetLoading toggles the loading state and keeps the spinner ticking
// while it is on.
func (m *Model) SetLoading(loading bool) tea.Cmd {
	if m.loading == loading {
		return nil
	}
	m.loading = loading
	if loading {
		return m.spin.Tick
	}
	return nil
}

// Scrub positions the ring by slider percentage in [0, 100], the
// external scrub control surface. Scrubbing shares the controlled-
// index path, so it can never disagree with keyboard navigation.
func (m *Model) Scrub(percent float64) tea.Cmd {
	fraction := clampFloat(percent, 0, 100) / 100
	return m.followIndex(indexForFraction(fraction, len(m.items)))
}

// Index returns the active index. Meaningless when Count is zero.
func (m Model) Index() int { return m.wheel.active }

// Count returns the number of items on the reel.
func (m Model) Count() int { return len(m.items) }

// ActiveItem returns the active item, if any.
func (m Model) ActiveItem() (Item, bool) {
	if len(m.items) == 0 {
		return nil, false
	}
	return m.items[m.wheel.active], true
}

// Items returns the reel as mounted. The engine never mutates it.
func (m Model) Items() []Item { return m.items }

// Rotation returns the displayed rotation in radians.
func (m Model) Rotation() float64 { return m.wheel.rotation }

// RotationTarget returns the accumulated rotation target in radians.
func (m Model) RotationTarget() float64 { return m.wheel.target }

// Locked reports whether the navigation cooldown window is open.
func (m Model) Locked() bool { return m.wheel.locked }

// Animating reports whether the rotation glide is still running.
func (m Model) Animating() bool { return m.animating }

// Loading reports the loading state.
func (m Model) Loading() bool { return m.loading }

// Collapsed reports whether the scene boundary has tripped.
func (m Model) Collapsed() bool { return m.booth.sceneJam() != nil }

// Failed reports whether the given item has burned this mount.
func (m Model) Failed(id string) bool {
	_, failed := m.booth.itemJam(id)
	return failed
}

// Incidents exposes the fault ledger for host inspection.
func (m Model) Incidents() *jam.Handler { return m.booth.incidents() }

// CurrentScene names the surface the next View call will draw, one of
// "collapsed", "loading", "empty" or "carousel".
func (m Model) CurrentScene() string {
	switch {
	case m.booth.sceneJam() != nil:
		return "collapsed"
	case m.loading:
		return "loading"
	case len(m.items) == 0:
		return "empty"
	default:
		return "carousel"
	}
}

// CheckCondition reports named state predicates for test drivers.
//
// Supported conditions: "settled" (no cooldown and no motion),
// "locked", "animating", "loading", "empty", "collapsed",
// "has_items" and "faults" (at least one burned item this mount).
// Unknown conditions report false.
func (m Model) CheckCondition(condition string) bool {
	switch condition {
	case "settled":
		return !m.wheel.locked && !m.animating
	case "locked":
		return m.wheel.locked
	case "animating":
		return m.animating
	case "loading":
		return m.loading
	case "empty":
		return len(m.items) == 0
	case "collapsed":
		return m.booth.sceneJam() != nil
	case "has_items":
		return len(m.items) > 0
	case "faults":
		return m.booth.failedCount() > 0
	default:
		return false
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
