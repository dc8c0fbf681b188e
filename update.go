package zoetrope

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/teranos/zoetrope/jam"
)

// Init starts the spinner tick when the carousel mounts loading.
// Everything else waits for input.
func (m Model) Init() tea.Cmd {
	if m.loading {
		return m.spin.Tick
	}
	return nil
}

// Update is the input controller and message router. It sits inside
// the scene fault boundary: a panic anywhere in the engine's own
// logic collapses the scene instead of the host program.
func (m Model) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.booth.snap(jam.FromPanic("scene", r, jam.Context{
				"during": "update",
				"active": m.wheel.active,
			}).WithSeverity(jam.Snap))
			model, cmd = m, nil
		}
	}()
	return m.route(msg)
}

func (m Model) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = m.width > 0 && m.height > 0
		m.help.Width = m.width
		m.slider.Width = clampInt(m.width-24, 10, 48)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case frameMsg:
		if msg.gen != m.generation || !m.animating {
			return m, nil
		}
		if m.wheel.glide(m.cfg.Glide, m.cfg.SettleEpsilon) {
			m.animating = false
			return m, nil
		}
		return m, m.frameTick()

	case cooldownMsg:
		if msg.gen == m.generation {
			m.wheel.unlock()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case SetIndexMsg:
		cmd := m.followIndex(msg.Index)
		return m, cmd

	case SetItemsMsg:
		cmd := m.SetItems(msg.Items)
		return m, cmd

	case SetLoadingMsg:
		cmd := m.SetLoading(msg.Loading)
		return m, cmd

	case ScrubMsg:
		cmd := m.Scrub(msg.Percent)
		return m, cmd

	case CloseRequestedMsg:
		// Running as the program root there is nobody above us to
		// intercept; closing means quitting.
		return m, tea.Quit
	}
	return m, nil
}

// handleKey translates key presses into state machine commands. On
// the collapse surface only retry and close stay live.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.booth.sceneJam() != nil {
		switch {
		case key.Matches(msg, m.keys.Retry):
			return m.remount()
		case key.Matches(msg, m.keys.Close):
			return m.requestClose()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		return m.requestClose()
	case key.Matches(msg, m.keys.Previous):
		return m.navigate(-1)
	case key.Matches(msg, m.keys.Next):
		return m.navigate(+1)
	case key.Matches(msg, m.keys.Select):
		return m.selectActive()
	}
	return m, nil
}

// handleMouse maps wheel scroll to navigation and clicks onto the
// footer controls. Position mapping needs the rendered geometry, so
// clicks before the first window size are ignored.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.booth.sceneJam() != nil || m.loading {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m.navigate(-1)
	case tea.MouseButtonWheelDown:
		return m.navigate(+1)
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if !m.ready || len(m.items) == 0 {
		return m, nil
	}

	g := m.footerGeometry()
	if msg.Y != g.row {
		return m, nil
	}
	switch {
	case msg.X >= g.prevStart && msg.X < g.prevEnd:
		return m.navigate(-1)
	case msg.X >= g.nextStart && msg.X < g.nextEnd:
		return m.navigate(+1)
	case msg.X >= g.barStart && msg.X < g.barEnd:
		cmd := m.followIndex(indexForFraction(g.fractionForColumn(msg.X), len(m.items)))
		return m, cmd
	}
	return m, nil
}

// navigate turns the ring one slot in the given direction, honoring
// the cooldown. A single-item ring still animates a full turn but
// reports no index change.
func (m Model) navigate(direction int) (tea.Model, tea.Cmd) {
	if m.loading || len(m.items) == 0 {
		return m, nil
	}
	before := m.wheel.active
	if !m.wheel.navigate(direction) {
		return m, nil
	}

	cmds := []tea.Cmd{m.cooldownTick()}
	if !m.animating {
		m.animating = true
		cmds = append(cmds, m.frameTick())
	}
	if m.wheel.active != before {
		if m.cb.OnIndexChange != nil {
			m.cb.OnIndexChange(m.wheel.active)
		}
		cmds = append(cmds, emit(IndexChangedMsg{Index: m.wheel.active, Item: m.items[m.wheel.active]}))
	}
	return m, tea.Batch(cmds...)
}

// followIndex is the external controlled-index path: authoritative,
// never debounced, animates over by the exact angular delta.
func (m *Model) followIndex(index int) tea.Cmd {
	if !m.wheel.reconcile(index) {
		return nil
	}

	var cmds []tea.Cmd
	if m.cb.OnIndexChange != nil {
		m.cb.OnIndexChange(m.wheel.active)
	}
	cmds = append(cmds, emit(IndexChangedMsg{Index: m.wheel.active, Item: m.items[m.wheel.active]}))
	if !m.animating && !m.loading {
		m.animating = true
		cmds = append(cmds, m.frameTick())
	}
	return tea.Batch(cmds...)
}

func (m Model) selectActive() (tea.Model, tea.Cmd) {
	if m.loading || len(m.items) == 0 {
		return m, nil
	}
	item := m.items[m.wheel.active]
	if m.cb.OnItemSelect != nil {
		m.cb.OnItemSelect(item)
	}
	return m, emit(ItemSelectedMsg{Item: item})
}

func (m Model) requestClose() (tea.Model, tea.Cmd) {
	if m.cb.OnClose != nil {
		m.cb.OnClose()
	}
	return m, emit(CloseRequestedMsg{})
}

// remount is the retry action on the collapse surface: clear the
// incident ledger, re-seat the ring on the active slot, start fresh.
func (m Model) remount() (tea.Model, tea.Cmd) {
	m.generation++
	m.booth.remountScene()
	m.wheel = newWheel(len(m.items), m.wheel.active)
	m.animating = false
	return m, nil
}

func (m Model) frameTick() tea.Cmd {
	gen := m.generation
	return tea.Tick(m.cfg.FrameInterval, func(at time.Time) tea.Msg {
		return frameMsg{gen: gen, at: at}
	})
}

func (m Model) cooldownTick() tea.Cmd {
	gen := m.generation
	return tea.Tick(m.cfg.Cooldown, func(time.Time) tea.Msg {
		return cooldownMsg{gen: gen}
	})
}
