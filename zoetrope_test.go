package zoetrope

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/zoetrope/ring"
)

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}

// reelOf builds n deterministic items for tests
func reelOf(n int) []Item {
	items := make([]Item, n)
	for i := 0; i < n; i++ {
		items[i] = BasicItem{
			UID:  fmt.Sprintf("card-%d", i),
			Name: fmt.Sprintf("Card %d", i+1),
			Kind: "image",
		}
	}
	return items
}

// fastConfig returns tuning that settles in a handful of frames
func fastConfig() Config {
	return Config{
		Cooldown:      time.Millisecond,
		FrameInterval: time.Millisecond,
		Glide:         0.6,
	}
}

// advance applies one message and re-types the model
func advance(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(Model)
	require.True(t, ok)
	return model, cmd
}

// drainCmd executes a command tree and collects every message it yields
func drainCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, sub := range batch {
			msgs = append(msgs, drainCmd(sub)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func pressKey(t *testing.T, m Model, keyType tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return advance(t, m, tea.KeyMsg{Type: keyType})
}

func pressRune(t *testing.T, m Model, r rune) (Model, tea.Cmd) {
	t.Helper()
	return advance(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// unlock ends the cooldown window synchronously
func unlock(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = advance(t, m, cooldownMsg{gen: m.generation})
	return m
}

// TestNew_Defaults verifies the mount state of a fresh carousel
func TestNew_Defaults(t *testing.T) {
	m := New(reelOf(3))

	assert.Equal(t, 0, m.Index())
	assert.Equal(t, 3, m.Count())
	assert.False(t, m.Loading())
	assert.False(t, m.Animating())
	assert.False(t, m.Locked())
	assert.False(t, m.Collapsed())
	assert.Equal(t, "carousel", m.CurrentScene())

	item, ok := m.ActiveItem()
	require.True(t, ok)
	assert.Equal(t, "Card 1", item.Title())
}

// TestNew_EmptyReel verifies the zero-item mount
func TestNew_EmptyReel(t *testing.T) {
	m := New(nil)

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, "empty", m.CurrentScene())
	_, ok := m.ActiveItem()
	assert.False(t, ok)
}

// TestWithIndex_SeatsWithoutMotion verifies the controlled-index mount
func TestWithIndex_SeatsWithoutMotion(t *testing.T) {
	m := New(reelOf(5)).WithIndex(2)

	assert.Equal(t, 2, m.Index())
	assert.Equal(t, m.RotationTarget(), m.Rotation())
	assert.InDelta(t, -2*ring.AngleStep(5), m.Rotation(), 1e-12)
	assert.False(t, m.Animating())
}

// TestNavigate_NextSequence walks three presses with the cooldown
// honored between them
func TestNavigate_NextSequence(t *testing.T) {
	var notified []int
	m := New(reelOf(5)).WithCallbacks(Callbacks{
		OnIndexChange: func(i int) { notified = append(notified, i) },
	})

	var seen []int
	for i := 0; i < 3; i++ {
		m, _ = pressKey(t, m, tea.KeyRight)
		seen = append(seen, m.Index())
		m = unlock(t, m)
	}

	assert.Equal(t, []int{4, 3, 2}, seen)
	assert.Equal(t, []int{4, 3, 2}, notified)
	assert.True(t, m.Animating())
}

// TestNavigate_SingleItem verifies a one-item reel survives navigation
func TestNavigate_SingleItem(t *testing.T) {
	called := false
	m := New(reelOf(1)).WithCallbacks(Callbacks{
		OnIndexChange: func(int) { called = true },
	})

	m, _ = pressKey(t, m, tea.KeyRight)

	assert.Equal(t, 0, m.Index())
	assert.False(t, called, "no index change to report")
	assert.True(t, m.Animating(), "the full-turn lap still animates")
}

// TestNavigate_EmptyReelAndClose verifies arrows are no-ops while close
// still works on the empty state
func TestNavigate_EmptyReelAndClose(t *testing.T) {
	closed := false
	m := New(nil).WithCallbacks(Callbacks{
		OnClose: func() { closed = true },
	})

	m, cmd := pressKey(t, m, tea.KeyRight)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.Index())

	_, cmd = pressKey(t, m, tea.KeyEsc)
	msgs := drainCmd(cmd)
	require.Len(t, msgs, 1)
	assert.IsType(t, CloseRequestedMsg{}, msgs[0])
	assert.True(t, closed)
}

// TestSetIndex_ExternalControl verifies the authoritative index path
func TestSetIndex_ExternalControl(t *testing.T) {
	var notified []int
	m := NewWithConfig(reelOf(6), fastConfig()).
		WithIndex(2).
		WithCallbacks(Callbacks{
			OnIndexChange: func(i int) { notified = append(notified, i) },
		})
	before := m.RotationTarget()

	m, cmd := advance(t, m, SetIndexMsg{Index: 4})

	assert.Equal(t, 4, m.Index())
	assert.InDelta(t, before-2*ring.AngleStep(6), m.RotationTarget(), 1e-12)
	assert.Equal(t, []int{4}, notified)

	var changed *IndexChangedMsg
	for _, msg := range drainCmd(cmd) {
		if c, ok := msg.(IndexChangedMsg); ok {
			changed = &c
		}
	}
	require.NotNil(t, changed, "index change must be announced as a message")
	assert.Equal(t, 4, changed.Index)
	assert.Equal(t, "Card 5", changed.Item.Title())
}

// TestSetIndex_IgnoresCooldown verifies external control wins over the
// debounce window
func TestSetIndex_IgnoresCooldown(t *testing.T) {
	m := New(reelOf(6))

	m, _ = pressKey(t, m, tea.KeyRight)
	require.True(t, m.Locked())

	m, _ = advance(t, m, SetIndexMsg{Index: 3})
	assert.Equal(t, 3, m.Index())
}

// TestNavigate_DebounceDropsRapidPresses verifies presses inside the
// window are dropped, not queued
func TestNavigate_DebounceDropsRapidPresses(t *testing.T) {
	m := New(reelOf(5))

	m, _ = pressKey(t, m, tea.KeyRight)
	m, _ = pressKey(t, m, tea.KeyRight)
	m, _ = pressKey(t, m, tea.KeyRight)
	assert.Equal(t, 4, m.Index(), "only the first press lands")

	m = unlock(t, m)
	m, _ = pressKey(t, m, tea.KeyRight)
	assert.Equal(t, 3, m.Index())
}

// TestCooldown_StaleTimerIgnored verifies timers from an old mount
// cannot unlock the new one
func TestCooldown_StaleTimerIgnored(t *testing.T) {
	m := New(reelOf(5))

	m, _ = pressKey(t, m, tea.KeyRight)
	require.True(t, m.Locked())
	staleGen := m.generation

	m, _ = advance(t, m, SetItemsMsg{Items: reelOf(5)})
	m, _ = pressKey(t, m, tea.KeyRight)
	require.True(t, m.Locked())

	m, _ = advance(t, m, cooldownMsg{gen: staleGen})
	assert.True(t, m.Locked(), "stale cooldown must not unlock the remount")

	m, _ = advance(t, m, cooldownMsg{gen: m.generation})
	assert.False(t, m.Locked())
}

// TestFrame_GlideSettlesAndStops pumps animation frames until the
// rotation reaches its target
func TestFrame_GlideSettlesAndStops(t *testing.T) {
	m := NewWithConfig(reelOf(4), fastConfig())

	m, _ = pressKey(t, m, tea.KeyRight)
	require.True(t, m.Animating())

	for i := 0; i < 100 && m.Animating(); i++ {
		m, _ = advance(t, m, frameMsg{gen: m.generation, at: time.Now()})
	}

	assert.False(t, m.Animating(), "glide must settle")
	assert.Equal(t, m.RotationTarget(), m.Rotation())
}

// TestFrame_StaleGenerationIgnored verifies frames from before a
// remount do not move the new ring
func TestFrame_StaleGenerationIgnored(t *testing.T) {
	m := NewWithConfig(reelOf(4), fastConfig())
	m, _ = pressKey(t, m, tea.KeyRight)
	rotation := m.Rotation()

	m, _ = advance(t, m, frameMsg{gen: m.generation + 1, at: time.Now()})
	assert.Equal(t, rotation, m.Rotation())
}

// TestSelect_EmitsActiveItem verifies confirm fires the callback and
// the message
func TestSelect_EmitsActiveItem(t *testing.T) {
	var selected Item
	m := New(reelOf(5)).WithIndex(3).WithCallbacks(Callbacks{
		OnItemSelect: func(item Item) { selected = item },
	})

	_, cmd := pressKey(t, m, tea.KeyEnter)

	require.NotNil(t, selected)
	assert.Equal(t, "Card 4", selected.Title())

	msgs := drainCmd(cmd)
	require.Len(t, msgs, 1)
	sel, ok := msgs[0].(ItemSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "card-3", sel.Item.ID())
}

// TestLoading_BlocksNavigationAndSelect verifies the loading state
// ignores ring commands but still closes
func TestLoading_BlocksNavigationAndSelect(t *testing.T) {
	closed := false
	m := New(reelOf(5)).WithLoading(true).WithCallbacks(Callbacks{
		OnClose: func() { closed = true },
	})

	m, cmd := pressKey(t, m, tea.KeyRight)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.Index())

	m, cmd = pressKey(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)

	m, _ = pressKey(t, m, tea.KeyEsc)
	assert.True(t, closed, "close stays live while loading")

	// Leaving the loading state restores navigation.
	m, _ = advance(t, m, SetLoadingMsg{Loading: false})
	m, _ = pressKey(t, m, tea.KeyRight)
	assert.Equal(t, 4, m.Index())
}

// TestSetLoading_TicksSpinnerOnce verifies the toggle semantics
func TestSetLoading_TicksSpinnerOnce(t *testing.T) {
	m := New(reelOf(2))

	cmd := m.SetLoading(true)
	assert.NotNil(t, cmd, "entering loading starts the spinner")
	assert.True(t, m.Loading())

	assert.Nil(t, m.SetLoading(true), "same value is a no-op")

	assert.Nil(t, m.SetLoading(false))
	assert.False(t, m.Loading())
}

// TestKeys_WASDCluster verifies the one-handed bindings
func TestKeys_WASDCluster(t *testing.T) {
	m := New(reelOf(5))

	m, _ = pressRune(t, m, 'd')
	assert.Equal(t, 4, m.Index())
	m = unlock(t, m)

	m, _ = pressRune(t, m, 'a')
	assert.Equal(t, 0, m.Index())
	m = unlock(t, m)

	m, _ = pressRune(t, m, 's')
	assert.Equal(t, 4, m.Index())
	m = unlock(t, m)

	m, _ = pressRune(t, m, 'w')
	assert.Equal(t, 0, m.Index())
}

// TestKeys_ArrowAliases verifies up and down mirror the horizontal pair
func TestKeys_ArrowAliases(t *testing.T) {
	m := New(reelOf(5))

	m, _ = pressKey(t, m, tea.KeyDown)
	assert.Equal(t, 4, m.Index())
	m = unlock(t, m)

	m, _ = pressKey(t, m, tea.KeyUp)
	assert.Equal(t, 0, m.Index())
}

// TestMouse_WheelNavigates verifies scroll is navigation with the same
// debounce
func TestMouse_WheelNavigates(t *testing.T) {
	m := New(reelOf(5))

	m, _ = advance(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 4, m.Index())

	m, _ = advance(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 4, m.Index(), "wheel respects the cooldown")

	m = unlock(t, m)
	m, _ = advance(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelUp})
	assert.Equal(t, 0, m.Index())
}

// TestMouse_ClicksFooterButtons verifies click zones map onto the
// navigation commands
func TestMouse_ClicksFooterButtons(t *testing.T) {
	m := sizedModel(t, reelOf(5), 80, 24)
	g := m.footerGeometry()

	click := func(x, y int) {
		m, _ = advance(t, m, tea.MouseMsg{
			X: x, Y: y,
			Action: tea.MouseActionPress,
			Button: tea.MouseButtonLeft,
		})
	}

	click(g.prevStart+1, g.row)
	assert.Equal(t, 1, m.Index(), "prev button")
	m = unlock(t, m)

	click(g.nextStart+1, g.row)
	assert.Equal(t, 0, m.Index(), "next button")
	m = unlock(t, m)

	// A click off the control row does nothing.
	click(g.prevStart+1, g.row-1)
	assert.Equal(t, 0, m.Index())

	// A click in the dead gap between controls does nothing.
	click(g.prevEnd, g.row)
	assert.Equal(t, 0, m.Index())
}

// TestMouse_ClickScrubsBar verifies bar clicks jump by fraction
func TestMouse_ClickScrubsBar(t *testing.T) {
	m := sizedModel(t, reelOf(5), 80, 24)
	g := m.footerGeometry()

	m, _ = advance(t, m, tea.MouseMsg{
		X: g.barEnd - 1, Y: g.row,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	assert.Equal(t, 4, m.Index(), "last bar cell lands on the last item")

	m, _ = advance(t, m, tea.MouseMsg{
		X: g.barStart, Y: g.row,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	assert.Equal(t, 0, m.Index(), "scrubbing ignores the cooldown")
}

// TestMouse_ClickBeforeSizeIgnored verifies clicks without geometry are
// dropped
func TestMouse_ClickBeforeSizeIgnored(t *testing.T) {
	m := New(reelOf(5))

	m, cmd := advance(t, m, tea.MouseMsg{
		X: 10, Y: 22,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.Index())
}

// TestScrub_PercentMapping verifies the external scrub surface
func TestScrub_PercentMapping(t *testing.T) {
	m := NewWithConfig(reelOf(5), fastConfig())

	m, _ = advance(t, m, ScrubMsg{Percent: 100})
	assert.Equal(t, 4, m.Index())

	m, _ = advance(t, m, ScrubMsg{Percent: 50})
	assert.Equal(t, 2, m.Index())

	m, _ = advance(t, m, ScrubMsg{Percent: -20})
	assert.Equal(t, 0, m.Index(), "percent clamps at the edges")
}

// TestSetItems_RemountsReel verifies replacing items re-seats the ring
// and invalidates old timers
func TestSetItems_RemountsReel(t *testing.T) {
	m := New(reelOf(5)).WithIndex(4)
	gen := m.generation

	m, _ = advance(t, m, SetItemsMsg{Items: reelOf(2)})

	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 1, m.Index(), "active index clamps into the new reel")
	assert.Greater(t, m.generation, gen)
	assert.False(t, m.Animating())
	assert.Equal(t, m.RotationTarget(), m.Rotation(), "re-seated without motion")
}

// TestCloseRequested_QuitsAsRoot verifies the root-model close behavior
func TestCloseRequested_QuitsAsRoot(t *testing.T) {
	m := New(reelOf(2))

	_, cmd := advance(t, m, CloseRequestedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

// TestInit_SpinnerOnlyWhenLoading verifies mount commands
func TestInit_SpinnerOnlyWhenLoading(t *testing.T) {
	assert.Nil(t, New(reelOf(2)).Init())
	assert.NotNil(t, New(reelOf(2)).WithLoading(true).Init())
}

// TestCheckCondition_Predicates verifies the named state predicates
func TestCheckCondition_Predicates(t *testing.T) {
	m := New(reelOf(3))

	assert.True(t, m.CheckCondition("settled"))
	assert.True(t, m.CheckCondition("has_items"))
	assert.False(t, m.CheckCondition("locked"))
	assert.False(t, m.CheckCondition("empty"))
	assert.False(t, m.CheckCondition("no_such_condition"))

	m, _ = pressKey(t, m, tea.KeyRight)
	assert.True(t, m.CheckCondition("locked"))
	assert.True(t, m.CheckCondition("animating"))
	assert.False(t, m.CheckCondition("settled"))

	assert.True(t, New(nil).CheckCondition("empty"))
	assert.True(t, New(reelOf(1)).WithLoading(true).CheckCondition("loading"))
}
