package zoetrope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/teranos/zoetrope/jam"
	"github.com/teranos/zoetrope/ring"
)

// View assembles the scene inside the scene fault boundary. A panic
// in layout or composition collapses to the retry surface; per-item
// render failures are caught one level down and never get this far.
func (m Model) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			j := jam.FromPanic("scene", r, jam.Context{
				"during": "view",
				"active": m.wheel.active,
			}).WithSeverity(jam.Snap)
			m.booth.snap(j)
			out = m.collapseView(j)
		}
	}()

	if j := m.booth.sceneJam(); j != nil {
		return m.collapseView(j)
	}
	if m.loading {
		return m.loadingView()
	}
	if len(m.items) == 0 {
		return m.emptyView()
	}

	header := m.headerView()
	stage := lipgloss.Place(
		maxInt(m.width, 0), m.stageHeight(),
		lipgloss.Center, lipgloss.Center,
		m.stageView(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, stage, m.footerView())
}

// stageView projects every slot through the current rotation, keeps
// the nearest cards, and lays them out left to right. Size and
// brightness carry the depth; ordering carries the ring.
func (m Model) stageView() string {
	n := len(m.items)
	step := ring.AngleStep(n)

	type slot struct {
		idx  int
		proj ring.Projection
	}
	slots := make([]slot, n)
	for i := 0; i < n; i++ {
		angle := float64(i)*step + m.wheel.rotation
		slots[i] = slot{idx: i, proj: ring.Project(angle, m.cfg.Radius, m.cfg.CameraDistance)}
	}

	sort.SliceStable(slots, func(a, b int) bool { return slots[a].proj.Depth > slots[b].proj.Depth })
	if len(slots) > m.cfg.MaxVisible {
		slots = slots[:m.cfg.MaxVisible]
	}
	sort.SliceStable(slots, func(a, b int) bool { return slots[a].proj.X < slots[b].proj.X })

	cards := make([]string, len(slots))
	for i, s := range slots {
		cards[i] = m.renderCard(s.idx, s.proj)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, cards...)
}

func (m Model) headerView() string {
	title := m.title
	if title == "" {
		title = "zoetrope"
	}
	counter := "0/0"
	if n := len(m.items); n > 0 {
		counter = fmt.Sprintf("%d/%d", m.wheel.active+1, n)
	} else if m.loading {
		counter = "…"
	}

	left := m.styles.Title.Render(title)
	right := m.styles.Counter.Render(counter)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// loadingView is the caller-signaled loading state: a spinner and no
// ring or navigation setup at all.
func (m Model) loadingView() string {
	caption := m.styles.Status.Render(m.spin.View() + " Threading the reel…")
	return m.surface(caption)
}

// emptyView is the designed zero-item state with its close affordance.
func (m Model) emptyView() string {
	status := m.styles.Status.Render("Nothing on the reel.")
	hint := m.styles.Hint.Render("press " + m.keys.Close.Help().Key + " to close")
	return m.surface(lipgloss.JoinVertical(lipgloss.Center, status, hint))
}

// collapseView is the scene boundary's full error surface: the fault
// message and the retry affordance, nothing else.
func (m Model) collapseView(j *jam.Jam) string {
	title := m.styles.CollapseTitle.Render("⚠ the film snapped")
	body := m.styles.CollapseBody.Render(j.Message)
	hint := m.styles.Hint.Render(fmt.Sprintf(
		"press %s to rethread • %s to close",
		m.keys.Retry.Help().Key, m.keys.Close.Help().Key,
	))

	content := lipgloss.JoinVertical(lipgloss.Center, title, body, hint)
	return lipgloss.Place(
		maxInt(m.width, lipgloss.Width(content)),
		maxInt(m.height, lipgloss.Height(content)),
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// surface wraps a centered body between the header and the hint row,
// the frame shared by the loading and empty states.
func (m Model) surface(content string) string {
	body := lipgloss.Place(
		maxInt(m.width, lipgloss.Width(content)),
		maxInt(m.height-2, lipgloss.Height(content)),
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.helpRow())
}

func (m Model) stageHeight() int {
	if m.height > 4 {
		return m.height - 3
	}
	return 0
}
