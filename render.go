package zoetrope

import (
	"fmt"
	"strings"

	"github.com/teranos/zoetrope/jam"
	"github.com/teranos/zoetrope/ring"
)

// ItemRenderer produces one item's visual content. Implementations
// receive whether the item is active and the perspective scale in
// (0, 1], and return plain or lipgloss-styled text. The carousel adds
// the card chrome itself; renderers only fill the inside.
//
// Renderers are plugins and are allowed to fail: a panic is caught by
// the item's fault boundary and turns into a placeholder card, never
// a crash.
type ItemRenderer func(item Item, active bool, scale float64) string

// DefaultRenderer is the built-in fallback used when no renderer is
// supplied. It dispatches on BasicItem kind tags for a fitting glyph
// and drops detail text on far (small-scale) cards.
func DefaultRenderer(item Item, active bool, scale float64) string {
	title := item.Title()
	if title == "" {
		title = item.ID()
	}

	kind, body := "", ""
	switch b := item.(type) {
	case BasicItem:
		kind, body = b.Kind, b.Body
	case *BasicItem:
		kind, body = b.Kind, b.Body
	}

	lines := []string{kindGlyph(kind) + " " + title}
	if body != "" && scale > 0.7 {
		lines = append(lines, body)
	}
	return strings.Join(lines, "\n")
}

func kindGlyph(kind string) string {
	switch kind {
	case "image":
		return "▦"
	case "video":
		return "▶"
	case "link":
		return "»"
	case "quote":
		return "❝"
	case "favorite":
		return "★"
	default:
		return "◈"
	}
}

// renderCard renders one slot through the per-item fault boundary.
// Burned items short-circuit to the placeholder without touching the
// renderer again; recovery is by remount only.
func (m Model) renderCard(idx int, proj ring.Projection) string {
	item := m.items[idx]
	active := idx == m.wheel.active
	scale := clampFloat(proj.Scale, m.cfg.MinScale, 1)

	if _, burned := m.booth.itemJam(item.ID()); burned {
		return m.failedCard(item, scale)
	}

	content, j := m.renderGuarded(item, active, scale)
	if j != nil {
		if first := m.booth.failItem(item.ID(), j); first && m.cb.OnItemFault != nil {
			m.cb.OnItemFault(item, j)
		}
		return m.failedCard(item, scale)
	}
	return m.card(content, active, scale)
}

// renderGuarded invokes the renderer plugin inside the boundary.
func (m Model) renderGuarded(item Item, active bool, scale float64) (out string, j *jam.Jam) {
	defer func() {
		if r := recover(); r != nil {
			j = jam.FromPanic("render", r, jam.Context{
				"item_id": item.ID(),
				"active":  active,
			})
		}
	}()

	renderer := m.renderer
	if renderer == nil {
		renderer = DefaultRenderer
	}
	out = renderer(item, active, scale)
	return out, nil
}

// card wraps renderer output in chrome sized by perspective.
func (m Model) card(content string, active bool, scale float64) string {
	style := m.styles.Card
	switch {
	case active:
		style = m.styles.CardActive
	case scale < 0.62:
		style = m.styles.CardDim
	}
	return style.Width(m.cardWidth(scale)).Render(content)
}

// failedCard is the neutral placeholder for a burned item: the title
// it would have shown plus an inline diagnostic marker.
func (m Model) failedCard(item Item, scale float64) string {
	name := item.Title()
	if name == "" {
		name = item.ID()
	}
	content := fmt.Sprintf("%s\n%s", name, m.styles.FaultMark.Render("⚠ render failed"))
	return m.styles.CardFailed.Width(m.cardWidth(scale)).Render(content)
}

func (m Model) cardWidth(scale float64) int {
	w := int(float64(m.cfg.CardWidth) * scale)
	if w < 8 {
		w = 8
	}
	return w
}
