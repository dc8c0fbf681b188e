package zoetrope

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// indexForFraction maps a slider position in [0, 1] onto the item
// range, rounding to the nearest index. This is the scrub control's
// whole contract: round(fraction * (count - 1)).
func indexForFraction(fraction float64, count int) int {
	if count == 0 {
		return 0
	}
	fraction = clampFloat(fraction, 0, 1)
	return int(math.Round(fraction * float64(count-1)))
}

// footerGeometry locates the scrub controls in the rendered footer
// row so mouse clicks can be mapped back onto them. Column ranges are
// half-open. View and geometry are computed from the same widths; if
// one changes the other must follow.
type footerGeometry struct {
	row       int
	prevStart int
	prevEnd   int
	barStart  int
	barEnd    int
	nextStart int
	nextEnd   int
}

const footerButtonWidth = 3 // one glyph plus button padding

func (m Model) footerGeometry() footerGeometry {
	barW := m.slider.Width
	rowWidth := footerButtonWidth + 1 + barW + 1 + footerButtonWidth
	leftPad := (m.width - rowWidth) / 2
	if leftPad < 0 {
		leftPad = 0
	}

	g := footerGeometry{row: m.height - 2}
	g.prevStart = leftPad
	g.prevEnd = g.prevStart + footerButtonWidth
	g.barStart = g.prevEnd + 1
	g.barEnd = g.barStart + barW
	g.nextStart = g.barEnd + 1
	g.nextEnd = g.nextStart + footerButtonWidth
	return g
}

// scrubRow renders the previous button, the position slider, and the
// next button on one line, centered to the geometry above.
func (m Model) scrubRow() string {
	g := m.footerGeometry()
	prev := m.styles.Button.Render("◀")
	next := m.styles.Button.Render("▶")
	bar := m.slider.ViewAs(m.wheel.fraction())

	var row strings.Builder
	row.WriteString(strings.Repeat(" ", g.prevStart))
	row.WriteString(prev)
	row.WriteString(" ")
	row.WriteString(bar)
	row.WriteString(" ")
	row.WriteString(next)
	return row.String()
}

// helpRow renders the key hints under the scrub row.
func (m Model) helpRow() string {
	hints := m.help.View(m.keys)
	return lipgloss.PlaceHorizontal(maxInt(m.width, lipgloss.Width(hints)), lipgloss.Center, hints)
}

// footerView is the two-line footer: scrub controls over key hints.
func (m Model) footerView() string {
	return m.scrubRow() + "\n" + m.helpRow()
}

// fractionForColumn converts a clicked slider column back into a
// fraction, with the last cell landing exactly on 1.
func (g footerGeometry) fractionForColumn(x int) float64 {
	span := g.barEnd - g.barStart - 1
	if span < 1 {
		return 0
	}
	return clampFloat(float64(x-g.barStart)/float64(span), 0, 1)
}
