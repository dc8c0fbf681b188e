package zoetrope

import "github.com/charmbracelet/lipgloss"

// Styles collects every lipgloss style the carousel renders with.
// Override any of them before the first View to re-skin the widget.
type Styles struct {
	Title   lipgloss.Style
	Counter lipgloss.Style

	Card       lipgloss.Style
	CardActive lipgloss.Style
	CardDim    lipgloss.Style
	CardFailed lipgloss.Style
	FaultMark  lipgloss.Style

	Button lipgloss.Style
	Status lipgloss.Style
	Hint   lipgloss.Style

	CollapseTitle lipgloss.Style
	CollapseBody  lipgloss.Style
}

// DefaultStyles returns the stock look: rounded cards, a pink accent
// on the active slot, faint chrome everywhere else.
func DefaultStyles() Styles {
	var (
		accent  = lipgloss.Color("205")
		subtle  = lipgloss.Color("241")
		faint   = lipgloss.Color("238")
		alarm   = lipgloss.Color("196")
		surface = lipgloss.Color("252")
	)

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1),
		Counter: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Foreground(surface).
			Padding(0, 1),
		CardActive: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Foreground(surface).
			Bold(true).
			Padding(0, 1),
		CardDim: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(faint).
			Foreground(subtle).
			Faint(true).
			Padding(0, 1),
		CardFailed: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(alarm).
			Foreground(subtle).
			Padding(0, 1),
		FaultMark: lipgloss.NewStyle().
			Foreground(alarm).
			Bold(true),

		Button: lipgloss.NewStyle().
			Foreground(surface).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(1, 2),
		Hint: lipgloss.NewStyle().
			Foreground(faint),

		CollapseTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(alarm).
			Padding(0, 1),
		CollapseBody: lipgloss.NewStyle().
			Foreground(surface).
			Padding(1, 2),
	}
}
