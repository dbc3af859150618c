package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

// Theme names accepted by Apply.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeLight   = "light"
)

// Apply picks which side of the adaptive colors is used. The default theme
// follows the terminal background; dark and light force one side.
func Apply(name string) error {
	switch name {
	case "", ThemeDefault:
	case ThemeDark:
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		lipgloss.SetHasDarkBackground(false)
	default:
		return fmt.Errorf("unknown display theme %q (want default, dark or light)", name)
	}
	return nil
}

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorAccent = lipgloss.AdaptiveColor{Dark: "#D0BCFF", Light: model.DefaultColor}
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#1976D2"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#388E3C"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#938F99", Light: "#79747E"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#E6E1E5", Light: "#1C1B1F"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#49454F", Light: "#CAC4D0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#49454F", Light: "#E2E8F0"}
)

// StatusColors are the chart colors of each task status.
var StatusColors = map[string]string{
	model.StatusTodo:       "#79747E",
	model.StatusInProgress: "#1976D2",
	model.StatusDone:       "#388E3C",
	model.StatusArchived:   "#9E9E9E",
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorAccent).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// TabStyle renders an inactive entry of the view switcher.
var TabStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Padding(0, 1)

// ActiveTabStyle renders the current view in the switcher.
var ActiveTabStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorAccent).
	Underline(true).
	Padding(0, 1)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorAccent).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorAccent)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary text such as descriptions and dates.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// OverdueStyle marks due dates in the past.
var OverdueStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

// ErrorNoticeStyle renders a failed operation's notification.
var ErrorNoticeStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorRed).
	Padding(0, 1)

// InfoNoticeStyle renders a success notification.
var InfoNoticeStyle = lipgloss.NewStyle().
	Foreground(ColorGreen).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorGreen).
	Padding(0, 1)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// StatusStyle returns a color-coded style for the given task status.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.StatusTodo:
		return base.Foreground(ColorGray)
	case model.StatusInProgress:
		return base.Foreground(ColorBlue)
	case model.StatusDone:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorSubtle)
	}
}

// PriorityStyle returns a color-coded style for a priority. Higher numbers
// are more urgent.
func PriorityStyle(priority int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case priority >= 3:
		return base.Foreground(ColorRed)
	case priority == 2:
		return base.Foreground(ColorOrange)
	case priority == 1:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// Swatch renders a small block in a stored entity color. Invalid or empty
// colors fall back to the default accent.
func Swatch(color string) string {
	if color == "" {
		color = model.DefaultColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
