package chart

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/TOTORON9625/DevTodo/internal/theme"
)

const (
	defaultBarWidth = 40
	barRune         = "█"
)

// TerminalSink renders datasets as horizontal bar charts.
type TerminalSink struct {
	w        io.Writer
	barWidth int
}

// NewTerminalSink writes charts to w. barWidth is the length of the
// longest bar; zero or less uses a default.
func NewTerminalSink(w io.Writer, barWidth int) *TerminalSink {
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}
	return &TerminalSink{w: w, barWidth: barWidth}
}

// Draw implements Sink.
func (s *TerminalSink) Draw(canvasID string, ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(s.w, s.Render(ds)); err != nil {
		return fmt.Errorf("drawing %s: %w", canvasID, err)
	}
	return nil
}

// Render returns the chart as a string.
func (s *TerminalSink) Render(ds Dataset) string {
	var b strings.Builder
	if ds.Title != "" {
		b.WriteString(theme.HeaderStyle.Render(ds.Title))
		b.WriteString("\n")
	}
	if len(ds.Labels) == 0 {
		b.WriteString(theme.HelpStyle.Render("no data"))
		return b.String()
	}

	labelWidth := 0
	for _, l := range ds.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	labelStyle := lipgloss.NewStyle().Width(labelWidth + 1)

	peak := ds.Max()
	for i, label := range ds.Labels {
		n := 0
		if peak > 0 {
			n = int(math.Round(ds.Values[i] / peak * float64(s.barWidth)))
		}
		if n == 0 && ds.Values[i] > 0 {
			n = 1
		}

		bar := lipgloss.NewStyle().Foreground(s.barColor(ds, i)).Render(strings.Repeat(barRune, n))
		b.WriteString(labelStyle.Render(label))
		b.WriteString(bar)
		b.WriteString(" ")
		b.WriteString(formatValue(ds.Values[i]))
		if i < len(ds.Labels)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *TerminalSink) barColor(ds Dataset, i int) lipgloss.TerminalColor {
	if i < len(ds.Colors) && ds.Colors[i] != "" {
		return lipgloss.Color(ds.Colors[i])
	}
	return theme.ColorAccent
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
