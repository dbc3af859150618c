package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	l := NewLayout(80, 24)
	assert.Equal(t, 80, l.ContentWidth())
	assert.Equal(t, 21, l.ContentHeight(0))
	assert.Equal(t, 18, l.ContentHeight(3))
	assert.Equal(t, 1, NewLayout(80, 2).ContentHeight(5))
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 24)
	header := l.RenderHeader("DevTodo", "dev@example.com")
	assert.Equal(t, 60, lipgloss.Width(header))
	assert.Contains(t, header, "DevTodo")
	assert.Contains(t, header, "dev@example.com")
}

func TestRenderTabs(t *testing.T) {
	out := NewLayout(80, 24).RenderTabs([]string{"Tasks", "Ideas"}, 1)
	assert.Contains(t, out, "Tasks")
	assert.Contains(t, out, "Ideas")
}

func TestRenderWithFrameSkipsEmptySections(t *testing.T) {
	out := NewLayout(80, 24).RenderWithFrame("header", "", "content", "  ", "status")
	assert.Equal(t, 3, len(strings.Split(out, "\n")))
}
