package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	was := lipgloss.HasDarkBackground()
	t.Cleanup(func() { lipgloss.SetHasDarkBackground(was) })

	require.NoError(t, Apply(ThemeLight))
	assert.False(t, lipgloss.HasDarkBackground())

	require.NoError(t, Apply(ThemeDark))
	assert.True(t, lipgloss.HasDarkBackground())

	require.NoError(t, Apply(ThemeDefault), "default keeps the current detection")
	assert.True(t, lipgloss.HasDarkBackground())

	err := Apply("neon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neon")
}
