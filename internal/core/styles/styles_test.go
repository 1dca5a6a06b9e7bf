package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPalette(t *testing.T) {
	for _, name := range ThemeNames() {
		p, ok := GetPalette(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, p.Primary)
	}

	_, ok := GetPalette("missing")
	assert.False(t, ok)
}

func TestGlamourStyle_UsesPalette(t *testing.T) {
	p, _ := GetPalette("gruvbox")
	SetTheme(p)
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	cfg := GlamourStyle()
	require.NotNil(t, cfg.Heading.Color)
	assert.Equal(t, "#83a598", *cfg.Heading.Color)
}
