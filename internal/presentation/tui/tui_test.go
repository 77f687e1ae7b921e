package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.Equal(t, len(bannerLines)+2, strings.Count(out, "\n"))
	assert.NotContains(t, out, "\x1b[", "buffers get no color")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Orlando\n\n- **Day 1**: Theme park")
	require.NoError(t, err)
	assert.Contains(t, out, "Orlando")
	assert.Contains(t, out, "Theme park")
}
