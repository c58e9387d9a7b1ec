package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="1000" height="1000">
<path d="M0,0 L1000,0 L1000,1000 L0,1000 Z" fill="#FEFEFE" transform="translate(0,0)"/>
<path d="M10,10 L40,10 L40,40 Z" fill="#D32F2F" transform="translate(100,120)"/>
<path d="M5,5 L25,5 L25,25 Z" fill="#1A1A1A"/>
</svg>`

func TestSVGToPaths(t *testing.T) {
	paths := SVGToPaths(sampleSVG)
	require.Len(t, paths, 2, "near-white background path must be discarded")

	red := paths[0]
	assert.Equal(t, "#d32f2f", red.StrokeColor)
	assert.Equal(t, "#d32f2f", red.FillColor)
	assert.Equal(t, 100.0, red.X)
	assert.Equal(t, 120.0, red.Y)
	assert.Equal(t, 1.0, red.ScaleX)
	assert.NotEmpty(t, red.ID)

	black := paths[1]
	assert.Equal(t, 0.0, black.X)
	assert.Equal(t, 0.0, black.Y)
	assert.NotEqual(t, red.ID, black.ID)
}

func TestIsBackgroundColor(t *testing.T) {
	assert.True(t, isBackgroundColor("#ffffff"))
	assert.True(t, isBackgroundColor("#fefef0"))  // f0 = 240 > 200
	assert.False(t, isBackgroundColor("#c8c8c8")) // 200 is not above 200
	assert.False(t, isBackgroundColor("#ff0000"))
	assert.False(t, isBackgroundColor("red"))
	assert.False(t, isBackgroundColor(""))
}
