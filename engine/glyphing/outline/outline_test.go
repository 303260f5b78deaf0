package outline

import (
	"strings"
	"testing"

	"github.com/npillmayer/asefont/core/font/opentype"
	"github.com/npillmayer/asefont/engine/glyphing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// area is twice the signed area of a contour; negative for clockwise contours
// in a y-up coordinate system.
func area(c opentype.Contour) int {
	a := 0
	for i, p := range c {
		q := c[(i+1)%len(c)]
		a += int(p.X)*int(q.Y) - int(q.X)*int(p.Y)
	}
	return a
}

func opts(trim bool) Options {
	return Options{Trim: trim, TrimPad: 1, UnitsPerPixel: 10, Baseline: 0}
}

func TestFilledSquare(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	row := strings.Repeat("#", 16)
	rows := make([]string, 16)
	for i := range rows {
		rows[i] = row
	}
	o := DefaultOptions()
	g := Build(glyphing.ParseBitmap(rows...), 'X', o)
	require.Equal(t, 1, g.ContourCount())
	assert.Len(t, g.Points, 4)
	assert.Equal(t, 16*64, int(g.Advance))
	assert.Equal(t, opentype.BoundingBox{MinX: 0, MinY: -128, MaxX: 1024, MaxY: 896}, g.BBox)
	assert.Equal(t, opentype.Point{X: 0, Y: 896}, g.Points[0])
	assert.Less(t, area(g.Contour(0)), 0, "outer contour must be clockwise")
	assert.Equal(t, g.BBox.MinX, g.LSB())
}

func TestHoleWinding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	g := Build(glyphing.ParseBitmap("###", "#.#", "###"), 'O', opts(false))
	require.Equal(t, 2, g.ContourCount())
	assert.Equal(t, -2*900, area(g.Contour(0)))
	assert.Equal(t, 2*100, area(g.Contour(1)))
	assert.Len(t, g.Contour(0), 4)
	assert.Len(t, g.Contour(1), 4)
}

func TestRunsMerge(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	g := Build(glyphing.ParseBitmap(
		"#...",
		"#...",
		"#...",
		"####",
	), 'L', opts(false))
	require.Equal(t, 1, g.ContourCount())
	assert.Len(t, g.Points, 6)
	assert.Equal(t, -2*700, area(g.Contour(0)))
}

func TestDiagonalTouch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	g := Build(glyphing.ParseBitmap("#.", ".#"), 'x', opts(false))
	require.Equal(t, 2, g.ContourCount())
	for i := 0; i < 2; i++ {
		assert.Len(t, g.Contour(i), 4)
		assert.Equal(t, -2*100, area(g.Contour(i)))
	}
	g = Build(glyphing.ParseBitmap(".#", "#."), 'x', opts(false))
	require.Equal(t, 2, g.ContourCount())
	//
	g = Build(glyphing.ParseBitmap("##", "#.", "##"), 'x', opts(false))
	require.Equal(t, 1, g.ContourCount(), "notch is part of the outer contour")
}

func TestTrimSingleColumn(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	bm := glyphing.ParseBitmap(
		".....#..",
		".....#..",
		".....#..",
	)
	g := Build(bm, 'l', opts(true))
	assert.Equal(t, 30, int(g.Advance), "one column plus one pad column on each side")
	assert.Equal(t, 10, int(g.BBox.MinX))
	assert.Equal(t, 20, int(g.BBox.MaxX))
	assert.Equal(t, 30, int(g.BBox.MaxY), "rows are never trimmed")
	//
	o := opts(true)
	o.TrimPad = 0
	g = Build(bm, 'l', o)
	assert.Equal(t, 10, int(g.Advance))
	assert.Equal(t, 0, int(g.LSB()))
	//
	g = Build(bm, 'l', opts(false))
	assert.Equal(t, 80, int(g.Advance))
	assert.Equal(t, 50, int(g.BBox.MinX))
}

func TestTrimEmpty(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	g := Build(glyphing.NewBitmap(8, 8), ' ', opts(true))
	assert.Equal(t, 0, int(g.Advance))
	assert.True(t, g.Empty())
	assert.Empty(t, g.Points)
	//
	g = Build(glyphing.NewBitmap(8, 8), ' ', opts(false))
	assert.Equal(t, 80, int(g.Advance))
	assert.True(t, g.Empty())
}

func TestBaseline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	o := opts(false)
	o.Baseline = 2
	g := Build(glyphing.ParseBitmap("#", "#", "#", "#"), 'j', o)
	assert.Equal(t, -20, int(g.BBox.MinY))
	assert.Equal(t, 20, int(g.BBox.MaxY))
}

func TestNotdef(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	g := Notdef(16, 16, DefaultOptions())
	assert.Equal(t, uint32(0), g.CodePoint)
	assert.Equal(t, 2, g.ContourCount())
	assert.Equal(t, 16*64, int(g.Advance))
	assert.Equal(t, 64, int(g.BBox.MinX))
	assert.Equal(t, 0, int(g.BBox.MinY), "box sits on the baseline")
	assert.Less(t, area(g.Contour(0)), 0)
	assert.Greater(t, area(g.Contour(1)), 0)
	//
	g = Notdef(2, 2, DefaultOptions())
	assert.False(t, g.Empty())
}
