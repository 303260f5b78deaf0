package extract

import (
	"testing"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/input/aseprite"
	"github.com/npillmayer/asefont/input/aseprite/asetest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLayerName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	for name, want := range map[string]CodeRange{
		"U+0041":              {0x41, MaxCodePoint},
		"u+41":                {0x41, MaxCodePoint},
		"U+0041-":             {0x41, MaxCodePoint},
		"U+0041-005A":         {0x41, 0x5a},
		"U+0041-U+005A":       {0x41, 0x5a},
		"  U+0030 digits  ":   {0x30, MaxCodePoint},
		"U+1F600":             {0x1f600, MaxCodePoint},
		"U+0020- punctuation": {0x20, MaxCodePoint},
		"U+0041x":             {0x41, MaxCodePoint},
		"U+0041_caps":         {0x41, MaxCodePoint},
		"U+0041(caps)":        {0x41, MaxCodePoint},
		"U+0041,caps":         {0x41, MaxCodePoint},
		"U+0041:A-Z":          {0x41, MaxCodePoint},
		"U+00000041":          {0x41, MaxCodePoint},
		"U+0041-005A_upper":   {0x41, 0x5a},
		"U+0041-caps":         {0x41, MaxCodePoint},
		"U+0041-FFFFFFFFF":    {0x41, MaxCodePoint},
	} {
		r, ok := ParseLayerName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, r, name)
	}
	for _, name := range []string{"", "Layer 1", "U+", "U+XYZ", "U0041", "x U+0041", "U+1234567", "U+110000", "U+FFFFFFFFF"} {
		_, ok := ParseLayerName(name)
		assert.False(t, ok, name)
	}
}

// twoCells creates a 8×4 document with a layer holding two 4×4 cells.
func twoCells(t *testing.T, names ...string) *aseprite.Document {
	f := asetest.New(8, 4, asetest.RGBA)
	for i, name := range names {
		l := f.AddLayer(name)
		rows := []string{"#...", "#...", "#...", "####"} // 'L'
		if i%2 == 1 {
			rows = []string{"####", "#...", "###.", "#..."} // 'F'
		}
		f.Draw(l, 0, 0, rows...)
		f.Draw(l, 4, 0, ".##.", "#..#", "#..#", ".##.")
	}
	doc, err := aseprite.Decode(f.Encode())
	require.NoError(t, err)
	return doc
}

func opts4() Options {
	o := DefaultOptions()
	o.CellWidth, o.CellHeight = 4, 4
	return o
}

func TestExtractSequentialCodePoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	res, err := Extract(twoCells(t, "U+0041-"), opts4())
	require.NoError(t, err)
	require.Len(t, res.Glyphs, 2)
	assert.Equal(t, 1, res.Layers)
	assert.Equal(t, uint32('A'), res.Glyphs[0].Spec.CodePoint)
	assert.Equal(t, uint32('B'), res.Glyphs[1].Spec.CodePoint)
	assert.Equal(t, 4, res.Glyphs[1].Spec.X)
	assert.Equal(t, "#...\n#...\n#...\n####\n", res.Glyphs[0].Bitmap.String())
	for _, g := range res.Glyphs {
		assert.Equal(t, 4, g.Bitmap.W)
		assert.Equal(t, 4, g.Bitmap.H)
	}
}

func TestExtractIgnoresOtherLayers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	with, err := Extract(twoCells(t, "sketch", "U+0041"), opts4())
	require.NoError(t, err)
	without, err := Extract(twoCells(t, "U+0041"), opts4())
	require.NoError(t, err)
	require.Len(t, with.Glyphs, 2)
	assert.Equal(t, without.Glyphs[0].Spec.CodePoint, with.Glyphs[0].Spec.CodePoint)
	// layer "U+0041" is the second layer in the first document, drawing an 'F'
	assert.Equal(t, "####\n#...\n###.\n#...\n", with.Glyphs[0].Bitmap.String())
}

func TestExtractCommentAfterCodePoint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	for _, name := range []string{"U+0041_caps", "U+0041(caps)", "U+0041:A-Z", "U+00000041"} {
		res, err := Extract(twoCells(t, name), opts4())
		require.NoError(t, err)
		require.Len(t, res.Glyphs, 2, name)
		assert.Equal(t, uint32('A'), res.Glyphs[0].Spec.CodePoint, name)
		assert.Equal(t, uint32('B'), res.Glyphs[1].Spec.CodePoint, name)
	}
}

func TestExtractLaterLayerWins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	res, err := Extract(twoCells(t, "U+0041-", "U+0041-"), opts4())
	require.NoError(t, err)
	require.Len(t, res.Glyphs, 2)
	assert.Equal(t, "####\n#...\n###.\n#...\n", res.Glyphs[0].Bitmap.String(), "'F' of the later layer")
}

func TestExtractRangeEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	res, err := Extract(twoCells(t, "U+0041-0041"), opts4())
	require.NoError(t, err)
	require.Len(t, res.Glyphs, 1)
	assert.Equal(t, uint32('A'), res.Glyphs[0].Spec.CodePoint)
	//
	res, err = Extract(twoCells(t, "U+10FFFF"), opts4())
	require.NoError(t, err)
	assert.Len(t, res.Glyphs, 1, "second cell would exceed the Unicode range")
}

func TestExtractIncompleteAndEmptyCells(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	f := asetest.New(10, 5, asetest.RGBA)
	l := f.AddLayer("U+0061")
	f.Draw(l, 0, 0, "####", "####", "####", "####")
	f.Draw(l, 8, 0, "##", "##", "##", "##", "##") // incomplete cell on the right
	doc, err := aseprite.Decode(f.Encode())
	require.NoError(t, err)
	res, err := Extract(doc, opts4())
	require.NoError(t, err)
	require.Len(t, res.Glyphs, 1, "cell 1 is empty, cell 2 incomplete")
	assert.Equal(t, uint32('a'), res.Glyphs[0].Spec.CodePoint)
	//
	for _, g := range res.Glyphs {
		assert.LessOrEqual(t, g.Spec.X+g.Spec.W, 10)
		assert.LessOrEqual(t, g.Spec.Y+g.Spec.H, 5)
	}
}

func TestExtractOptions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	f := asetest.New(4, 4, asetest.RGBA)
	f.Layers = append(f.Layers, asetest.Layer{Name: "U+0041", Flags: 2}) // hidden
	c := f.Draw(0, 0, 0, "#")
	c.Opacity = 100
	doc, err := aseprite.Decode(f.Encode())
	require.NoError(t, err)
	o := opts4()
	res, err := Extract(doc, o)
	require.NoError(t, err)
	assert.Len(t, res.Glyphs, 1, "hidden layers are used by default")
	//
	o.AlphaThreshold = 128
	res, err = Extract(doc, o)
	require.NoError(t, err)
	assert.Empty(t, res.Glyphs, "pixel below alpha threshold")
	//
	o = opts4()
	o.SkipHidden = true
	res, err = Extract(doc, o)
	require.NoError(t, err)
	assert.Empty(t, res.Glyphs)
}

func TestExtractConfigError(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.glyphs")
	defer teardown()
	//
	doc := twoCells(t, "U+0041")
	o := opts4()
	o.CellWidth = 0
	_, err := Extract(doc, o)
	assert.True(t, core.IsConfigError(err))
	o = opts4()
	o.CellHeight = 0
	_, err = Extract(doc, o)
	assert.True(t, core.IsConfigError(err))
}
