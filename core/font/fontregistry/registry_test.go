package fontregistry

import (
	"testing"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font"
	"github.com/npillmayer/asefont/core/font/opentype"
	"github.com/npillmayer/asefont/core/font/opentype/otbuild"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxFont(t *testing.T, family string) *font.ScalableFont {
	box := &opentype.GlyphOutline{
		Advance: 512,
		BBox:    opentype.BoundingBox{MinX: 64, MinY: 0, MaxX: 448, MaxY: 640},
		Points:  []opentype.Point{{X: 64, Y: 0}, {X: 64, Y: 640}, {X: 448, Y: 640}, {X: 448, Y: 0}},
		Ends:    []int{3},
	}
	doc := &opentype.FontDocument{
		Glyphs:     []*opentype.GlyphOutline{box},
		Meta:       opentype.FontMetadata{Family: family},
		UnitsPerEm: 1024,
		Ascent:     896,
		Descent:    -128,
	}
	b, err := otbuild.Assemble(doc)
	require.NoError(t, err)
	f, err := font.ParseOpenTypeFont(b)
	require.NoError(t, err)
	return f
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "tiny_pixels", NormalizeFontname(" Tiny Pixels "))
	assert.Equal(t, "tiny", NormalizeFontname("/fonts/Tiny.ttf"))
	assert.Equal(t, "v1.0", NormalizeFontname("V1.0"))
}

func TestTypeCaseCache(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	fr := NewRegistry()
	f := boxFont(t, "Box Font")
	key := fr.StoreFont(f)
	assert.Equal(t, "box_font", key)
	assert.Equal(t, key, fr.StoreFont(boxFont(t, "Box Font")), "first font wins")
	//
	tc, err := fr.TypeCase(key, 16)
	require.NoError(t, err)
	assert.Same(t, f, tc.ScalableFontParent())
	again, err := fr.TypeCase(key, 16)
	require.NoError(t, err)
	assert.Same(t, tc, again, "typecases are cached")
	other, err := fr.TypeCase(key, 32)
	require.NoError(t, err)
	assert.NotSame(t, tc, other)
	//
	_, err = fr.TypeCase("unknown", 16)
	assert.Error(t, err)
	_, err = fr.TypeCase(key, 0)
	assert.True(t, core.IsConfigError(err))
	fr.LogFontList()
	assert.Equal(t, "", fr.StoreFont(nil))
}
