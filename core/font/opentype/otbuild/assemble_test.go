package otbuild

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font/opentype"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func box(code uint32, x0, y0, x1, y1 sfnt.Units) *opentype.GlyphOutline {
	return &opentype.GlyphOutline{
		CodePoint: code,
		Advance:   x1 + 64,
		BBox:      opentype.BoundingBox{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1},
		Points:    []opentype.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}},
		Ends:      []int{3},
	}
}

func testDoc(codes ...uint32) *opentype.FontDocument {
	glyphs := []*opentype.GlyphOutline{box(0, 64, 0, 448, 640)}
	for _, c := range codes {
		glyphs = append(glyphs, box(c, 64, -128, 512, 768))
	}
	return &opentype.FontDocument{
		Glyphs:             glyphs,
		Meta:               opentype.FontMetadata{Family: "Pixel Test", Version: "Version 1.5"},
		UnitsPerEm:         1024,
		Ascent:             896,
		Descent:            -128,
		CellWidth:          16,
		CellHeight:         16,
		UnderlinePosition:  -64,
		UnderlineThickness: 64,
		FixedPitch:         true,
	}
}

type dirEntry struct {
	tag                      string
	checksum, offset, length uint32
}

func directory(t *testing.T, font []byte) map[string]dirEntry {
	n := int(binary.BigEndian.Uint16(font[4:]))
	dir := make(map[string]dirEntry, n)
	for i := 0; i < n; i++ {
		rec := font[12+16*i:]
		e := dirEntry{
			tag:      string(rec[:4]),
			checksum: binary.BigEndian.Uint32(rec[4:]),
			offset:   binary.BigEndian.Uint32(rec[8:]),
			length:   binary.BigEndian.Uint32(rec[12:]),
		}
		require.Zero(t, e.offset%4, e.tag)
		require.LessOrEqual(t, int(e.offset+e.length), len(font), e.tag)
		dir[e.tag] = e
	}
	return dir
}

func table(t *testing.T, font []byte, tag string) []byte {
	e, ok := directory(t, font)[tag]
	require.True(t, ok, tag)
	return font[e.offset : e.offset+e.length]
}

func TestAssembleChecksums(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	font, err := Assemble(testDoc('A', 'B', 'C'))
	require.NoError(t, err)
	assert.Zero(t, len(font)%4)
	dir := directory(t, font)
	assert.Len(t, dir, 10)
	for tag, e := range dir {
		data := font[e.offset : e.offset+e.length]
		if tag == "head" {
			data = append([]byte(nil), data...)
			putU32(data[8:], 0)
		}
		assert.Equal(t, Checksum(data), e.checksum, tag)
	}
	assert.Equal(t, uint32(checkSumMagic), Checksum(font))
	// table directory search parameters for 10 tables
	assert.Equal(t, []byte{0, 10, 0, 128, 0, 3, 0, 32}, font[4:12])
}

func TestAssembleDeterministic(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	a, err := Assemble(testDoc('A', 'Z', 0x1f600))
	require.NoError(t, err)
	b, err := Assemble(testDoc('A', 'Z', 0x1f600))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestAssembledFontParses(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	font, err := Assemble(testDoc('A', 'B', 'D'))
	require.NoError(t, err)
	f, err := sfnt.Parse(font)
	require.NoError(t, err)
	assert.Equal(t, 4, f.NumGlyphs())
	assert.Equal(t, sfnt.Units(1024), f.UnitsPerEm())
	var buf sfnt.Buffer
	for r, want := range map[rune]sfnt.GlyphIndex{'A': 1, 'B': 2, 'D': 3, 'C': 0, 0xffff: 0} {
		gid, err := f.GlyphIndex(&buf, r)
		require.NoError(t, err)
		assert.Equal(t, want, gid, "rune %q", r)
	}
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	require.NoError(t, err)
	assert.Equal(t, "Pixel Test", family)
	ps, err := f.Name(&buf, sfnt.NameIDPostScript)
	require.NoError(t, err)
	assert.Equal(t, "PixelTest-Regular", ps)
	segs, err := f.LoadGlyph(&buf, 1, fixed.I(1024), nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(segs), 4)
	assert.Equal(t, sfnt.SegmentOpMoveTo, segs[0].Op)
	adv, err := f.GlyphAdvance(&buf, 2, fixed.I(1024), 0)
	require.NoError(t, err)
	assert.Equal(t, fixed.I(576), adv)
	name, err := f.GlyphName(&buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "uni0042", name)
}

func TestNotdefOnlyFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	font, err := Assemble(testDoc())
	require.NoError(t, err)
	f, err := sfnt.Parse(font)
	require.NoError(t, err)
	assert.Equal(t, 1, f.NumGlyphs())
	cmap := table(t, font, "cmap")
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(cmap[2:]))
}

func TestCmapSupplementaryPlanes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	font, err := Assemble(testDoc('A'))
	require.NoError(t, err)
	cmap := table(t, font, "cmap")
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(cmap[2:]), "BMP only")
	//
	font, err = Assemble(testDoc('A', 'B', 0x1f600, 0x1f601))
	require.NoError(t, err)
	cmap = table(t, font, "cmap")
	require.Equal(t, uint16(4), binary.BigEndian.Uint16(cmap[2:]))
	var formats []uint16
	for i := 0; i < 4; i++ {
		off := binary.BigEndian.Uint32(cmap[4+8*i+4:])
		formats = append(formats, binary.BigEndian.Uint16(cmap[off:]))
	}
	assert.Equal(t, []uint16{4, 12, 4, 12}, formats)
	f, err := sfnt.Parse(font)
	require.NoError(t, err)
	var buf sfnt.Buffer
	gid, err := f.GlyphIndex(&buf, 0x1f601)
	require.NoError(t, err)
	assert.Equal(t, sfnt.GlyphIndex(4), gid)
}

func TestFormat4Segments(t *testing.T) {
	m := []mapping{{'A', 1}, {'B', 2}, {'C', 3}, {'a', 4}}
	segs := segments(m)
	assert.Equal(t, []segment{{'A', 'C', 1}, {'a', 'a', 4}}, segs)
	f4, err := format4(m)
	require.NoError(t, err)
	// 3 segments including the terminal one
	assert.Equal(t, uint16(6), binary.BigEndian.Uint16(f4[6:]))
	assert.Equal(t, 16+8*3, len(f4))
}

func TestFlagCompression(t *testing.T) {
	g := &opentype.GlyphOutline{
		BBox:   opentype.BoundingBox{MaxX: 30, MaxY: 30},
		Points: []opentype.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}},
		Ends:   []int{3},
	}
	var b buffer
	require.NoError(t, encodeGlyph(&b, g))
	require.Len(t, b, 23)
	tail := []byte(b[14:])
	assert.Equal(t, []byte{
		0x31, 0x3f, 0x02, // flags: same/same, then 3 × short positive
		10, 10, 10, // x deltas
		10, 10, 10, // y deltas
	}, tail)
	//
	b = nil
	g.Points = []opentype.Point{{X: 0, Y: 0}, {X: 0, Y: 1000}, {X: -300, Y: 1000}, {X: -300, Y: 0}}
	require.NoError(t, encodeGlyph(&b, g))
	flags := []byte(b[14:18])
	assert.Equal(t, []byte{0x31, 0x11, 0x21, 0x11}, flags)
}

func TestBuildErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont.fonts")
	defer teardown()
	//
	doc := testDoc('A')
	doc.Glyphs[1] = box('A', 0, 0, 40000, 10)
	_, err := Assemble(doc)
	assert.True(t, core.IsBuildError(err), "coordinate out of range")
	//
	doc = testDoc('A')
	doc.Glyphs[1].Advance = 70000
	_, err = Assemble(doc)
	assert.True(t, core.IsBuildError(err), "advance out of range")
	//
	doc = testDoc()
	for i := 0; i < MaxGlyphs; i++ {
		doc.Glyphs = append(doc.Glyphs, &opentype.GlyphOutline{CodePoint: uint32(i + 1)})
	}
	_, err = Assemble(doc)
	assert.True(t, core.IsBuildError(err), "too many glyphs")
	//
	doc = testDoc('A')
	doc.Meta.Copyright = string(make([]byte, MaxString+1))
	_, err = Assemble(doc)
	assert.True(t, core.IsBuildError(err), "name too long")
	//
	doc = testDoc('B', 'A')
	_, err = Assemble(doc)
	assert.Equal(t, core.EINTERNAL, core.Code(err))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "MyFont-Bold", postScriptName("My Font", "Bold"))
	assert.Equal(t, "ab-Regular", postScriptName("a(b)", "Regular"))
	assert.Equal(t, "Cafe-Regular", postScriptName("Café", "Regular"))
	assert.Len(t, postScriptName(string(bytes.Repeat([]byte("x"), 100)), "Regular"), 63)
	assert.Equal(t, []byte{'C', 'a', 'f', 0x8e, '?'}, macRoman("Café字"))
	assert.Equal(t, uint32(0x18000), fontRevision("Version 1.5"))
	assert.Equal(t, uint32(0x10000), fontRevision("beta"))
	//
	a := &assembler{doc: testDoc()}
	a.doc.Meta.Subfamily = "Bold"
	n := a.names()
	assert.Equal(t, "Pixel Test Bold", n[NameFull])
	assert.Equal(t, "asefont: Pixel Test Bold", n[NameUniqueID])
	_, ok := n[NameCopyright]
	assert.False(t, ok)
	//
	decomposed := " Cafe\u0301 "
	a.doc.Meta.Family, a.doc.Meta.Subfamily = decomposed, "  "
	n = a.names()
	assert.Equal(t, decomposed, n[NameFamily], "metadata is inserted verbatim")
	assert.Equal(t, "Regular", n[NameSubfamily])
	assert.Equal(t, "Cafe-Regular", n[NamePostScript])
}
