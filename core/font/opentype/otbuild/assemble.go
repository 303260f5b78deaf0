package otbuild

import (
	"math"
	"math/bits"
	"sort"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font/opentype"
	"github.com/npillmayer/asefont/core/font/opentype/ot"
	"golang.org/x/image/font/sfnt"
)

// Structural limits of the TrueType format.
const (
	MaxGlyphs   = math.MaxUint16
	MaxPoints   = math.MaxUint16
	MaxContours = math.MaxInt16
	MaxString   = math.MaxUint16
	MaxTable    = math.MaxUint32
)

// checkSumMagic is the base for the 'head' table's checkSumAdjustment.
const checkSumMagic = 0xB1B0AFBA

// Assemble serializes a font document into a TrueType font.
func Assemble(doc *opentype.FontDocument) ([]byte, error) {
	if err := doc.Check(); err != nil {
		return nil, err
	}
	a, err := newAssembler(doc)
	if err != nil {
		return nil, err
	}
	glyf, loca, err := a.glyfAndLoca()
	if err != nil {
		return nil, err
	}
	name, err := a.name()
	if err != nil {
		return nil, err
	}
	cmap, err := a.cmap()
	if err != nil {
		return nil, err
	}
	tables := map[ot.Tag][]byte{
		ot.T("OS/2"): a.os2(),
		ot.T("cmap"): cmap,
		ot.T("glyf"): glyf,
		ot.T("head"): a.head(),
		ot.T("hhea"): a.hhea(),
		ot.T("hmtx"): a.hmtx(),
		ot.T("loca"): loca,
		ot.T("maxp"): a.maxp(),
		ot.T("name"): name,
		ot.T("post"): a.post(),
	}
	font, err := layout(tables)
	if err != nil {
		return nil, err
	}
	tracer().Infof("assembled font with %d glyphs, %d bytes", len(doc.Glyphs), len(font))
	return font, nil
}

// assembler holds a font document together with summary values over all
// glyphs.
type assembler struct {
	doc         *opentype.FontDocument
	bbox        opentype.BoundingBox // union of all glyph boxes
	maxPoints   int
	maxContours int
	maxAdvance  sfnt.Units
	minLSB      sfnt.Units
	minRSB      sfnt.Units
	maxExtent   sfnt.Units
	avgWidth    sfnt.Units
}

func newAssembler(doc *opentype.FontDocument) (*assembler, error) {
	if len(doc.Glyphs) > MaxGlyphs {
		return nil, core.BuildError("font has %d glyphs, limit is %d", len(doc.Glyphs), MaxGlyphs)
	}
	if doc.UnitsPerEm < 16 || doc.UnitsPerEm > 16384 {
		return nil, core.BuildError("units per em %d not within 16…16384", doc.UnitsPerEm)
	}
	for _, m := range []struct {
		what string
		v    sfnt.Units
	}{
		{"ascent", doc.Ascent}, {"descent", doc.Descent}, {"line gap", doc.LineGap},
		{"underline position", doc.UnderlinePosition}, {"underline thickness", doc.UnderlineThickness},
	} {
		if !fitsInt16(m.v) {
			return nil, core.BuildError("%s %d exceeds 16 bit range", m.what, m.v)
		}
	}
	a := &assembler{doc: doc}
	var sumWidth, nonZero int
	first := true
	for gid, g := range doc.Glyphs {
		if err := checkGlyph(gid, g); err != nil {
			return nil, err
		}
		a.maxAdvance = max(a.maxAdvance, g.Advance)
		if g.Advance > 0 {
			sumWidth += int(g.Advance)
			nonZero++
		}
		if g.Empty() {
			continue
		}
		a.maxPoints = max(a.maxPoints, len(g.Points))
		a.maxContours = max(a.maxContours, len(g.Ends))
		a.bbox = a.bbox.Union(g.BBox)
		rsb := g.Advance - g.BBox.MaxX
		if first {
			a.minLSB, a.minRSB, a.maxExtent = g.BBox.MinX, rsb, g.BBox.MaxX
			first = false
			continue
		}
		a.minLSB = min(a.minLSB, g.BBox.MinX)
		a.minRSB = min(a.minRSB, rsb)
		a.maxExtent = max(a.maxExtent, g.BBox.MaxX)
	}
	if nonZero > 0 {
		a.avgWidth = sfnt.Units((sumWidth + nonZero/2) / nonZero)
	}
	if !fitsInt16(a.minRSB) {
		return nil, core.BuildError("minimum right side bearing %d exceeds 16 bit range", a.minRSB)
	}
	return a, nil
}

// checkGlyph tests a glyph against the limits of the glyf and hmtx tables.
func checkGlyph(gid int, g *opentype.GlyphOutline) error {
	if g.Advance < 0 || g.Advance > math.MaxUint16 {
		return core.BuildError("glyph %d (U+%04X): advance width %d exceeds 16 bit range",
			gid, g.CodePoint, g.Advance)
	}
	if len(g.Points) > MaxPoints {
		return core.BuildError("glyph %d (U+%04X): %d points, limit is %d",
			gid, g.CodePoint, len(g.Points), MaxPoints)
	}
	if len(g.Ends) > MaxContours {
		return core.BuildError("glyph %d (U+%04X): %d contours, limit is %d",
			gid, g.CodePoint, len(g.Ends), MaxContours)
	}
	for _, p := range g.Points {
		if !fitsInt16(p.X) || !fitsInt16(p.Y) {
			return core.BuildError("glyph %d (U+%04X): coordinate (%d,%d) exceeds 16 bit range",
				gid, g.CodePoint, p.X, p.Y)
		}
	}
	return nil
}

func fitsInt16(v sfnt.Units) bool {
	return v >= math.MinInt16 && v <= math.MaxInt16
}

// --- Table directory -------------------------------------------------------

// layout writes the table directory followed by the tables, then patches the
// checksum adjustment into table 'head'.
func layout(tables map[ot.Tag][]byte) ([]byte, error) {
	tags := make([]ot.Tag, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	n := len(tags)
	offset := 12 + 16*n
	size := offset
	for _, tag := range tags {
		l := len(tables[tag])
		if uint64(l) > MaxTable {
			return nil, core.BuildError("table %s has %d bytes, exceeding 32 bit offsets", tag, l)
		}
		size += (l + 3) &^ 3
	}
	if uint64(size) > MaxTable {
		return nil, core.BuildError("font of %d bytes exceeds 32 bit offsets", size)
	}
	font := make(buffer, 0, size)
	entrySelector := bits.Len(uint(n)) - 1
	searchRange := 16 << entrySelector
	font.u32(0x00010000) // TrueType outlines
	font.u16(uint16(n))
	font.u16(uint16(searchRange))
	font.u16(uint16(entrySelector))
	font.u16(uint16(16*n - searchRange))
	headOffset := -1
	for _, tag := range tags {
		t := tables[tag]
		font.u32(uint32(tag))
		font.u32(Checksum(t))
		font.u32(uint32(offset))
		font.u32(uint32(len(t)))
		if tag == ot.T("head") {
			headOffset = offset
		}
		offset += (len(t) + 3) &^ 3
	}
	for _, tag := range tags {
		font.bytes(tables[tag])
		font.pad()
		tracer().Debugf("table %s: %d bytes", tag, len(tables[tag]))
	}
	if headOffset >= 0 {
		putU32(font[headOffset+8:], checkSumMagic-Checksum(font))
	}
	return font, nil
}
