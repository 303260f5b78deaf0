package ot

import (
	"github.com/npillmayer/asefont/core/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Flags of simple glyph points, see
// https://docs.microsoft.com/en-us/typography/opentype/spec/glyf#simple-glyph-description
const (
	flagOnCurve     = 0x01
	flagXShort      = 0x02
	flagYShort      = 0x04
	flagRepeat      = 0x08
	flagXSameOrPlus = 0x10
	flagYSameOrPlus = 0x20
)

// GlyphOutline decodes the outline of glyph gid from table 'glyf'.
//
// Only simple glyphs are supported. Off-curve points are reported as an error,
// as are composite glyphs. The returned outline carries the advance width from
// table 'hmtx' and the code point found by a reverse cmap lookup.
func (otf *Font) GlyphOutline(gid GlyphIndex) (*opentype.GlyphOutline, error) {
	if int(gid) >= otf.NumGlyphs() {
		return nil, errFontFormat("glyph index out of range")
	}
	loca := otf.Table(T("loca")).Self().AsLoca()
	glyf := otf.Table(T("glyf"))
	start, end := loca.GlyphExtent(gid)
	g := &opentype.GlyphOutline{}
	g.Advance, _ = otf.Table(T("hmtx")).Self().AsHMtx().HMetrics(gid)
	if gid > 0 && otf.CMap != nil {
		g.CodePoint = uint32(otf.CMap.GlyphIndexMap.ReverseLookup(gid))
	}
	if start == end {
		return g, nil
	}
	goff, _ := glyf.Extent()
	if end < start || int(end) > len(glyf.Binary()) {
		return nil, errFontFormatAt(goff+start, "glyph %d: invalid location", gid)
	}
	b := binarySegm(glyf.Binary()[start:end])
	if err := decodeSimpleGlyph(b, g); err != nil {
		return nil, errFontFormatAt(goff+start, "glyph %d: %s", gid, err.Error())
	}
	return g, nil
}

type glyfError string

func (e glyfError) Error() string { return string(e) }

func decodeSimpleGlyph(b binarySegm, g *opentype.GlyphOutline) error {
	const headerSize = 10
	if b.Size() < headerSize {
		return glyfError("glyph header truncated")
	}
	n := int(b.I16(0))
	if n < 0 {
		return glyfError("composite glyphs not supported")
	}
	g.BBox = opentype.BoundingBox{
		MinX: sfnt.Units(b.I16(2)), MinY: sfnt.Units(b.I16(4)),
		MaxX: sfnt.Units(b.I16(6)), MaxY: sfnt.Units(b.I16(8)),
	}
	if n == 0 {
		return nil
	}
	pos := headerSize
	if b.Size() < pos+2*n+2 {
		return glyfError("contour end points truncated")
	}
	g.Ends = make([]int, n)
	for i := range g.Ends {
		g.Ends[i] = int(b.U16(pos + 2*i))
		if i > 0 && g.Ends[i] <= g.Ends[i-1] {
			return glyfError("contour end points not increasing")
		}
	}
	pos += 2 * n
	pos += 2 + int(b.U16(pos)) // skip instructions
	points := g.Ends[n-1] + 1
	flags := make([]byte, 0, points)
	for len(flags) < points {
		if pos >= b.Size() {
			return glyfError("flags truncated")
		}
		f := b[pos]
		pos++
		if f&flagOnCurve == 0 {
			return glyfError("off-curve points not supported")
		}
		flags = append(flags, f)
		if f&flagRepeat != 0 {
			if pos >= b.Size() {
				return glyfError("flags truncated")
			}
			for r := int(b[pos]); r > 0; r-- {
				flags = append(flags, f)
			}
			pos++
		}
	}
	if len(flags) > points {
		return glyfError("flag repeat count exceeds number of points")
	}
	g.Points = make([]opentype.Point, points)
	var err error
	if pos, err = coordinates(b, pos, flags, flagXShort, flagXSameOrPlus, func(i int, v sfnt.Units) {
		g.Points[i].X = v
	}); err != nil {
		return err
	}
	_, err = coordinates(b, pos, flags, flagYShort, flagYSameOrPlus, func(i int, v sfnt.Units) {
		g.Points[i].Y = v
	})
	return err
}

// coordinates decodes the x or y coordinates of all points. Coordinates are
// stored as deltas to the previous point.
func coordinates(b binarySegm, pos int, flags []byte, short, same byte,
	set func(int, sfnt.Units)) (int, error) {
	//
	v := 0
	for i, f := range flags {
		switch {
		case f&short != 0:
			if pos >= b.Size() {
				return pos, glyfError("coordinates truncated")
			}
			d := int(b[pos])
			pos++
			if f&same == 0 {
				d = -d
			}
			v += d
		case f&same == 0:
			if pos+2 > b.Size() {
				return pos, glyfError("coordinates truncated")
			}
			v += int(b.I16(pos))
			pos += 2
		}
		set(i, sfnt.Units(v))
	}
	return pos, nil
}
