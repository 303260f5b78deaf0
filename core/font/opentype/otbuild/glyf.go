package otbuild

import (
	"fmt"
	"math"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font/opentype"
)

// Flags of simple glyph points.
const (
	onCurvePoint       = 0x01
	xShortVector       = 0x02
	yShortVector       = 0x04
	repeatFlag         = 0x08
	xIsSameOrPositiveX = 0x10
	yIsSameOrPositiveY = 0x20
	maxRepeat          = 255
)

// glyfAndLoca encodes all glyphs as simple glyphs and creates the location
// index with long offsets. Glyphs without contours have zero length.
func (a *assembler) glyfAndLoca() ([]byte, []byte, error) {
	var glyf buffer
	loca := make(buffer, 0, 4*(len(a.doc.Glyphs)+1))
	for gid, g := range a.doc.Glyphs {
		loca.u32(uint32(len(glyf)))
		if g.Empty() {
			continue
		}
		if err := encodeGlyph(&glyf, g); err != nil {
			return nil, nil, core.BuildError("glyph %d (U+%04X): %v", gid, g.CodePoint, err)
		}
		glyf.pad()
		if uint64(len(glyf)) > MaxTable {
			return nil, nil, core.BuildError("glyph data exceeds 32 bit offsets at glyph %d", gid)
		}
	}
	loca.u32(uint32(len(glyf)))
	return glyf, loca, nil
}

type deltaOverflow int

func (d deltaOverflow) Error() string {
	return fmt.Sprintf("point delta %d exceeds 16 bit range", int(d))
}

// encodeGlyph writes a simple glyph description, with all points on-curve.
func encodeGlyph(b *buffer, g *opentype.GlyphOutline) error {
	b.i16(int16(len(g.Ends)))
	b.i16(int16(g.BBox.MinX))
	b.i16(int16(g.BBox.MinY))
	b.i16(int16(g.BBox.MaxX))
	b.i16(int16(g.BBox.MaxY))
	for _, end := range g.Ends {
		b.u16(uint16(end))
	}
	b.u16(0) // instructionLength
	n := len(g.Points)
	flags := make([]byte, n)
	var xs, ys buffer
	px, py := 0, 0
	for i, p := range g.Points {
		dx, dy := int(p.X)-px, int(p.Y)-py
		px, py = int(p.X), int(p.Y)
		if dx < math.MinInt16 || dx > math.MaxInt16 {
			return deltaOverflow(dx)
		}
		if dy < math.MinInt16 || dy > math.MaxInt16 {
			return deltaOverflow(dy)
		}
		f := byte(onCurvePoint)
		f |= coordinate(&xs, dx, xShortVector, xIsSameOrPositiveX)
		f |= coordinate(&ys, dy, yShortVector, yIsSameOrPositiveY)
		flags[i] = f
	}
	for i := 0; i < n; {
		run := 1
		for i+run < n && flags[i+run] == flags[i] && run <= maxRepeat {
			run++
		}
		if run > 1 {
			b.u8(flags[i] | repeatFlag)
			b.u8(uint8(run - 1))
		} else {
			b.u8(flags[i])
		}
		i += run
	}
	b.bytes(xs)
	b.bytes(ys)
	return nil
}

// coordinate writes a coordinate delta in its shortest form and returns the
// flags describing it.
func coordinate(b *buffer, d int, short, sameOrPositive byte) byte {
	switch {
	case d == 0:
		return sameOrPositive
	case d > 0 && d < 256:
		b.u8(uint8(d))
		return short | sameOrPositive
	case d < 0 && d > -256:
		b.u8(uint8(-d))
		return short
	}
	b.i16(int16(d))
	return 0
}
