package otbuild

import (
	"math"
	"math/bits"

	"github.com/npillmayer/asefont/core"
)

// mapping is a code point together with its glyph index.
type mapping struct {
	code uint32
	gid  uint16
}

// segment is a run of consecutive code points mapped to consecutive glyphs.
type segment struct {
	start, end uint32
	gid        uint16 // glyph of start
}

// segments merges a sorted mapping into runs.
func segments(m []mapping) []segment {
	var segs []segment
	for _, e := range m {
		if n := len(segs); n > 0 {
			last := &segs[n-1]
			if e.code == last.end+1 && uint32(e.gid) == uint32(last.gid)+(e.code-last.start) {
				last.end = e.code
				continue
			}
		}
		segs = append(segs, segment{start: e.code, end: e.code, gid: e.gid})
	}
	return segs
}

func (a *assembler) mappings() []mapping {
	m := make([]mapping, 0, len(a.doc.Glyphs))
	for i, g := range a.doc.Mapped() {
		m = append(m, mapping{code: g.CodePoint, gid: uint16(i + 1)})
	}
	return m
}

// cmap creates the character to glyph index mapping table.
//
// A format 4 subtable covers the BMP. If any code point is outside the BMP,
// a format 12 subtable for the full range is added. The encoding records for
// the Unicode and Windows platforms share subtables.
func (a *assembler) cmap() ([]byte, error) {
	all := a.mappings()
	var bmp []mapping
	for _, e := range all {
		if e.code <= 0xFFFF {
			bmp = append(bmp, e)
		}
	}
	f4, err := format4(bmp)
	if err != nil {
		return nil, err
	}
	full := len(bmp) < len(all)
	var f12 []byte
	if full {
		f12 = format12(all)
	}
	type record struct {
		platform, encoding uint16
		full               bool // refers to the format 12 subtable
	}
	records := []record{{0, 3, false}}
	if full {
		records = append(records, record{0, 4, true})
	}
	records = append(records, record{3, 1, false})
	if full {
		records = append(records, record{3, 10, true})
	}
	var b buffer
	b.u16(0) // version
	b.u16(uint16(len(records)))
	f4Offset := 4 + 8*len(records)
	f12Offset := f4Offset + len(f4)
	for _, r := range records {
		b.u16(r.platform)
		b.u16(r.encoding)
		if r.full {
			b.u32(uint32(f12Offset))
		} else {
			b.u32(uint32(f4Offset))
		}
	}
	b.bytes(f4)
	b.bytes(f12)
	tracer().Debugf("cmap: %d BMP code points, %d total", len(bmp), len(all))
	return b, nil
}

// format4 writes a segment mapping to delta values. Every segment maps its
// code points via idDelta; the final segment maps 0xFFFF to the missing glyph.
func format4(m []mapping) ([]byte, error) {
	segs := segments(m)
	if n := len(segs); n == 0 || segs[n-1].end != 0xFFFF {
		segs = append(segs, segment{start: 0xFFFF, end: 0xFFFF, gid: 0})
	}
	segCount := len(segs)
	length := 16 + 8*segCount
	if length > math.MaxUint16 {
		return nil, core.BuildError("cmap format 4 subtable needs %d segments, exceeding 16 bit length",
			segCount)
	}
	entrySelector := bits.Len(uint(segCount)) - 1
	searchRange := 2 << entrySelector
	var b buffer
	b.u16(4)
	b.u16(uint16(length))
	b.u16(0) // language
	b.u16(uint16(2 * segCount))
	b.u16(uint16(searchRange))
	b.u16(uint16(entrySelector))
	b.u16(uint16(2*segCount - searchRange))
	for _, s := range segs {
		b.u16(uint16(s.end))
	}
	b.u16(0) // reservedPad
	for _, s := range segs {
		b.u16(uint16(s.start))
	}
	for _, s := range segs {
		delta := uint16(s.gid) - uint16(s.start) // modulo 65536
		if s.gid == 0 {
			delta = 1 // 0xFFFF + 1 wraps to the missing glyph
		}
		b.u16(delta)
	}
	for range segs {
		b.u16(0) // idRangeOffset: glyph IDs are computed from deltas
	}
	return b, nil
}

// format12 writes segmented coverage groups for the full Unicode range.
func format12(m []mapping) []byte {
	segs := segments(m)
	var b buffer
	b.u16(12)
	b.u16(0) // reserved
	b.u32(uint32(16 + 12*len(segs)))
	b.u32(0) // language
	b.u32(uint32(len(segs)))
	for _, s := range segs {
		b.u32(s.start)
		b.u32(s.end)
		b.u32(uint32(s.gid))
	}
	return b
}
