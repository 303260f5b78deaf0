/*
Package glyphing holds the types passed from glyph extraction to outline
building.

Sub-packages implement the stages:

▪︎ extract: find glyph cells in the layers of a decoded Aseprite document

▪︎ outline: convert a glyph bitmap into TrueType contours

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package glyphing

import (
	"fmt"
	"strings"
)

// GlyphSpec locates a glyph cell within a layer.
type GlyphSpec struct {
	CodePoint uint32
	Layer     string // name of the source layer
	X, Y      int    // top left corner of the cell, in pixels
	W, H      int    // cell size in pixels
}

func (spec GlyphSpec) String() string {
	return fmt.Sprintf("U+%04X@(%d,%d) from %q", spec.CodePoint, spec.X, spec.Y, spec.Layer)
}

// Glyph is a glyph cell together with its pixels.
type Glyph struct {
	Spec   GlyphSpec
	Bitmap *Bitmap
}

// Bitmap is a grid of on/off pixels. Row 0 is the top row.
type Bitmap struct {
	W, H int
	bits []bool
}

// NewBitmap creates an empty bitmap.
func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, bits: make([]bool, w*h)}
}

// ParseBitmap creates a bitmap from ASCII rows, where '#' marks a pixel as on.
func ParseBitmap(rows ...string) *Bitmap {
	w := 0
	for _, r := range rows {
		w = max(w, len(r))
	}
	bm := NewBitmap(w, len(rows))
	for y, r := range rows {
		for x := 0; x < len(r); x++ {
			bm.Set(x, y, r[x] == '#')
		}
	}
	return bm
}

// At reports whether pixel (x, y) is on. Positions outside the bitmap are off.
func (bm *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= bm.W || y >= bm.H {
		return false
	}
	return bm.bits[y*bm.W+x]
}

// Set switches pixel (x, y) on or off.
func (bm *Bitmap) Set(x, y int, on bool) {
	bm.bits[y*bm.W+x] = on
}

// Empty is true if no pixel is on.
func (bm *Bitmap) Empty() bool {
	for _, b := range bm.bits {
		if b {
			return false
		}
	}
	return true
}

// ColumnEmpty is true if no pixel of column x is on.
func (bm *Bitmap) ColumnEmpty(x int) bool {
	for y := 0; y < bm.H; y++ {
		if bm.At(x, y) {
			return false
		}
	}
	return true
}

// Columns returns a copy of columns [from, to), with pad empty columns added
// on either side.
func (bm *Bitmap) Columns(from, to, pad int) *Bitmap {
	sub := NewBitmap(to-from+2*pad, bm.H)
	for y := 0; y < bm.H; y++ {
		for x := from; x < to; x++ {
			sub.Set(x-from+pad, y, bm.At(x, y))
		}
	}
	return sub
}

func (bm *Bitmap) String() string {
	var b strings.Builder
	for y := 0; y < bm.H; y++ {
		for x := 0; x < bm.W; x++ {
			if bm.At(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
