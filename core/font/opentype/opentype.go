/*
Package opentype holds the font model shared between outline building and
font assembly.

A FontDocument is an immutable value: once glyph outlines have been built they
are handed to the assembler in package otbuild, which serializes them into an
OpenType container with TrueType outlines.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package opentype

import (
	"fmt"
	"time"

	"github.com/npillmayer/asefont/core"
	"golang.org/x/image/font/sfnt"
)

// --- Font and glyph metrics ------------------------------------------------

// FontMetricsInfo contains selected metric information for a font.
type FontMetricsInfo struct {
	UnitsPerEm      sfnt.Units // ad-hoc units per em
	Ascent, Descent sfnt.Units // ascender and descender
	MaxAdvance      sfnt.Units // maximum advance width value in 'hmtx' table
	LineGap         sfnt.Units // typographic line gap
}

// GlyphMetricsInfo contains all the metric information for a glyph.
type GlyphMetricsInfo struct {
	Advance  sfnt.Units  // advance width
	LSB, RSB sfnt.Units  // side bearings
	BBox     BoundingBox // bounding box
}

// BoundingBox describes the bounding box of a glyph.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// Empty is a predicate: has this box a zero area?
func (bbox BoundingBox) Empty() bool {
	return bbox.MaxX-bbox.MinX == 0 || bbox.MaxY-bbox.MinY == 0
}

// Dx is the horizontal extent of this box.
func (bbox BoundingBox) Dx() sfnt.Units {
	return bbox.MaxX - bbox.MinX
}

// Dy is the vertical extent of this box.
func (bbox BoundingBox) Dy() sfnt.Units {
	return bbox.MaxY - bbox.MinY
}

// Union returns the smallest box containing bbox and other. Empty boxes are
// neutral.
func (bbox BoundingBox) Union(other BoundingBox) BoundingBox {
	if bbox == (BoundingBox{}) {
		return other
	}
	if other == (BoundingBox{}) {
		return bbox
	}
	return BoundingBox{
		MinX: min(bbox.MinX, other.MinX),
		MinY: min(bbox.MinY, other.MinY),
		MaxX: max(bbox.MaxX, other.MaxX),
		MaxY: max(bbox.MaxY, other.MaxY),
	}
}

// --- Outlines --------------------------------------------------------------

// Point is a position in font design units, y pointing upwards.
type Point struct {
	X, Y sfnt.Units
}

// Contour is a closed polygon. The last point connects back to the first one.
// Outer contours run clockwise, holes run counter-clockwise.
type Contour []Point

// GlyphOutline is the vector outline of a single glyph.
//
// Points of all contours are stored consecutively in an arena; Ends holds the
// index of the last point of each contour, just like the endPtsOfContours array
// of a TrueType simple glyph.
type GlyphOutline struct {
	CodePoint uint32
	Advance   sfnt.Units
	BBox      BoundingBox
	Points    []Point
	Ends      []int
}

// ContourCount returns the number of contours of a glyph.
func (g *GlyphOutline) ContourCount() int {
	return len(g.Ends)
}

// Contour returns contour number i as a sub-slice of the point arena.
func (g *GlyphOutline) Contour(i int) Contour {
	start := 0
	if i > 0 {
		start = g.Ends[i-1] + 1
	}
	return Contour(g.Points[start : g.Ends[i]+1])
}

// Empty is true for glyphs without contours (e.g., space).
func (g *GlyphOutline) Empty() bool {
	return len(g.Ends) == 0
}

// LSB is the left side bearing, i.e. the minimum x coordinate.
// Glyphs without contours have a LSB of 0.
func (g *GlyphOutline) LSB() sfnt.Units {
	if g.Empty() {
		return 0
	}
	return g.BBox.MinX
}

// GlyphName returns the PostScript name for a glyph, following the AGL
// conventions for code points without a standard name.
func (g *GlyphOutline) GlyphName() string {
	if g.CodePoint > 0xffff {
		return fmt.Sprintf("u%05X", g.CodePoint)
	}
	return fmt.Sprintf("uni%04X", g.CodePoint)
}

// --- Font document ---------------------------------------------------------

// FontMetadata is user-supplied naming information, inserted verbatim into the
// font's naming table.
type FontMetadata struct {
	Copyright string
	Family    string
	Subfamily string
	Version   string
	Weight    int // OS/2 weight class 1…1000
	UniqueID  string
	Created   time.Time
	Modified  time.Time
}

// FixedEpoch is used for timestamps if none are provided, which keeps output
// reproducible.
var FixedEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// FontDocument is the complete input for font assembly.
//
// Glyphs[0] is the '.notdef' glyph and is never mapped to a code point.
// All other glyphs are sorted by strictly increasing code point.
type FontDocument struct {
	Glyphs             []*GlyphOutline
	Meta               FontMetadata
	UnitsPerEm         sfnt.Units
	Ascent, Descent    sfnt.Units // Descent is negative
	LineGap            sfnt.Units
	CellWidth          int // in pixels
	CellHeight         int // in pixels
	UnderlinePosition  sfnt.Units
	UnderlineThickness sfnt.Units
	FixedPitch         bool
}

// Mapped returns the glyphs which are mapped to code points, i.e. all glyphs
// but '.notdef'.
func (doc *FontDocument) Mapped() []*GlyphOutline {
	if len(doc.Glyphs) <= 1 {
		return nil
	}
	return doc.Glyphs[1:]
}

// Check tests the document invariants: a '.notdef' glyph is present and
// code points are strictly increasing.
func (doc *FontDocument) Check() error {
	if len(doc.Glyphs) == 0 || doc.Glyphs[0] == nil {
		return core.Error(core.EINTERNAL, "font document has no .notdef glyph")
	}
	mapped := doc.Mapped()
	for i := 1; i < len(mapped); i++ {
		if mapped[i].CodePoint <= mapped[i-1].CodePoint {
			return core.Error(core.EINTERNAL, "glyphs not strictly ordered by code point at U+%04X",
				mapped[i].CodePoint)
		}
	}
	return nil
}
