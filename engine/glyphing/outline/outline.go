package outline

import (
	"github.com/npillmayer/asefont/core/font/opentype"
	"github.com/npillmayer/asefont/engine/glyphing"
	"golang.org/x/image/font/sfnt"
)

// Options control outline building.
type Options struct {
	Trim          bool // remove empty columns left and right
	TrimPad       int  // empty columns to keep on either side when trimming
	UnitsPerPixel int  // design units per pixel
	Baseline      int  // baseline in pixels above the bottom of the bitmap
}

// DefaultOptions returns options without trimming, 64 units per pixel and a
// baseline 2 pixels above the cell bottom.
func DefaultOptions() Options {
	return Options{TrimPad: 1, UnitsPerPixel: 64, Baseline: 2}
}

// Build converts a bitmap into the outline of the glyph for code point code.
func Build(bm *glyphing.Bitmap, code uint32, opts Options) *opentype.GlyphOutline {
	if opts.UnitsPerPixel <= 0 {
		opts.UnitsPerPixel = 1
	}
	g := &opentype.GlyphOutline{CodePoint: code}
	if opts.Trim {
		if bm = trim(bm, max(0, opts.TrimPad)); bm == nil {
			tracer().Debugf("glyph U+%04X is empty", code)
			return g
		}
	}
	g.Advance = sfnt.Units(bm.W * opts.UnitsPerPixel)
	contours := trace(bm)
	for _, c := range contours {
		for _, v := range c {
			g.Points = append(g.Points, opentype.Point{
				X: sfnt.Units(v.x * opts.UnitsPerPixel),
				Y: sfnt.Units((v.y - opts.Baseline) * opts.UnitsPerPixel),
			})
		}
		g.Ends = append(g.Ends, len(g.Points)-1)
	}
	g.BBox = bbox(g.Points)
	tracer().Debugf("glyph U+%04X: %d contours, %d points", code, len(g.Ends), len(g.Points))
	return g
}

// trim drops empty columns on the left and the right, then adds pad empty
// columns on both sides. It returns nil for an empty bitmap.
func trim(bm *glyphing.Bitmap, pad int) *glyphing.Bitmap {
	first, last := -1, -1
	for x := 0; x < bm.W; x++ {
		if !bm.ColumnEmpty(x) {
			if first < 0 {
				first = x
			}
			last = x
		}
	}
	if first < 0 {
		return nil
	}
	return bm.Columns(first, last+1, pad)
}

func bbox(points []opentype.Point) opentype.BoundingBox {
	if len(points) == 0 {
		return opentype.BoundingBox{}
	}
	b := opentype.BoundingBox{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX, b.MaxX = min(b.MinX, p.X), max(b.MaxX, p.X)
		b.MinY, b.MaxY = min(b.MinY, p.Y), max(b.MaxY, p.Y)
	}
	return b
}

// Notdef creates the outline of the '.notdef' glyph for cells of w×h pixels:
// a hollow box between baseline and cell top, one pixel narrower than the
// cell on either side.
func Notdef(w, h int, opts Options) *opentype.GlyphOutline {
	bm := glyphing.NewBitmap(w, h)
	top, bottom := 0, h-1-opts.Baseline
	left, right := 1, w-2
	if right-left < 2 || bottom-top < 2 {
		left, right, top, bottom = 0, w-1, 0, h-1
	}
	for x := left; x <= right; x++ {
		bm.Set(x, top, true)
		bm.Set(x, bottom, true)
	}
	for y := top; y <= bottom; y++ {
		bm.Set(left, y, true)
		bm.Set(right, y, true)
	}
	opts.Trim = false
	return Build(bm, 0, opts)
}
