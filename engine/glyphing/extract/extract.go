package extract

import (
	"image"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/engine/glyphing"
	"github.com/npillmayer/asefont/input/aseprite"
)

// MaxCodePoint is the largest Unicode code point.
const MaxCodePoint = unicode.MaxRune

// Options control glyph extraction.
type Options struct {
	CellWidth, CellHeight int
	AlphaThreshold        uint8 // minimum alpha of an "on" pixel; 0 is treated as 1
	SkipHidden            bool  // ignore layers with the visibility flag unset
}

// DefaultOptions returns options for 16×16 cells.
func DefaultOptions() Options {
	return Options{CellWidth: 16, CellHeight: 16, AlphaThreshold: 1}
}

// Result is the outcome of extraction.
type Result struct {
	Glyphs []glyphing.Glyph // sorted by code point, unique
	Layers int             // number of layers contributing glyphs
}

// CodeRange is the range of code points a layer name declares.
type CodeRange struct {
	Start uint32
	End   uint32 // last code point; MaxCodePoint if open
}

// A layer name starts with a code point in hex, optionally followed by a
// range end. Whatever follows is a comment. A range end must not run into a
// word, so "U+0041-caps" is an open range, not U+0041…U+00CA.
var layerNamePattern = regexp.MustCompile(
	`^[Uu]\+([0-9A-Fa-f]+)(?:-(?:[Uu]\+)?([0-9A-Fa-f]*)(?:[^0-9A-Za-z]|$))?`)

// ParseLayerName matches a layer name against the code point convention.
// Start code points beyond MaxCodePoint are rejected, range ends beyond it
// are clipped.
func ParseLayerName(name string) (CodeRange, bool) {
	m := layerNamePattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return CodeRange{}, false
	}
	start, err := strconv.ParseUint(m[1], 16, 32)
	if err != nil || start > MaxCodePoint {
		tracer().Errorf("layer %q: start code point beyond U+%X", name, MaxCodePoint)
		return CodeRange{}, false
	}
	r := CodeRange{Start: uint32(start), End: MaxCodePoint}
	if m[2] != "" {
		if end, err := strconv.ParseUint(m[2], 16, 32); err == nil && end < MaxCodePoint {
			r.End = uint32(end)
		}
	}
	return r, true
}

// Extract cuts glyph bitmaps from all layers of doc whose name declares a
// code point.
func Extract(doc *aseprite.Document, opts Options) (*Result, error) {
	if opts.CellWidth <= 0 {
		return nil, core.ConfigError("glyph-width", "cell width must be positive, is %d", opts.CellWidth)
	}
	if opts.CellHeight <= 0 {
		return nil, core.ConfigError("glyph-height", "cell height must be positive, is %d", opts.CellHeight)
	}
	if opts.AlphaThreshold == 0 {
		opts.AlphaThreshold = 1
	}
	glyphs := treemap.NewWith(utils.UInt32Comparator)
	layers := 0
	for _, l := range doc.Layers {
		r, ok := ParseLayerName(l.Name)
		if !ok {
			tracer().Debugf("layer %q does not name a code point, ignored", l.Name)
			continue
		}
		if opts.SkipHidden && !l.Visible() {
			tracer().Infof("layer %q is hidden, ignored", l.Name)
			continue
		}
		if r.End < r.Start {
			tracer().Errorf("layer %q declares an empty range U+%04X-U+%04X, ignored", l.Name, r.Start, r.End)
			continue
		}
		if l.Canvas == nil || l.Kind != aseprite.LayerNormal {
			continue
		}
		if n := cutCells(l, r, opts, glyphs); n > 0 {
			layers++
		}
	}
	res := &Result{Layers: layers, Glyphs: make([]glyphing.Glyph, 0, glyphs.Size())}
	for _, v := range glyphs.Values() {
		res.Glyphs = append(res.Glyphs, v.(glyphing.Glyph))
	}
	tracer().Infof("extracted %d glyphs from %d layers", len(res.Glyphs), layers)
	return res, nil
}

// cutCells tiles a layer into cells and puts the non-empty ones into glyphs.
// It returns the number of glyphs found.
func cutCells(l *aseprite.Layer, r CodeRange, opts Options, glyphs *treemap.Map) int {
	b := l.Canvas.Bounds()
	cols, rows := b.Dx()/opts.CellWidth, b.Dy()/opts.CellHeight
	found := 0
	for n := 0; n < cols*rows; n++ {
		code := uint64(r.Start) + uint64(n)
		if code > uint64(r.End) {
			break
		}
		if code > MaxCodePoint {
			tracer().Errorf("layer %q: cell %d exceeds U+%X, dropped", l.Name, n, MaxCodePoint)
			break
		}
		spec := glyphing.GlyphSpec{
			CodePoint: uint32(code),
			Layer:     l.Name,
			X:         b.Min.X + (n%cols)*opts.CellWidth,
			Y:         b.Min.Y + (n/cols)*opts.CellHeight,
			W:         opts.CellWidth,
			H:         opts.CellHeight,
		}
		bm := slice(l.Canvas, spec, opts.AlphaThreshold)
		if bm.Empty() {
			continue
		}
		if _, exists := glyphs.Get(spec.CodePoint); exists {
			tracer().Infof("layer %q overrides glyph U+%04X", l.Name, spec.CodePoint)
		}
		glyphs.Put(spec.CodePoint, glyphing.Glyph{Spec: spec, Bitmap: bm})
		found++
	}
	return found
}

// slice thresholds the pixels of a cell.
func slice(canvas *image.NRGBA, spec glyphing.GlyphSpec, threshold uint8) *glyphing.Bitmap {
	bm := glyphing.NewBitmap(spec.W, spec.H)
	for y := 0; y < spec.H; y++ {
		for x := 0; x < spec.W; x++ {
			if canvas.NRGBAAt(spec.X+x, spec.Y+y).A >= threshold {
				bm.Set(x, y, true)
			}
		}
	}
	return bm
}
