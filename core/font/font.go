/*
Package font is for loading fonts as rasterizable faces.

We will stick to the following definitions:

* A "scalable font" is a font file, i.e. a variant of a typeface with a
certain weight, slant, etc.  An example is "Pixel Sans regular".

* A "typecase" is a scaled font, i.e. a font at a certain pixel size.

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

Fonts produced by this module are pixel fonts: every outline coordinate is a
multiple of the design units per pixel. Rendered at its native pixel size, a
typecase reproduces the source pixels exactly, which is what Raster is for.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package font

import (
	"image"
	"os"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 'asefont.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("asefont.fonts")
}

// ScalableFont is a parsed font file.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// TypeCase is a font at a pixel size. A TypeCase is not safe for concurrent
// use.
type TypeCase struct {
	scalableFontParent *ScalableFont
	font               xfont.Face // Go uses 'face' and 'font' in an inverse manner
	size               float64    // pixels per em
}

// LoadOpenTypeFont reads and parses a font file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont parses a font from its binary representation.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, core.WrapFormatError(err, -1, "cannot parse font")
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	tracer().Debugf("parsed font %q with %d glyphs", f.Fontname, f.SFNT.NumGlyphs())
	return
}

// UnitsPerEm returns the design units per em of a font.
func (sf *ScalableFont) UnitsPerEm() int {
	return int(sf.SFNT.UnitsPerEm())
}

// PrepareCase creates a typecase with ppem pixels per em.
func (sf *ScalableFont) PrepareCase(ppem float64) (*TypeCase, error) {
	if ppem < 1.0 || ppem > 4096.0 {
		return nil, core.ConfigError("pixel-size", "must be within 1…4096, is %g", ppem)
	}
	options := &opentype.FaceOptions{
		Size:    ppem,
		DPI:     72, // 1pt = 1px
		Hinting: xfont.HintingNone,
	}
	f, err := opentype.NewFace(sf.SFNT, options)
	if err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot create face for %q", sf.Fontname)
	}
	return &TypeCase{scalableFontParent: sf, font: f, size: ppem}, nil
}

// ScalableFontParent returns the font a typecase has been created from.
func (tc *TypeCase) ScalableFontParent() *ScalableFont {
	return tc.scalableFontParent
}

// PixelSize returns the size of a typecase in pixels per em.
func (tc *TypeCase) PixelSize() float64 {
	return tc.size
}

// Metrics returns the metrics of a typecase in pixels.
func (tc *TypeCase) Metrics() xfont.Metrics {
	return tc.font.Metrics()
}

// --- Rasterization ---------------------------------------------------------

// Raster is a rendered glyph. Coordinates are in pixels relative to the pen
// position on the baseline, y pointing downwards.
type Raster struct {
	Bounds  image.Rectangle // pixels covered by the glyph's bounding box
	Advance int             // rounded advance width
	mask    *image.Alpha
}

// Raster renders the glyph for code point r with the pen at the origin. It
// returns false if the font does not map r.
func (tc *TypeCase) Raster(r rune) (*Raster, bool) {
	dr, mask, maskp, advance, ok := tc.font.Glyph(fixed.Point26_6{}, r)
	if !ok {
		return nil, false
	}
	rs := &Raster{Bounds: dr, Advance: advance.Round()}
	// the face re-uses its mask buffer
	rs.mask = image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	for y := 0; y < dr.Dy(); y++ {
		for x := 0; x < dr.Dx(); x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			rs.mask.Pix[y*rs.mask.Stride+x] = uint8(a >> 8)
		}
	}
	return rs, true
}

// On is true if pixel (x, y) is covered at least halfway.
func (rs *Raster) On(x, y int) bool {
	p := image.Point{X: x, Y: y}
	if !p.In(rs.Bounds) {
		return false
	}
	p = p.Sub(rs.Bounds.Min)
	return rs.mask.Pix[p.Y*rs.mask.Stride+p.X] >= 0x80
}
