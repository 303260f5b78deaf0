package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font/opentype"
	"github.com/npillmayer/asefont/core/font/opentype/ot"
	"github.com/npillmayer/asefont/core/font/opentype/otbuild"
	"github.com/npillmayer/asefont/core/font/opentype/otquery"
	"github.com/npillmayer/asefont/core/settings"
	"github.com/npillmayer/asefont/engine/glyphing/extract"
	"github.com/npillmayer/asefont/engine/glyphing/outline"
	"github.com/npillmayer/asefont/input/aseprite"
	"golang.org/x/image/font/sfnt"
)

// Result is the outcome of a successful conversion.
type Result struct {
	Font       []byte                 // the assembled font file
	Document   *opentype.FontDocument // the font document the font has been assembled from
	Layers     int                    // number of layers contributing glyphs
	OutputPath string                 // set by ConvertFile
}

// Glyphs returns the number of glyphs mapped to code points.
func (r *Result) Glyphs() int {
	return len(r.Document.Mapped())
}

// Convert converts the contents of an Aseprite file into a TrueType font.
// Settings are validated before the input is parsed.
func Convert(input []byte, s settings.Settings) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	doc, err := aseprite.Decode(input)
	if err != nil {
		return nil, err
	}
	extracted, err := extract.Extract(doc, extract.Options{
		CellWidth:      s.GlyphWidth,
		CellHeight:     s.GlyphHeight,
		AlphaThreshold: uint8(s.AlphaThreshold),
		SkipHidden:     s.SkipHidden,
	})
	if err != nil {
		return nil, err
	}
	fontdoc := Document(extracted, s)
	font, err := otbuild.Assemble(fontdoc)
	if err != nil {
		return nil, err
	}
	if err = Verify(font, fontdoc); err != nil {
		return nil, err
	}
	tracer().Infof("font %q: %d glyphs, %d bytes", fontdoc.Meta.Family, len(fontdoc.Glyphs), len(font))
	return &Result{Font: font, Document: fontdoc, Layers: extracted.Layers}, nil
}

// Document builds the outlines of all extracted glyphs and collects them,
// together with metrics and naming information, into a font document.
// Outlines are built by s.Workers goroutines.
func Document(extracted *extract.Result, s settings.Settings) *opentype.FontDocument {
	opts := outline.Options{
		Trim:          s.Trim,
		TrimPad:       s.TrimPad,
		UnitsPerPixel: s.UnitsPerPixel,
		Baseline:      s.Baseline,
	}
	upp := sfnt.Units(s.UnitsPerPixel)
	fontdoc := &opentype.FontDocument{
		Glyphs: make([]*opentype.GlyphOutline, len(extracted.Glyphs)+1),
		Meta: opentype.FontMetadata{
			Copyright: s.Copyright,
			Family:    s.Family,
			Subfamily: s.Subfamily,
			Version:   s.FontVersion,
			Weight:    s.Weight(),
		},
		UnitsPerEm:         sfnt.Units(s.UnitsPerEm()),
		Ascent:             sfnt.Units(s.GlyphHeight-s.Baseline) * upp,
		Descent:            -sfnt.Units(s.Baseline) * upp,
		LineGap:            sfnt.Units(s.LineGap) * upp,
		CellWidth:          s.GlyphWidth,
		CellHeight:         s.GlyphHeight,
		UnderlinePosition:  sfnt.Units(s.UnderlinePosition) * upp,
		UnderlineThickness: sfnt.Units(s.UnderlineThickness) * upp,
		FixedPitch:         !s.Trim,
	}
	if s.Timestamp != 0 {
		t := time.Unix(s.Timestamp, 0).UTC()
		fontdoc.Meta.Created, fontdoc.Meta.Modified = t, t
	}
	fontdoc.Glyphs[0] = outline.Notdef(s.GlyphWidth, s.GlyphHeight, opts)
	//
	pool := newWorkerPool(s.Workers)
	defer pool.close()
	work := make([]func(), len(extracted.Glyphs))
	for i, g := range extracted.Glyphs {
		i, g := i, g
		work[i] = func() {
			fontdoc.Glyphs[i+1] = outline.Build(g.Bitmap, g.Spec.CodePoint, opts)
		}
	}
	pool.executeAll(work)
	tracer().Debugf("built %d outlines with %d workers", len(work), pool.workers)
	return fontdoc
}

// Verify parses an assembled font and compares it against the document it has
// been assembled from. Any difference is reported as an error with code
// core.EINTERNAL.
func Verify(font []byte, fontdoc *opentype.FontDocument) error {
	otf, err := ot.Parse(font)
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "assembled font does not parse")
	}
	if otf.NumGlyphs() != len(fontdoc.Glyphs) {
		return core.Error(core.EINTERNAL, "assembled font has %d glyphs, expected %d",
			otf.NumGlyphs(), len(fontdoc.Glyphs))
	}
	for i, expected := range fontdoc.Glyphs {
		gid := ot.GlyphIndex(i)
		if i > 0 {
			if found := otquery.GlyphIndex(otf, rune(expected.CodePoint)); found != gid {
				return core.Error(core.EINTERNAL, "U+%04X maps to glyph %d, expected %d",
					expected.CodePoint, found, gid)
			}
		}
		g, err := otf.GlyphOutline(gid)
		if err != nil {
			return core.WrapError(err, core.EINTERNAL, "glyph %d unreadable", gid)
		}
		if g.Advance != expected.Advance || !slices.Equal(g.Points, expected.Points) ||
			!slices.Equal(g.Ends, expected.Ends) {
			return core.Error(core.EINTERNAL, "glyph %d (U+%04X) differs from its outline",
				gid, expected.CodePoint)
		}
	}
	tracer().Debugf("verified %d glyphs", len(fontdoc.Glyphs))
	return nil
}

// ConvertFile converts an Aseprite file and writes the font to
// s.OutputPath. If no output path is set, the font is written next to the
// input file, with extension ".ttf". If no family name is set, it is derived
// from the input file name.
//
// The font file is either written completely or not at all.
func ConvertFile(inpath string, s settings.Settings) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(inpath), filepath.Ext(inpath))
	if s.Family == "" {
		s.Family = stem
	}
	if s.OutputPath == "" {
		s.OutputPath = filepath.Join(filepath.Dir(inpath), stem+".ttf")
	}
	input, err := os.ReadFile(inpath)
	if err != nil {
		return nil, err
	}
	res, err := Convert(input, s)
	if err != nil {
		return nil, err
	}
	if err = writeAtomic(s.OutputPath, res.Font); err != nil {
		return nil, err
	}
	res.OutputPath = s.OutputPath
	tracer().Infof("font written to %s", s.OutputPath)
	return res, nil
}

// writeAtomic writes data to a temporary file in the directory of path and
// renames it to path. The temporary file is removed on failure.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
