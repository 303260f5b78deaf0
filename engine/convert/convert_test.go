package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	gotext "github.com/go-text/typesetting/font"
	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/asefont/core/font"
	"github.com/npillmayer/asefont/core/font/opentype/ot"
	"github.com/npillmayer/asefont/core/font/opentype/otquery"
	"github.com/npillmayer/asefont/core/settings"
	"github.com/npillmayer/asefont/engine/glyphing/extract"
	"github.com/npillmayer/asefont/input/aseprite"
	"github.com/npillmayer/asefont/input/aseprite/asetest"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/language"
)

// --- Test Suite Preparation ------------------------------------------------

type ConvertTestEnviron struct {
	suite.Suite
	input []byte // two 16×16 cells, 'A' and 'B'
}

// listen for 'go test' command --> run test methods
func TestConvertFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "asefont")
	defer teardown()
	suite.Run(t, new(ConvertTestEnviron))
}

var glyphA = []string{
	"......####",
	".....##..##",
	"....##....##",
	"....########",
	"....##....##",
	"....##....##",
	"....##....##",
}

var glyphB = []string{
	"....#######",
	"....##....##",
	"....#######",
	"....##....##",
	"....##....##",
	"....#######",
}

func pixelFile() *asetest.File {
	f := asetest.New(32, 16, asetest.RGBA)
	f.AddLayer("sketch")
	f.Draw(0, 0, 0, "################", "################")
	l := f.AddLayer("U+0041- capitals")
	f.Draw(l, 0, 4, glyphA...)
	f.Draw(l, 16, 5, glyphB...)
	return f
}

// run once, before test suite methods
func (env *ConvertTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("asefont").SetTraceLevel(tracing.LevelInfo)
	env.input = pixelFile().Encode()
}

// --- Tests -----------------------------------------------------------------

func (env *ConvertTestEnviron) TestEndToEnd() {
	s := settings.Default()
	s.Family = "Pixel Caps"
	res, err := Convert(env.input, s)
	env.Require().NoError(err)
	env.Equal(2, res.Glyphs())
	env.Equal(1, res.Layers)
	//
	otf, err := ot.Parse(res.Font)
	env.Require().NoError(err)
	env.Equal(3, otf.NumGlyphs())
	env.Equal(ot.GlyphIndex(1), otquery.GlyphIndex(otf, 'A'))
	env.Equal(ot.GlyphIndex(2), otquery.GlyphIndex(otf, 'B'))
	env.Equal(ot.GlyphIndex(0), otquery.GlyphIndex(otf, 'C'))
	for gid := ot.GlyphIndex(0); gid < 3; gid++ {
		g, err := otf.GlyphOutline(gid)
		env.Require().NoError(err)
		env.False(g.Empty(), "glyph %d has contours", gid)
		env.Equal(sfnt.Units(1024), g.Advance)
	}
	b, _ := otf.GlyphOutline(2)
	env.Equal(3, b.ContourCount(), "'B' has an outer contour and two holes")
	//
	m := otquery.FontMetrics(otf)
	env.Equal(sfnt.Units(1024), m.UnitsPerEm)
	env.Equal(sfnt.Units(896), m.Ascent)
	env.Equal(sfnt.Units(-128), m.Descent)
	names := otquery.NameInfo(otf, language.English)
	env.Equal("Pixel Caps", names["family"])
	env.Equal("PixelCaps-Regular", names["postscript"])
}

func (env *ConvertTestEnviron) TestRasterMatchesSource() {
	s := settings.Default()
	res, err := Convert(env.input, s)
	env.Require().NoError(err)
	doc, err := aseprite.Decode(env.input)
	env.Require().NoError(err)
	extracted, err := extract.Extract(doc, extract.DefaultOptions())
	env.Require().NoError(err)
	env.Require().Len(extracted.Glyphs, 2)
	//
	f, err := font.ParseOpenTypeFont(res.Font)
	env.Require().NoError(err)
	tc, err := f.PrepareCase(float64(s.CellSize()))
	env.Require().NoError(err)
	for _, g := range extracted.Glyphs {
		rs, ok := tc.Raster(rune(g.Spec.CodePoint))
		env.Require().True(ok, "U+%04X is mapped", g.Spec.CodePoint)
		env.Equal(s.GlyphWidth, rs.Advance)
		top := s.Baseline - s.GlyphHeight // row 0 of the cell, relative to the baseline
		for y := 0; y < g.Bitmap.H; y++ {
			for x := 0; x < g.Bitmap.W; x++ {
				env.Equal(g.Bitmap.At(x, y), rs.On(x, top+y),
					"U+%04X pixel (%d,%d)", g.Spec.CodePoint, x, y)
			}
		}
	}
}

func (env *ConvertTestEnviron) TestOtherParsersAccept() {
	res, err := Convert(env.input, settings.Default())
	env.Require().NoError(err)
	face, err := gotext.ParseTTF(bytes.NewReader(res.Font))
	env.Require().NoError(err)
	env.Equal(uint16(1024), face.Upem())
	gid, ok := face.NominalGlyph('B')
	env.True(ok)
	env.Equal(gotext.GID(2), gid)
	env.Equal(float32(1024), face.HorizontalAdvance(gid))
	data, ok := face.GlyphData(gid).(gotext.GlyphOutline)
	env.Require().True(ok, "glyph data is an outline")
	env.NotEmpty(data.Segments)
	//
	sf, err := sfnt.Parse(res.Font)
	env.Require().NoError(err)
	env.Equal(3, sf.NumGlyphs())
}

func (env *ConvertTestEnviron) TestZeroMatchingLayers() {
	f := asetest.New(16, 16, asetest.Indexed)
	l := f.AddLayer("Layer 1")
	f.Draw(l, 2, 2, "####", "#..#", "####")
	res, err := Convert(f.Encode(), settings.Default())
	env.Require().NoError(err, "a font without glyphs is not an error")
	env.Equal(0, res.Glyphs())
	otf, err := ot.Parse(res.Font)
	env.Require().NoError(err)
	env.Equal(1, otf.NumGlyphs())
}

func (env *ConvertTestEnviron) TestDeterminism() {
	s := settings.Default()
	s.Workers = 1
	first, err := Convert(env.input, s)
	env.Require().NoError(err)
	for _, workers := range []int{1, 2, 7, 0} {
		s.Workers = workers
		res, err := Convert(env.input, s)
		env.Require().NoError(err)
		env.True(bytes.Equal(first.Font, res.Font), "output with %d workers differs", workers)
	}
}

func (env *ConvertTestEnviron) TestTrim() {
	f := asetest.New(16, 16, asetest.RGBA)
	l := f.AddLayer("U+007C")
	f.Draw(l, 7, 0, "#", "#", "#", "#", "#", "#", "#", "#", "#", "#", "#", "#")
	s := settings.Default()
	s.Trim = true
	res, err := Convert(f.Encode(), s)
	env.Require().NoError(err)
	env.Require().Equal(1, res.Glyphs())
	bar := res.Document.Glyphs[1]
	env.Equal(sfnt.Units(3*64), bar.Advance, "one column plus padding")
	env.Equal(sfnt.Units(64), bar.BBox.MinX)
	env.False(res.Document.FixedPitch)
}

func (env *ConvertTestEnviron) TestErrors() {
	s := settings.Default()
	s.GlyphWidth = 0
	_, err := Convert([]byte("no aseprite file"), s)
	env.True(core.IsConfigError(err), "settings are checked before parsing")
	//
	_, err = Convert([]byte("no aseprite file"), settings.Default())
	env.True(core.IsFormatError(err))
	//
	broken := append([]byte(nil), env.input...)
	broken[4] ^= 0xff // header magic
	_, err = Convert(broken, settings.Default())
	env.True(core.IsFormatError(err))
}

func (env *ConvertTestEnviron) TestConvertFile() {
	dir := env.T().TempDir()
	inpath := filepath.Join(dir, "pixels.aseprite")
	env.Require().NoError(os.WriteFile(inpath, env.input, 0o644))
	//
	res, err := ConvertFile(inpath, settings.Default())
	env.Require().NoError(err)
	env.Equal(filepath.Join(dir, "pixels.ttf"), res.OutputPath)
	written, err := os.ReadFile(res.OutputPath)
	env.Require().NoError(err)
	env.Equal(res.Font, written)
	otf, err := ot.Parse(written)
	env.Require().NoError(err)
	env.Equal("pixels", otquery.NameInfo(otf, language.English)["family"])
	entries, err := os.ReadDir(dir)
	env.Require().NoError(err)
	env.Len(entries, 2, "no temporary files left")
	//
	s := settings.Default()
	s.OutputPath = filepath.Join(dir, "missing", "out.ttf")
	_, err = ConvertFile(inpath, s)
	env.Error(err)
	_, err = os.Stat(s.OutputPath)
	env.True(os.IsNotExist(err))
	//
	s.OutputPath = filepath.Join(dir, "broken.ttf")
	env.Require().NoError(os.WriteFile(inpath, []byte("garbage"), 0o644))
	_, err = ConvertFile(inpath, s)
	env.True(core.IsFormatError(err))
	_, err = os.Stat(s.OutputPath)
	env.True(os.IsNotExist(err), "no output on failure")
}

func (env *ConvertTestEnviron) TestWorkerPool() {
	pool := newWorkerPool(3)
	var count atomic.Int32
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { count.Add(1) }
	}
	pool.executeAll(work)
	env.Equal(int32(100), count.Load())
	pool.close()
	pool.close()
	pool.executeAll(work) // no-op on a closed pool
	env.Equal(int32(100), count.Load())
}
