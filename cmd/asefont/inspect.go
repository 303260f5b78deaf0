package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"github.com/npillmayer/asefont/core/font"
	"github.com/npillmayer/asefont/core/font/fontregistry"
	"github.com/npillmayer/asefont/core/font/opentype/ot"
	"github.com/npillmayer/asefont/core/font/opentype/otquery"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
)

// Intp is our interpreter object for inspecting a font.
type Intp struct {
	font  *ot.Font
	face  *font.ScalableFont
	key   string // registry key of face
	fonts *fontregistry.Registry
	lang  language.Tag
	ppem  float64 // native pixel size
}

func newIntp(path string, lang language.Tag) (*Intp, error) {
	face, err := font.LoadOpenTypeFont(path)
	if err != nil {
		return nil, err
	}
	otf, err := ot.Parse(face.Binary)
	if err != nil {
		return nil, err
	}
	intp := &Intp{font: otf, face: face, lang: lang, fonts: fontregistry.NewRegistry()}
	intp.key = intp.fonts.StoreFont(face)
	intp.ppem = nativePixelSize(otf)
	tracer().Infof("loaded font %s, native size is %g pixels", face.Fontname, intp.ppem)
	return intp, nil
}

// inspectFont prints a summary of a font. If interactive is set, it starts a
// session for queries afterwards.
func inspectFont(path string, lang language.Tag, interactive bool) error {
	intp, err := newIntp(path, lang)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println(path)
	for _, code := range []int{NAMES, METRICS, CMAP} {
		if _, err := intp.execute(Command{code: code}); err != nil {
			return err
		}
	}
	if !interactive {
		return nil
	}
	repl, err := readline.New("font > ")
	if err != nil {
		return err
	}
	defer repl.Close()
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	intp.REPL(repl)
	return nil
}

// REPL starts interactive mode.
func (intp *Intp) REPL(repl *readline.Instance) {
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		quit, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	intp.fonts.LogFontList()
	pterm.Info.Println("Good bye!")
}

// Command codes
const (
	QUIT int = iota
	HELP
	TABLES
	NAMES
	METRICS
	CMAP
	GLYPH
)

// Command is a parsed command line, e.g. "glyph:A:32". Arguments are
// separated by colons.
type Command struct {
	code int
	arg  string
	size float64
}

func parseCommand(line string) (Command, error) {
	c := strings.Split(line, ":")
	cmd := Command{arg: getOptArg(c, 1)}
	switch strings.ToLower(c[0]) {
	case "quit", "q":
		cmd.code = QUIT
	case "tables":
		cmd.code = TABLES
	case "names", "name":
		cmd.code = NAMES
	case "metrics":
		cmd.code = METRICS
	case "cmap":
		cmd.code = CMAP
	case "glyph", "g":
		cmd.code = GLYPH
		if cmd.arg == "" {
			return cmd, fmt.Errorf("glyph: missing code point")
		}
		if s := getOptArg(c, 2); s != "" {
			size, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return cmd, fmt.Errorf("glyph: pixel size not numeric: %v", s)
			}
			cmd.size = size
		}
	default:
		cmd.code = HELP
	}
	tracer().Debugf("parse command = %v", c)
	return cmd, nil
}

func (intp *Intp) execute(cmd Command) (bool, error) {
	switch cmd.code {
	case QUIT:
		return true, nil
	case HELP:
		help()
	case TABLES:
		data := pterm.TableData{{"tag", "offset", "size", "checksum"}}
		for _, tag := range intp.font.TableTags() {
			t := intp.font.Table(tag)
			off, size := t.Extent()
			data = append(data, []string{tag.String(), strconv.Itoa(int(off)),
				strconv.Itoa(int(size)), fmt.Sprintf("%08x", t.Checksum())})
		}
		return false, pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	case NAMES:
		lang := intp.lang
		if cmd.arg != "" {
			var err error
			if lang, err = language.Parse(cmd.arg); err != nil {
				return false, err
			}
		}
		names := otquery.NameInfo(intp.font, lang)
		keys := make([]string, 0, len(names))
		for k := range names {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		data := pterm.TableData{{"name", "value"}}
		for _, k := range keys {
			data = append(data, []string{k, names[k]})
		}
		return false, pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	case METRICS:
		m := otquery.FontMetrics(intp.font)
		pterm.Printfln("%s, %d glyphs, %d units per em, native size %g pixels",
			otquery.FontType(intp.font), intp.font.NumGlyphs(), m.UnitsPerEm, intp.ppem)
		pterm.Printfln("ascent %d, descent %d, line gap %d, max advance %d",
			m.Ascent, m.Descent, m.LineGap, m.MaxAdvance)
	case CMAP:
		pterm.Printfln("code points: %s", coverage(intp.font))
	case GLYPH:
		return false, intp.showGlyph(cmd)
	}
	return false, nil
}

func (intp *Intp) showGlyph(cmd Command) error {
	r, err := parseCodePoint(cmd.arg)
	if err != nil {
		return err
	}
	gid := otquery.GlyphIndex(intp.font, r)
	if gid == 0 {
		return fmt.Errorf("font has no glyph for U+%04X", r)
	}
	m := otquery.GlyphMetrics(intp.font, gid)
	pterm.Printfln("U+%04X: glyph %d, advance %d, lsb %d, rsb %d, bbox %v",
		r, gid, m.Advance, m.LSB, m.RSB, m.BBox)
	size := cmd.size
	if size == 0 {
		size = intp.ppem
	}
	tc, err := intp.fonts.TypeCase(intp.key, size)
	if err != nil {
		return err
	}
	rows, _ := renderGlyph(tc, r)
	for _, row := range rows {
		pterm.Println(row)
	}
	return nil
}

func help() {
	pterm.Info.Println("Commands")
	pterm.Println(`
	names[:lang]          naming strings, e.g. names:de
	metrics               global font metrics
	tables                table directory
	cmap                  mapped code points
	glyph:c[:size]        metrics and raster of a glyph, e.g. glyph:A or glyph:U+00E9:32
	quit                  end session
	`)
}

// --- Helpers ---------------------------------------------------------------

// parseCodePoint accepts a single character or a code point in one of the
// forms U+00E9, 0xE9.
func parseCodePoint(s string) (rune, error) {
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	}
	hex := strings.TrimPrefix(strings.TrimPrefix(strings.ToUpper(s), "U+"), "0X")
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || n > 0x10ffff {
		return 0, fmt.Errorf("not a code point: %q", s)
	}
	return rune(n), nil
}

// renderGlyph draws a glyph as rows of '#' and '.', from the pen position to
// the advance. It returns false for unmapped code points.
func renderGlyph(tc *font.TypeCase, r rune) ([]string, bool) {
	rs, ok := tc.Raster(r)
	if !ok {
		return nil, false
	}
	x0, x1 := min(0, rs.Bounds.Min.X), max(rs.Advance, rs.Bounds.Max.X)
	rows := make([]string, 0, rs.Bounds.Dy())
	for y := rs.Bounds.Min.Y; y < rs.Bounds.Max.Y; y++ {
		var b strings.Builder
		for x := x0; x < x1; x++ {
			if rs.On(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		rows = append(rows, b.String())
	}
	return rows, true
}

// nativePixelSize finds the pixel grid of a pixel font: the largest unit all
// outline coordinates and advances are a multiple of. Fonts without a
// recognizable grid result in 16 pixels per em.
func nativePixelSize(otf *ot.Font) float64 {
	grid := 0
	for gid := 0; gid < otf.NumGlyphs(); gid++ {
		g, err := otf.GlyphOutline(ot.GlyphIndex(gid))
		if err != nil {
			tracer().Debugf("glyph %d: %v", gid, err)
			continue
		}
		grid = gcd(grid, int(g.Advance))
		for _, p := range g.Points {
			grid = gcd(gcd(grid, int(p.X)), int(p.Y))
		}
	}
	upem := int(otquery.FontMetrics(otf).UnitsPerEm)
	if grid == 0 || upem%grid != 0 {
		return 16
	}
	return float64(upem / grid)
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// coverage lists the mapped code points as ranges.
func coverage(otf *ot.Font) string {
	var b strings.Builder
	start, prev := rune(-1), rune(-1)
	flush := func() {
		if start < 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		if start == prev {
			fmt.Fprintf(&b, "U+%04X", start)
		} else {
			fmt.Fprintf(&b, "U+%04X-%04X", start, prev)
		}
	}
	for gid := 1; gid < otf.NumGlyphs(); gid++ {
		r := otquery.CodePointForGlyph(otf, ot.GlyphIndex(gid))
		if r == 0 {
			continue
		}
		if r != prev+1 {
			flush()
			start = r
		}
		prev = r
	}
	flush()
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}

func getOptArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}
