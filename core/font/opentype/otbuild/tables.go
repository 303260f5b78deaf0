package otbuild

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/npillmayer/asefont/core/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Code comments cite passages from the OpenType specification 1.9;
// see https://learn.microsoft.com/en-us/typography/opentype/spec/.

// --- head ------------------------------------------------------------------

// Seconds between 1904-01-01, the epoch of OpenType's LONGDATETIME, and the
// Unix epoch.
const macEpochDelta = 2082844800

func longDateTime(t time.Time) int64 {
	if t.IsZero() {
		t = opentype.FixedEpoch
	}
	return t.Unix() + macEpochDelta
}

var versionNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// fontRevision extracts a 16.16 fixed point number from a version string like
// "Version 1.002".
func fontRevision(version string) uint32 {
	v := 1.0
	if m := versionNumber.FindString(version); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil && f < 32768 {
			v = f
		}
	}
	return uint32(math.Round(v * 65536))
}

func (a *assembler) isBold() bool {
	return a.doc.Meta.Weight >= 700
}

func (a *assembler) isItalic() bool {
	sub := strings.ToLower(a.doc.Meta.Subfamily)
	return strings.Contains(sub, "italic") || strings.Contains(sub, "oblique")
}

func (a *assembler) head() []byte {
	var b buffer
	b.u16(1) // majorVersion
	b.u16(0) // minorVersion
	b.u32(fontRevision(a.doc.Meta.Version))
	b.u32(0) // checkSumAdjustment, patched after layout
	b.u32(0x5F0F3CF5)
	// Flags: baseline at y=0 (bit 0), force integer ppem (bit 3)
	b.u16(1<<0 | 1<<3)
	b.u16(uint16(a.doc.UnitsPerEm))
	b.i64(longDateTime(a.doc.Meta.Created))
	b.i64(longDateTime(a.doc.Meta.Modified))
	b.i16(int16(a.bbox.MinX))
	b.i16(int16(a.bbox.MinY))
	b.i16(int16(a.bbox.MaxX))
	b.i16(int16(a.bbox.MaxY))
	var macStyle uint16
	if a.isBold() {
		macStyle |= 1 << 0
	}
	if a.isItalic() {
		macStyle |= 1 << 1
	}
	b.u16(macStyle)
	b.u16(8) // lowestRecPPEM
	b.i16(2) // fontDirectionHint, deprecated
	b.i16(1) // indexToLocFormat: long offsets
	b.i16(0) // glyphDataFormat
	return b
}

// --- hhea ------------------------------------------------------------------

func (a *assembler) hhea() []byte {
	var b buffer
	b.u16(1)
	b.u16(0)
	b.i16(int16(a.doc.Ascent))
	b.i16(int16(a.doc.Descent))
	b.i16(int16(a.doc.LineGap))
	b.u16(uint16(a.maxAdvance))
	b.i16(int16(a.minLSB))
	b.i16(int16(a.minRSB))
	b.i16(int16(a.maxExtent))
	b.i16(1) // caretSlopeRise
	b.i16(0) // caretSlopeRun
	b.i16(0) // caretOffset
	for i := 0; i < 4; i++ {
		b.i16(0) // reserved
	}
	b.i16(0) // metricDataFormat
	b.u16(uint16(len(a.doc.Glyphs)))
	return b
}

// --- hmtx ------------------------------------------------------------------

// “In a font with TrueType outlines, xMin and lsb values should be the same”,
// so every glyph gets a long horizontal metric record.
func (a *assembler) hmtx() []byte {
	b := make(buffer, 0, 4*len(a.doc.Glyphs))
	for _, g := range a.doc.Glyphs {
		b.u16(uint16(g.Advance))
		b.i16(int16(g.LSB()))
	}
	return b
}

// --- maxp ------------------------------------------------------------------

func (a *assembler) maxp() []byte {
	var b buffer
	b.u32(0x00010000) // version 1.0, required for TrueType outlines
	b.u16(uint16(len(a.doc.Glyphs)))
	b.u16(uint16(a.maxPoints))
	b.u16(uint16(a.maxContours))
	b.u16(0) // maxCompositePoints
	b.u16(0) // maxCompositeContours
	b.u16(2) // maxZones: twilight zone is used
	for i := 0; i < 8; i++ {
		// maxTwilightPoints, maxStorage, maxFunctionDefs, maxInstructionDefs,
		// maxStackElements, maxSizeOfInstructions, maxComponentElements,
		// maxComponentDepth
		b.u16(0)
	}
	return b
}

// --- OS/2 ------------------------------------------------------------------

// Unicode ranges for OS/2 ulUnicodeRange, restricted to the blocks pixel fonts
// commonly cover.
var unicodeRanges = []struct {
	bit      uint
	from, to uint32
}{
	{0, 0x0000, 0x007F},     // Basic Latin
	{1, 0x0080, 0x00FF},     // Latin-1 Supplement
	{2, 0x0100, 0x017F},     // Latin Extended-A
	{3, 0x0180, 0x024F},     // Latin Extended-B
	{7, 0x0370, 0x03FF},     // Greek and Coptic
	{9, 0x0400, 0x04FF},     // Cyrillic
	{31, 0x2000, 0x206F},    // General Punctuation
	{33, 0x20A0, 0x20CF},    // Currency Symbols
	{43, 0x2190, 0x21FF},    // Arrows
	{45, 0x2200, 0x22FF},    // Mathematical Operators
	{69, 0x2500, 0x257F},    // Box Drawing
	{70, 0x2580, 0x259F},    // Block Elements
	{71, 0x25A0, 0x25FF},    // Geometric Shapes
	{49, 0x3040, 0x309F},    // Hiragana
	{50, 0x30A0, 0x30FF},    // Katakana
	{57, 0x10000, 0x10FFFF}, // Non-Plane 0
}

func (a *assembler) unicodeRange() (r [4]uint32) {
	for _, g := range a.doc.Mapped() {
		for _, u := range unicodeRanges {
			if g.CodePoint >= u.from && g.CodePoint <= u.to {
				r[u.bit/32] |= 1 << (u.bit % 32)
			}
		}
	}
	return
}

// yMaxOf returns the top of the glyph for code point c, or 0 if c is not
// mapped.
func (a *assembler) yMaxOf(c uint32) sfnt.Units {
	for _, g := range a.doc.Mapped() {
		if g.CodePoint == c {
			return g.BBox.MaxY
		}
	}
	return 0
}

func (a *assembler) os2() []byte {
	upem := int(a.doc.UnitsPerEm)
	var b buffer
	b.u16(4) // version
	b.i16(int16(a.avgWidth))
	weight := a.doc.Meta.Weight
	if weight <= 0 {
		weight = 400
	}
	b.u16(uint16(weight))
	b.u16(5) // usWidthClass: medium (normal)
	b.u16(0) // fsType: installable embedding
	sub := int16(upem * 13 / 20)
	b.i16(sub)                  // ySubscriptXSize
	b.i16(sub)                  // ySubscriptYSize
	b.i16(0)                    // ySubscriptXOffset
	b.i16(int16(upem * 3 / 40)) // ySubscriptYOffset
	b.i16(sub)                  // ySuperscriptXSize
	b.i16(sub)                  // ySuperscriptYSize
	b.i16(0)                    // ySuperscriptXOffset
	b.i16(int16(upem * 7 / 20)) // ySuperscriptYOffset
	b.i16(int16(a.doc.UnderlineThickness))
	b.i16(int16(a.doc.Ascent / 3)) // yStrikeoutPosition
	b.i16(0)                       // sFamilyClass
	b.bytes(make([]byte, 10))      // panose: any
	for _, r := range a.unicodeRange() {
		b.u32(r)
	}
	b.bytes([]byte("NONE")) // achVendID
	var fsSelection uint16
	if a.isItalic() {
		fsSelection |= 1 << 0
	}
	if a.isBold() {
		fsSelection |= 1 << 5
	}
	if fsSelection == 0 {
		fsSelection |= 1 << 6 // REGULAR
	}
	fsSelection |= 1 << 7 // USE_TYPO_METRICS
	b.u16(fsSelection)
	first, last := uint32(0xFFFF), uint32(0)
	for _, g := range a.doc.Mapped() {
		first, last = min(first, g.CodePoint), max(last, g.CodePoint)
	}
	if last < first {
		first = 0
	}
	b.u16(uint16(min(first, 0xFFFF)))
	b.u16(uint16(min(last, 0xFFFF)))
	b.i16(int16(a.doc.Ascent))
	b.i16(int16(a.doc.Descent))
	b.i16(int16(a.doc.LineGap))
	b.u16(uint16(max(a.doc.Ascent, a.bbox.MaxY, 0)))
	b.u16(uint16(max(-a.doc.Descent, -a.bbox.MinY, 0)))
	var codePages uint32
	if r := a.unicodeRange(); r[0]&0b11 != 0 {
		codePages |= 1 << 0 // Latin 1
	}
	b.u32(codePages)
	b.u32(0)
	b.i16(int16(a.yMaxOf('x'))) // sxHeight
	b.i16(int16(a.capHeight())) // sCapHeight
	b.u16(0)                    // usDefaultChar: .notdef
	b.u16(0x20)                 // usBreakChar
	b.u16(0)                    // usMaxContext: no layout features
	return b
}

func (a *assembler) capHeight() sfnt.Units {
	if h := a.yMaxOf('H'); h > 0 {
		return h
	}
	return a.doc.Ascent
}

// --- post ------------------------------------------------------------------

// Glyph names beyond the 258 standard Macintosh names are stored as Pascal
// strings, referenced by indices starting at 258. Indices above 32767 are
// reserved.
const numStandardNames = 258

func (a *assembler) post() []byte {
	var b buffer
	names := len(a.doc.Mapped())+numStandardNames <= math.MaxInt16
	if names {
		b.u32(0x00020000)
	} else {
		tracer().Infof("too many glyphs for glyph names, writing post table version 3")
		b.u32(0x00030000)
	}
	b.u32(0) // italicAngle
	b.i16(int16(a.doc.UnderlinePosition))
	b.i16(int16(a.doc.UnderlineThickness))
	if a.doc.FixedPitch {
		b.u32(1)
	} else {
		b.u32(0)
	}
	for i := 0; i < 4; i++ {
		b.u32(0) // min/max memory for Type42 and Type1 downloads
	}
	if !names {
		return b
	}
	b.u16(uint16(len(a.doc.Glyphs)))
	b.u16(0) // .notdef is standard name 0
	for i := range a.doc.Mapped() {
		b.u16(uint16(numStandardNames + i))
	}
	for _, g := range a.doc.Mapped() {
		name := g.GlyphName()
		b.u8(uint8(len(name)))
		b.bytes([]byte(name))
	}
	return b
}
