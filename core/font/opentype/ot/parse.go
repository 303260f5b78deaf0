package ot

import (
	"time"

	"github.com/npillmayer/asefont/core/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Code comment often will cite passage from the
// OpenType specification version 1.9;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// checkSumMagic is the expected checksum of a complete font file.
const checkSumMagic = 0xB1B0AFBA

// ---------------------------------------------------------------------------

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// Parse verifies the checksum of every table and of the complete font.
func Parse(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	src := binarySegm(font)
	if src.Size() < 12 {
		return nil, errFontFormat("font header truncated")
	}
	h := FontHeader{
		FontType:      src.U32(0),
		TableCount:    src.U16(4),
		SearchRange:   src.U16(6),
		EntrySelector: src.U16(8),
		RangeShift:    src.U16(10),
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565) { // true
		return nil, errFontFormatAt(0, "font type not supported: %x", h.FontType)
	}
	otf := &Font{Binary: font, Header: &h, tables: make(map[Tag]Table)}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	var head *HeadTable
	for i, prevTag := 0, Tag(0); i < int(h.TableCount); i++ {
		b := buf[16*i:]
		pos := uint32(12 + 16*i)
		tag := MakeTag(b)
		if i > 0 && tag <= prevTag {
			return nil, errFontFormatAt(pos, "table order")
		}
		prevTag = tag
		sum, off, size := u32(b[4:8]), u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // "all tables must begin on four byte boundries".
			return nil, errFontFormatAt(pos, "invalid offset for table %s", tag)
		}
		if uint64(off)+uint64(size) > uint64(len(font)) {
			return nil, errFontFormatAt(pos, "table %s exceeds font data", tag)
		}
		data := src[off : off+size]
		if tag == T("head") && size >= 12 {
			// checkSumAdjustment is excluded from the table checksum
			c := append([]byte(nil), data...)
			c[8], c[9], c[10], c[11] = 0, 0, 0, 0
			if checksum(c) != sum {
				return nil, errFontFormatAt(off, "checksum mismatch for table %s", tag)
			}
		} else if checksum(data) != sum {
			return nil, errFontFormatAt(off, "checksum mismatch for table %s", tag)
		}
		t, err := parseTable(tag, data, off, size)
		if err != nil {
			return nil, err
		}
		if tb := t.Self().tableBase; tb != nil {
			tb.checksum = sum
		}
		otf.tables[tag] = t
		if tag == T("head") {
			head = t.Self().AsHead()
		}
	}
	if err := consistencyCheck(otf); err != nil {
		return nil, err
	}
	if s := checksum(font); s != checkSumMagic {
		return nil, errFontFormat("font checksum adjustment mismatch")
	}
	tracer().Debugf("font with %d tables, %d glyphs, %d units per em", h.TableCount,
		otf.NumGlyphs(), head.UnitsPerEm)
	return otf, nil
}

// RequiredTables lists the tables required for a font with TrueType outlines.
var RequiredTables = []string{
	"cmap", "glyf", "head", "hhea", "hmtx", "loca", "maxp", "name", "OS/2", "post",
}

// consistencyCheck checks for required tables and centralizes information
// which is spread out over more than one table.
func consistencyCheck(otf *Font) error {
	for _, tag := range RequiredTables {
		if otf.tables[T(tag)] == nil {
			return errFontFormat("missing required table " + tag)
		}
	}
	otf.CMap = otf.tables[T("cmap")].Self().AsCMap()
	head := otf.tables[T("head")].Self().AsHead()
	maxp := otf.tables[T("maxp")].Self().AsMaxP()
	hhea := otf.tables[T("hhea")].Self().AsHHea()
	hmtx := otf.tables[T("hmtx")].Self().AsHMtx()
	loca := otf.tables[T("loca")].Self().AsLoca()
	if hhea.NumberOfHMetrics == 0 || hhea.NumberOfHMetrics > maxp.NumGlyphs {
		return errFontFormat("hhea: numberOfHMetrics out of range")
	}
	hmtx.NumberOfHMetrics = hhea.NumberOfHMetrics
	if hmtx.Self().tableBase.length < uint32(4*hhea.NumberOfHMetrics+2*(maxp.NumGlyphs-hhea.NumberOfHMetrics)) {
		return errFontFormat("hmtx: table too short")
	}
	// The number of glyphs in the font is restricted only by the value stated
	// in the 'maxp' table; 'loca' holds one more entry than there are glyphs.
	loca.locCnt = maxp.NumGlyphs + 1
	entrySize := 2
	if head.IndexToLocFormat == 1 {
		loca.inx2loc = longLocaVersion
		entrySize = 4
	}
	if loca.Self().tableBase.length < uint32(entrySize*loca.locCnt) {
		return errFontFormat("loca: table too short")
	}
	_, glyfSize := otf.tables[T("glyf")].Extent()
	for i := 1; i < loca.locCnt; i++ {
		if loca.inx2loc(loca, i) < loca.inx2loc(loca, i-1) {
			return errFontFormat("loca: offsets not increasing")
		}
	}
	if loca.inx2loc(loca, loca.locCnt-1) > glyfSize {
		return errFontFormat("loca: offsets exceed glyf table")
	}
	return nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	switch t {
	case T("cmap"):
		return parseCMap(t, b, offset, size)
	case T("head"):
		return parseHead(t, b, offset, size)
	case T("hhea"):
		return parseHHea(t, b, offset, size)
	case T("hmtx"):
		return parseHMtx(t, b, offset, size)
	case T("loca"):
		return parseLoca(t, b, offset, size)
	case T("maxp"):
		return parseMaxP(t, b, offset, size)
	case T("name"):
		return parseName(t, b, offset, size)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

// Seconds between 1904-01-01, the epoch of LONGDATETIME, and the Unix epoch.
const macEpochDelta = 2082844800

func longDateTime(b binarySegm, i int) time.Time {
	secs := int64(b.U32(i))<<32 | int64(b.U32(i+4))
	return time.Unix(secs-macEpochDelta, 0).UTC()
}

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormatAt(offset, "size of head table")
	}
	if b.U32(12) != 0x5F0F3CF5 {
		return nil, errFontFormatAt(offset+12, "head: magic number")
	}
	t := newHeadTable(tag, b, offset, size)
	t.FontRevision = b.U32(4)
	t.CheckSumAdjustment = b.U32(8)
	t.Flags = b.U16(16)
	t.UnitsPerEm = b.U16(18)
	if t.UnitsPerEm < 16 || t.UnitsPerEm > 16384 {
		return nil, errFontFormatAt(offset+18, "head: units per em out of range")
	}
	t.Created = longDateTime(b, 20)
	t.Modified = longDateTime(b, 28)
	t.BBox = opentype.BoundingBox{
		MinX: sfnt.Units(b.I16(36)), MinY: sfnt.Units(b.I16(38)),
		MaxX: sfnt.Units(b.I16(40)), MaxY: sfnt.Units(b.I16(42)),
	}
	t.MacStyle = b.U16(44)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat = b.U16(50)
	return t, nil
}

// --- CMap table ------------------------------------------------------------

// Table 'cmap' starts with a version and the number of encoding records, then
// lists the records (platform, encoding, subtable offset). A full-range
// subtable covers everything a BMP subtable of the same font covers, so it is
// preferred when both are present.
func parseCMap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	n := b.U16(2) // number of sub-tables
	tracer().Debugf("font cmap has %d sub-tables in %d|%d bytes", n, len(b), size)
	t := newCMapTable(tag, b, offset, size)
	const headerSize, entrySize = 4, 8
	if size < headerSize+entrySize*uint32(n) {
		return nil, errFontFormatAt(offset, "size of cmap table")
	}
	var best EncodingRecord
	for i := 0; i < int(n); i++ {
		rec, _ := b.view(headerSize+entrySize*i, entrySize)
		enc := EncodingRecord{
			PlatformID: u16(rec),
			EncodingID: u16(rec[2:]),
			offset:     u32(rec[4:]),
		}
		if enc.offset > size-4 {
			return nil, errFontFormatAt(offset+uint32(headerSize+entrySize*i), "cmap subtable offset")
		}
		enc.Format = b.U16(int(enc.offset))
		enc.rank = subtableRank(enc.PlatformID, enc.EncodingID, enc.Format)
		t.Encodings = append(t.Encodings, enc)
		tracer().Debugf("cmap table contains subtable (%d|%d) with format %d",
			enc.PlatformID, enc.EncodingID, enc.Format)
		if enc.rank > best.rank {
			best = enc
		}
	}
	if best.rank == 0 {
		return nil, errFontFormatAt(offset, "no supported cmap format found")
	}
	var err error
	if t.GlyphIndexMap, err = makeGlyphIndex(b, best); err != nil {
		return nil, err
	}
	return t, nil
}

// --- Loca table ------------------------------------------------------------

// Table 'loca' stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table. Its format depends on
// field indexToLocFormat of table 'head', which is resolved by the consistency
// check.
func parseLoca(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	return newLocaTable(tag, b, offset, size), nil
}

// --- MaxP table ------------------------------------------------------------

// This table establishes the memory requirements for this font.
// Fonts with TrueType outlines must use version 1.0 of this table.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormatAt(offset, "size of maxp table")
	}
	t := newMaxPTable(tag, b, offset, size)
	t.Version = b.U32(0)
	t.NumGlyphs = int(b.U16(4))
	if t.Version != 0x00010000 || size < 32 {
		return nil, errFontFormatAt(offset, "maxp: TrueType fonts need table version 1.0")
	}
	t.MaxPoints = int(b.U16(6))
	t.MaxContours = int(b.U16(8))
	return t, nil
}

// --- HHea table ------------------------------------------------------------

// This table contains information for horizontal layout.
func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size != 36 {
		return nil, errFontFormatAt(offset, "size of hhea table")
	}
	t := newHHeaTable(tag, b, offset, size)
	t.Ascender = sfnt.Units(b.I16(4))
	t.Descender = sfnt.Units(b.I16(6))
	t.LineGap = sfnt.Units(b.I16(8))
	t.AdvanceWidthMax = sfnt.Units(b.U16(10))
	t.NumberOfHMetrics = int(b.U16(34))
	return t, nil
}

// --- HMtx table ------------------------------------------------------------

// Glyph metrics used for horizontal text layout include glyph advance widths,
// side bearings and X-direction min and max values (xMin, xMax).
// NumberOfHMetrics is copied over from table 'hhea' by the consistency check.
func parseHMtx(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	return newHMtxTable(tag, b, offset, size), nil
}

// --- Name table ------------------------------------------------------------

// The naming table allows multilingual strings to be associated with the
// font. Only format 0 is supported; language-tag records of format 1 are
// ignored.
func parseName(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	const headerSize, recordSize = 6, 12
	if size < headerSize {
		return nil, errFontFormatAt(offset, "size of name table")
	}
	t := newNameTable(tag, b, offset, size)
	count := int(b.U16(2))
	storage := int(b.U16(4))
	if headerSize+recordSize*count > int(size) || storage > int(size) {
		return nil, errFontFormatAt(offset, "name table records exceed table")
	}
	strbuf := b[storage:]
	for i := 0; i < count; i++ {
		rec := b[headerSize+recordSize*i:]
		length, start := int(rec.U16(8)), int(rec.U16(10))
		value, err := strbuf.view(start, length)
		if err != nil {
			return nil, errFontFormatAt(offset+uint32(headerSize+recordSize*i), "name string out of bounds")
		}
		t.Records = append(t.Records, NameRecord{
			PlatformID: rec.U16(0),
			EncodingID: rec.U16(2),
			LanguageID: rec.U16(4),
			NameID:     rec.U16(6),
			value:      value,
		})
	}
	return t, nil
}
