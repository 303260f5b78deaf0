package ot

import (
	"time"

	"github.com/npillmayer/asefont/core/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Font represents the internal structure of an OpenType font.
//
// We only support fonts with TrueType outlines, i.e. fonts containing tables
// glyf and loca.
type Font struct {
	Binary []byte
	Header *FontHeader
	tables map[Tag]Table
	CMap   *CMapTable // CMAP table is mandatory
}

// FontHeader is a directory of the top-level tables in a font. If the font file
// contains only one font, the table directory will begin at byte 0 of the file.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2) should
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
type FontHeader struct {
	FontType      uint32
	TableCount    uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// For example to receive the `OS/2` and the `loca` table, clients may call
//
//	os2  := otf.Table(ot.T("OS/2"))
//	loca := otf.Table(ot.T("loca")).Self().AsLoca()
//
// Table tag names are case-sensitive, following the names in the OpenType specification.
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns a list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	return tags
}

// NumGlyphs returns the number of glyphs as stated by table 'maxp'.
func (otf *Font) NumGlyphs() int {
	return otf.Table(T("maxp")).Self().AsMaxP().NumGlyphs
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the OpenType specification as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables
//
// Required Tables for fonts with TrueType outlines:
// 'cmap' (Character to glyph mapping), 'glyf' (Glyph data), 'head' (Font header),
// 'hhea' (Horizontal header), 'hmtx' (Horizontal metrics), 'loca' (Index to location),
// 'maxp' (Maximum profile), 'name' (Naming table),
// 'OS/2' (OS/2 and Windows specific metrics), 'post' (PostScript information).
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treatet as read-only by clients
	Checksum() uint32         // checksum as recorded in the table directory
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data     binarySegm // a table is a slice of font data
	name     Tag        // 4-byte name as an integer
	offset   uint32     // from offset
	length   uint32     // to offset + length
	checksum uint32     // from the table directory
	self     interface{}
}

func makeTableBase(tag Tag, b binarySegm, offset, size uint32) tableBase {
	return tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treatet as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

// Checksum returns the checksum recorded for this table in the table directory.
func (tb *tableBase) Checksum() uint32 {
	return tb.checksum
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) interface{} {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable {
	if k, ok := safeSelf(tself).(*NameTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only a subset of fields are made public by HeadTable. To read any of the
// other fields of table 'head' clients will have to consult Binary().
type HeadTable struct {
	tableBase
	FontRevision       uint32 // 16.16 fixed point
	CheckSumAdjustment uint32
	Flags              uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm         uint16 // values 16 … 16384 are valid
	Created, Modified  time.Time
	BBox               opentype.BoundingBox // union of all glyph bounding boxes
	MacStyle           uint16
	IndexToLocFormat   uint16 // needed to interpret loca table
}

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t
}

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the character
// that appears if a character is not found in the font. The missing character is
// commonly represented by a blank box or a space.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, i int) uint32 // returns location number i
	locCnt  int                              // number of locations, i.e. glyph count + 1
}

// IndexToLocation offsets, indexed by glyph IDs, which provide the location of each
// glyph data block within the 'glyf' table.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) uint32 {
	return t.inx2loc(t, int(gid))
}

// GlyphExtent returns start and end offset of the data of glyph gid in table
// 'glyf'. Glyphs without outlines have start == end.
func (t *LocaTable) GlyphExtent(gid GlyphIndex) (uint32, uint32) {
	return t.inx2loc(t, int(gid)), t.inx2loc(t, int(gid)+1)
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.inx2loc = shortLocaVersion // may get changed by font consistency check
	t.locCnt = 0                 // has to be set during consistency check
	t.self = t
	return t
}

func shortLocaVersion(t *LocaTable, i int) uint32 {
	// in case of error link to 'missing character' at location 0
	if i >= t.locCnt {
		return 0
	}
	loc, err := t.data.u16(i * 2)
	if err != nil {
		return 0
	}
	return uint32(loc) * 2
}

func longLocaVersion(t *LocaTable, i int) uint32 {
	// in case of error link to 'missing character' at location 0
	if i >= t.locCnt {
		return 0
	}
	loc, err := t.data.u32(i * 4)
	if err != nil {
		return 0
	}
	return loc
}

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
// Whenever this value changes, other tables which depend on it should also be updated.
type MaxPTable struct {
	tableBase
	Version     uint32
	NumGlyphs   int
	MaxPoints   int // version 1.0 only
	MaxContours int // version 1.0 only
}

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender, Descender, LineGap sfnt.Units
	AdvanceWidthMax              sfnt.Units
	NumberOfHMetrics             int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t
}

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table. In
// a monospaced font, only one entry is required but that entry may not be omitted.
// Optionally, an array of left side bearings follows.
// The corresponding glyphs are assumed to have the same
// advance width as that found in the last entry in the hMetrics array.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t
}

// HMetrics returns the advance width and left side bearing of a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (sfnt.Units, sfnt.Units) {
	n := t.NumberOfHMetrics
	if n == 0 {
		return 0, 0
	}
	if int(g) < n {
		return sfnt.Units(t.data.U16(int(g) * 4)), sfnt.Units(t.data.I16(int(g)*4 + 2))
	}
	a := t.data.U16((n - 1) * 4)
	lsb := t.data.I16(n*4 + (int(g)-n)*2)
	return sfnt.Units(a), sfnt.Units(lsb)
}

// NameTable holds the naming records of a font.
type NameTable struct {
	tableBase
	Records []NameRecord
}

func newNameTable(tag Tag, b binarySegm, offset, size uint32) *NameTable {
	t := &NameTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t
}

// NameRecord is an entry of table 'name'.
type NameRecord struct {
	PlatformID, EncodingID, LanguageID, NameID uint16
	value                                      binarySegm
}

// String decodes the name string of a record. Records of the Unicode and
// Windows platforms are decoded from UTF-16BE, records of the Macintosh
// platform from Mac Roman.
func (r NameRecord) String() (string, error) {
	switch r.PlatformID {
	case 0, 3:
		return decodeUtf16(r.value)
	case 1:
		if r.EncodingID == 0 {
			s, err := charmap.Macintosh.NewDecoder().Bytes(r.value)
			return string(s), err
		}
	}
	return "", errFontFormat("unsupported platform/encoding combination for name-table")
}

// Windows language IDs
const (
	LangEnglishUS uint16 = 0x0409
)

// Lookup returns the string for a name ID and a Windows language ID.
// If no record of the Windows platform matches, records of the Unicode and the
// Macintosh platforms are tried.
func (t *NameTable) Lookup(nameID, lang uint16) (string, bool) {
	var fallback *NameRecord
	for i, r := range t.Records {
		if r.NameID != nameID {
			continue
		}
		if r.PlatformID == 3 && r.EncodingID == 1 && r.LanguageID == lang {
			s, err := r.String()
			return s, err == nil
		}
		if fallback == nil && (r.PlatformID == 0 || (r.PlatformID == 1 && r.EncodingID == 0)) {
			fallback = &t.Records[i]
		}
	}
	if fallback != nil {
		s, err := fallback.String()
		return s, err == nil
	}
	return "", false
}

func decodeUtf16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", errFontFormat("decoding UTF-16 name string: " + err.Error())
	}
	return string(s), nil
}
