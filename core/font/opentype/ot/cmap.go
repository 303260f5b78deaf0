package ot

import "sort"

// CMapTable is table 'cmap', mapping code points to glyph indices.
//
// A cmap table lists one or more subtables, each for a platform/encoding
// pair. We keep the list of all of them in Encodings, but decode only the
// subtable with the widest Unicode coverage into GlyphIndexMap.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
	Encodings     []EncodingRecord
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t
}

// EncodingRecord is a platform/encoding pair of a cmap table together with
// the format of the subtable it refers to.
type EncodingRecord struct {
	PlatformID, EncodingID uint16
	Format                 uint16
	offset                 uint32
	rank                   int // 0 = not decodable, 1 = BMP, 2 = all planes
}

// Unicode subtables we decode. Encoding 10 on the Unicode platform is not
// valid, but written by some versions of FontForge for full-range subtables.
var unicodeSubtables = []struct {
	platform, encoding, format uint16
	rank                       int
}{
	{0, 3, 4, 1},
	{3, 1, 4, 1},
	{0, 4, 12, 2},
	{0, 10, 12, 2},
	{3, 10, 12, 2},
}

// subtableRank tells how useful a subtable is for looking up Unicode code
// points. Subtables of rank 0 cannot be decoded.
func subtableRank(platform, encoding, format uint16) int {
	for _, s := range unicodeSubtables {
		if s.platform == platform && s.encoding == encoding && s.format == format {
			return s.rank
		}
	}
	return 0
}

func makeGlyphIndex(b binarySegm, which EncodingRecord) (CMapGlyphIndex, error) {
	subtable := b[which.offset:]
	switch which.Format {
	case 4:
		return makeGlyphIndexFormat4(subtable)
	case 12:
		return makeGlyphIndexFormat12(subtable)
	}
	return nil, errFontFormat("unsupported cmap format")
}

// CMapGlyphIndex maps code points to glyph indices.
type CMapGlyphIndex interface {
	Lookup(rune) GlyphIndex // 0 for unmapped code points
	// ReverseLookup finds the lowest code point mapped to a glyph. It scans
	// the whole map.
	ReverseLookup(GlyphIndex) rune
}

// --- Format 4 --------------------------------------------------------------

// segment4 is a range of BMP code points. Glyphs are either computed by
// adding delta to the code point, or taken from the glyph id array, starting
// at index glyphs.
type segment4 struct {
	start, end uint16
	delta      uint16
	glyphs     int // -1 if the segment maps by delta only
}

type format4GlyphIndex struct {
	segments []segment4
	glyphIds binarySegm
}

func (f4 format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xffff {
		return 0
	}
	c := uint16(r)
	i := sort.Search(len(f4.segments), func(i int) bool { return f4.segments[i].end >= c })
	if i == len(f4.segments) || c < f4.segments[i].start {
		return 0
	}
	seg := f4.segments[i]
	if seg.glyphs < 0 {
		return GlyphIndex(c + seg.delta)
	}
	at := 2 * (seg.glyphs + int(c-seg.start))
	if at+2 > f4.glyphIds.Size() {
		return 0
	}
	if gid := f4.glyphIds.U16(at); gid != 0 {
		return GlyphIndex(gid + seg.delta)
	}
	return 0
}

func (f4 format4GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	for _, seg := range f4.segments {
		for c := int(seg.start); c <= int(seg.end) && c < 0xffff; c++ {
			if f4.Lookup(rune(c)) == gid {
				return rune(c)
			}
		}
	}
	return 0
}

// A format 4 subtable has a 14 byte header, followed by four arrays of
// segCount entries: end codes, start codes, deltas and range offsets. The
// end code array is followed by 2 bytes of padding, the range offsets by
// the glyph id array.
//
// A range offset is the distance in bytes from the range offset entry itself
// to the segment's first entry in the glyph id array. We convert it into an
// index into the glyph id array.
func makeGlyphIndexFormat4(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 14
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap subtable bounds overflow")
	}
	length := int(b.U16(2))
	segX2 := int(b.U16(6))
	if segX2%2 != 0 {
		tracer().Debugf("cmap format 4 has segCountX2 = %d", segX2)
		return nil, errFontFormat("cmap table format, illegal segment count")
	}
	n := segX2 / 2
	if length > b.Size() || headerSize+4*segX2+2 > length {
		return nil, errFontFormat("cmap internal structure")
	}
	b = b[:length]
	ends := headerSize
	starts := ends + segX2 + 2
	deltas := starts + segX2
	ranges := deltas + segX2
	glyphIds := ranges + segX2
	segments := make([]segment4, n)
	for i := range segments {
		seg := segment4{
			end:    b.U16(ends + 2*i),
			start:  b.U16(starts + 2*i),
			delta:  b.U16(deltas + 2*i),
			glyphs: -1,
		}
		if off := int(b.U16(ranges + 2*i)); off != 0 {
			// position of the entry in the glyph id array, in bytes
			pos := ranges + 2*i + off - glyphIds
			if pos < 0 || pos%2 != 0 {
				return nil, errFontFormat("cmap format 4 range offset")
			}
			seg.glyphs = pos / 2
		}
		if seg.end < seg.start || (i > 0 && seg.start <= segments[i-1].end) {
			return nil, errFontFormat("cmap format 4 segments not sorted")
		}
		segments[i] = seg
	}
	if n == 0 || segments[n-1].end != 0xffff {
		return nil, errFontFormat("cmap format 4 without terminal segment")
	}
	return format4GlyphIndex{segments: segments, glyphIds: b[glyphIds:]}, nil
}

// --- Format 12 -------------------------------------------------------------

// group12 maps the code points start…end to consecutive glyphs, beginning
// with glyph first.
type group12 struct {
	start, end, first uint32
}

type format12GlyphIndex struct {
	groups []group12
}

func (f12 format12GlyphIndex) Lookup(r rune) GlyphIndex {
	c := uint32(r)
	i := sort.Search(len(f12.groups), func(i int) bool { return f12.groups[i].end >= c })
	if i == len(f12.groups) || c < f12.groups[i].start {
		return 0
	}
	return GlyphIndex(f12.groups[i].first + c - f12.groups[i].start)
}

func (f12 format12GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	g := uint32(gid)
	for _, grp := range f12.groups {
		if g >= grp.first && g-grp.first <= grp.end-grp.start {
			return rune(grp.start + g - grp.first)
		}
	}
	return 0
}

// A format 12 subtable has a 16 byte header, the last field being the
// number of groups, followed by the groups of three uint32 each.
func makeGlyphIndexFormat12(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize, groupSize = 16, 12
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap subtable bounds overflow")
	}
	length := int(b.U32(4))
	count := int(b.U32(12))
	if length > b.Size() || headerSize+groupSize*count > length {
		return nil, errFontFormat("cmap internal structure")
	}
	groups := make([]group12, count)
	for i := range groups {
		at := headerSize + groupSize*i
		grp := group12{start: b.U32(at), end: b.U32(at + 4), first: b.U32(at + 8)}
		if grp.end < grp.start || (i > 0 && grp.start <= groups[i-1].end) {
			return nil, errFontFormat("cmap format 12 groups not sorted")
		}
		groups[i] = grp
	}
	return format12GlyphIndex{groups: groups}, nil
}
