package otbuild

import (
	"sort"
	"strings"

	"github.com/npillmayer/asefont/core"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// Name IDs written to table 'name'.
const (
	NameCopyright         uint16 = 0
	NameFamily            uint16 = 1
	NameSubfamily         uint16 = 2
	NameUniqueID          uint16 = 3
	NameFull              uint16 = 4
	NameVersion           uint16 = 5
	NamePostScript        uint16 = 6
	NameTypographicFamily uint16 = 16
	NameTypographicSub    uint16 = 17
)

type nameRecord struct {
	platform, encoding, language, id uint16
	value                            []byte
}

// names returns the naming strings by name ID. Empty strings are omitted.
// Metadata is inserted verbatim; blank family and subfamily names are
// replaced by defaults.
func (a *assembler) names() map[uint16]string {
	meta := a.doc.Meta
	family := meta.Family
	if strings.TrimSpace(family) == "" {
		family = "Untitled"
	}
	sub := meta.Subfamily
	if strings.TrimSpace(sub) == "" {
		sub = "Regular"
	}
	full := family
	if sub != "Regular" {
		full = family + " " + sub
	}
	version := meta.Version
	if version == "" {
		version = "Version 1.0"
	}
	unique := meta.UniqueID
	if unique == "" {
		unique = "asefont: " + full
	}
	n := map[uint16]string{
		NameCopyright:         meta.Copyright,
		NameFamily:            family,
		NameSubfamily:         sub,
		NameUniqueID:          unique,
		NameFull:              full,
		NameVersion:           version,
		NamePostScript:        postScriptName(family, sub),
		NameTypographicFamily: family,
		NameTypographicSub:    sub,
	}
	for id, s := range n {
		if s == "" {
			delete(n, id)
		}
	}
	return n
}

// postScriptName creates a name restricted to printable ASCII without
// PostScript delimiters, at most 63 characters long. Accented letters lose
// their accents.
func postScriptName(family, sub string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(family + "-" + sub) {
		if r < 33 || r > 126 || strings.ContainsRune("[](){}<>/%", r) {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 63 {
			break
		}
	}
	return b.String()
}

// macRoman encodes s in the Macintosh character set, replacing characters
// which cannot be represented by '?'.
func macRoman(s string) []byte {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := charmap.Macintosh.EncodeRune(r); ok {
			b = append(b, c)
		} else {
			b = append(b, '?')
		}
	}
	return b
}

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// name creates the naming table (format 0) with records for the Macintosh
// platform (Roman, English) and the Windows platform (Unicode BMP, en-US).
func (a *assembler) name() ([]byte, error) {
	var records []nameRecord
	for id, s := range a.names() {
		win, err := utf16be.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, core.BuildError("name %d: cannot encode %q: %v", id, s, err)
		}
		for _, v := range [][]byte{macRoman(s), win} {
			if len(v) > MaxString {
				return nil, core.BuildError("name %d has %d bytes, limit is %d", id, len(v), MaxString)
			}
		}
		records = append(records,
			nameRecord{platform: 1, encoding: 0, language: 0, id: id, value: macRoman(s)},
			nameRecord{platform: 3, encoding: 1, language: 0x409, id: id, value: win},
		)
	}
	sort.Slice(records, func(i, j int) bool {
		ri, rj := records[i], records[j]
		if ri.platform != rj.platform {
			return ri.platform < rj.platform
		}
		if ri.encoding != rj.encoding {
			return ri.encoding < rj.encoding
		}
		if ri.language != rj.language {
			return ri.language < rj.language
		}
		return ri.id < rj.id
	})
	storageOffset := 6 + 12*len(records)
	var b, storage buffer
	b.u16(0) // format
	b.u16(uint16(len(records)))
	b.u16(uint16(storageOffset))
	for _, r := range records {
		if len(storage)+len(r.value) > MaxString {
			return nil, core.BuildError("name strings exceed %d bytes", MaxString)
		}
		b.u16(r.platform)
		b.u16(r.encoding)
		b.u16(r.language)
		b.u16(r.id)
		b.u16(uint16(len(r.value)))
		b.u16(uint16(len(storage)))
		storage.bytes(r.value)
	}
	b.bytes(storage)
	return b, nil
}
