/*
Package ot provides read access to the tables of an OpenType font with
TrueType outlines.

Intended audience for this package are clients which need to check the
internal structure of a font file, first of all the font assembler of this
module, which parses every font it produces before handing it out. Package `ot`
will not rasterize glyphs or shape text; package golang.org/x/image/font/sfnt
is well suited for that.

Parse reads the table directory and verifies

▪︎ the tag order, the alignment and the bounds of every table,

▪︎ the checksum of every table and the checksum adjustment of the whole file,

▪︎ the presence of all tables required for a TrueType font: cmap, glyf, head,
hhea, hmtx, loca, maxp, name, OS/2, post.

Tables head, hhea, hmtx, maxp, loca, cmap, name and glyf are interpreted and
accessible through Go types:

	otf, err := ot.Parse(data)
	head := otf.Table(ot.T("head")).Self().AsHead()
	gid := otf.CMap.GlyphIndexMap.Lookup('A')
	outline, err := otf.GlyphOutline(gid)

All other tables are available as generic tables, i.e. as their binary data.

Font collections and variable fonts are not supported, nor are fonts with CFF
outlines.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"fmt"

	"github.com/npillmayer/asefont/core"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'asefont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("asefont.fonts")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.FormatError(-1, "OpenType font format: %s", x)
}

// errFontFormatAt is errFontFormat for a position within the font binary.
func errFontFormatAt(pos uint32, format string, v ...interface{}) error {
	return core.FormatError(int64(pos), "OpenType font format: %s", fmt.Sprintf(format, v...))
}
