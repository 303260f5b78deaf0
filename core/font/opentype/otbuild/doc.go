/*
Package otbuild assembles OpenType fonts with TrueType outlines.

Input is an opentype.FontDocument: glyph outlines sorted by code point, with
glyph 0 being '.notdef', plus naming information and global metrics. Assemble
serializes it into the tables

	OS/2 cmap glyf head hhea hmtx loca maxp name post

written in this order, each padded to a multiple of 4 bytes. The table
directory records a checksum for every table, and the 'head' table's
checkSumAdjustment is patched last.

Output is deterministic: identical documents result in identical bytes.
Timestamps default to a fixed epoch.

Fonts which would exceed limits of the binary format (glyph count, points
or contours per glyph, 16 bit coordinates, string or table sizes) are rejected
with an error of code core.EBUILD.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package otbuild

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'asefont.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("asefont.fonts")
}
