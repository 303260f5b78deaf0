/*
Package extract finds glyphs in the layers of an Aseprite document.

A layer contributes glyphs if its name starts with a Unicode code point in
hexadecimal notation, e.g.

	U+0041          one or more glyphs, starting at 'A'
	U+0041-         the same
	U+0041-005A     glyphs 'A' to 'Z', further cells are ignored
	U+0030 digits   anything after the code point is a comment
	U+0041_caps     the same, starting at 'A'

The layer's canvas is cut into cells of a fixed size, row by row from the top
left corner. The n-th cell holds the glyph for the start code point plus n.
Cells without any visible pixel are skipped, but still count. If two layers
define the same code point, the later layer wins.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package extract

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'asefont.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("asefont.glyphs")
}
