/*
Package convert drives the conversion of an Aseprite file into a TrueType
font.

The pipeline runs strictly in one direction:

▪︎ decode the container (package input/aseprite)

▪︎ cut glyph cells from the layers (package engine/glyphing/extract)

▪︎ trace the outline of every glyph (package engine/glyphing/outline)

▪︎ assemble the font (package core/font/opentype/otbuild)

Outlines are built in parallel by a pool of workers. Every font produced is
parsed again and compared against the font document it has been assembled
from, before it is handed out or written to disk. Files are written to a
temporary file first and renamed into place only when the whole conversion has
succeeded.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package convert

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'asefont'.
func tracer() tracing.Trace {
	return tracing.Select("asefont")
}
