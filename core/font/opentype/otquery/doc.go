/*
Package otquery queries metrics and other information from OpenType fonts.

Package otquery knows about the various tables contained in an OpenType font
and which ones to address for queries. It operates on fonts parsed by package
ot. Clients of this package are the font converter, which checks the fonts it
produces against the font document they have been assembled from, and the
command line tool, which prints a summary of a font.

No font collections nor variable fonts are supported.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'asefont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("asefont.fonts")
}
