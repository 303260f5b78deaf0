/*
Package aseprite decodes Aseprite image files (.ase, .aseprite).

The decoder reads the chunked container format, as documented in
https://github.com/aseprite/aseprite/blob/main/docs/ase-file-specs.md,
into a Document: palette, layers in declaration order, and for every layer a
canvas of the document's size holding the layer's composited pixels of the
first frame.

Decoding is a pure function of the input bytes. Any malformation (bad magic,
truncated chunks, unsupported color depth, corrupt compressed cel data) aborts
decoding with an error of code core.EFORMAT; a partial document is never
returned.

Only what a font converter needs is interpreted: layers, cels, and palettes.
Tags, slices, user data, color profiles and tilesets are skipped.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package aseprite

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'asefont.input'.
func tracer() tracing.Trace {
	return tracing.Select("asefont.input")
}
