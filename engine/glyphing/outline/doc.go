/*
Package outline converts glyph bitmaps into TrueType outlines.

Every pixel is a square of UnitsPerPixel design units. Tracing walks along the
boundary between "on" and "off" pixels, keeping the filled area on its right
hand side. In TrueType's coordinate system, with y pointing upwards, outer
contours therefore run clockwise and holes run counter-clockwise, as required
by the non-zero winding rule. Adjacent pixels melt into a single contour:
a filled square of any size results in just four points.

Where two filled pixels touch only at a corner, tracing always turns right.
Each of the two pixels keeps its own contour and the contours meet in a single
point without crossing.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package outline

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'asefont.glyphs'.
func tracer() tracing.Trace {
	return tracing.Select("asefont.glyphs")
}
