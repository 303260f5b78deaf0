package aseprite

import (
	"fmt"
	"image"
	"image/color"
)

// ColorDepth is the number of bits per pixel of an Aseprite document.
type ColorDepth uint16

// Supported color depths.
const (
	DepthIndexed   ColorDepth = 8
	DepthGrayscale ColorDepth = 16
	DepthRGBA      ColorDepth = 32
)

// BytesPerPixel returns the size of a pixel in cel data, or 0 for unsupported
// depths.
func (d ColorDepth) BytesPerPixel() int {
	switch d {
	case DepthIndexed:
		return 1
	case DepthGrayscale:
		return 2
	case DepthRGBA:
		return 4
	}
	return 0
}

func (d ColorDepth) String() string {
	switch d {
	case DepthIndexed:
		return "indexed"
	case DepthGrayscale:
		return "grayscale"
	case DepthRGBA:
		return "RGBA"
	}
	return fmt.Sprintf("depth(%d)", uint16(d))
}

// Header flags.
const (
	FlagLayerOpacityValid uint32 = 1 << 0
	FlagGroupOpacityValid uint32 = 1 << 1
	FlagLayerUUID         uint32 = 1 << 2
)

// LayerFlags are the flags of a layer chunk.
type LayerFlags uint16

// Layer flags.
const (
	LayerVisible    LayerFlags = 1 << 0
	LayerEditable   LayerFlags = 1 << 1
	LayerLocked     LayerFlags = 1 << 2
	LayerBackground LayerFlags = 1 << 3
	LayerPreferLink LayerFlags = 1 << 4
	LayerCollapsed  LayerFlags = 1 << 5
	LayerReference  LayerFlags = 1 << 6
)

// LayerKind distinguishes image layers, groups and tilemaps.
type LayerKind uint16

// Layer kinds.
const (
	LayerNormal  LayerKind = 0
	LayerGroup   LayerKind = 1
	LayerTilemap LayerKind = 2
)

// BlendMode is a layer's blend mode. It is retained for clients, but
// compositing a single layer onto transparency does not depend on it.
type BlendMode uint16

// Blend modes, in file order.
const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendColorDodge
	BlendColorBurn
	BlendHardLight
	BlendSoftLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity
	BlendAddition
	BlendSubtract
	BlendDivide
)

var blendNames = [...]string{
	"normal", "multiply", "screen", "overlay", "darken", "lighten", "color-dodge",
	"color-burn", "hard-light", "soft-light", "difference", "exclusion", "hue",
	"saturation", "color", "luminosity", "addition", "subtract", "divide",
}

func (m BlendMode) String() string {
	if int(m) < len(blendNames) {
		return blendNames[m]
	}
	return fmt.Sprintf("blend(%d)", uint16(m))
}

// Document is the in-memory representation of an Aseprite file.
type Document struct {
	Width, Height    int
	Depth            ColorDepth
	Flags            uint32
	TransparentIndex uint8
	Palette          []color.NRGBA
	Layers           []*Layer // in declaration order
	FrameCount       int
}

// Layer is a layer of a document, together with its composited pixels of the
// first frame.
type Layer struct {
	Index      int
	Name       string
	Flags      LayerFlags
	Kind       LayerKind
	ChildLevel int
	BlendMode  BlendMode
	Opacity    uint8
	Canvas     *image.NRGBA // document sized; transparent where no cel covers it
}

// Visible is true if the layer's visibility flag is set.
func (l *Layer) Visible() bool {
	return l.Flags&LayerVisible != 0
}

// IsBackground is true for the background layer, which has no transparency.
func (l *Layer) IsBackground() bool {
	return l.Flags&LayerBackground != 0
}

func (l *Layer) String() string {
	return fmt.Sprintf("layer[%d %q kind=%d blend=%s opacity=%d]", l.Index, l.Name, l.Kind,
		l.BlendMode, l.Opacity)
}

// Cel types.
const (
	celRaw            uint16 = 0
	celLinked         uint16 = 1
	celCompressed     uint16 = 2
	celCompressedTile uint16 = 3
)

// cel is the placement of pixel data of a layer within a frame.
// Pixels hold raw cel data in the document's color depth.
type cel struct {
	layer   int
	x, y    int
	opacity uint8
	kind    uint16
	w, h    int
	pixels  []byte
	link    int   // frame position for linked cels
	offset  int64 // chunk position, for error messages
}
