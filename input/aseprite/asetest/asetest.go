/*
Package asetest writes minimal Aseprite files for tests.

Files are assembled from plain values: layers, cels and a palette. Cel pixel
data may be given raw or drawn from ASCII masks, where '#' marks an opaque ink
pixel and any other character a transparent one.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package asetest

import (
	"bytes"
	"encoding/binary"
	"image/color"

	"github.com/klauspost/compress/zlib"
)

// Color depths, in bits per pixel.
const (
	Indexed   uint16 = 8
	Grayscale uint16 = 16
	RGBA      uint16 = 32
)

// Layer describes a layer chunk.
type Layer struct {
	Name    string
	Flags   uint16 // defaults to visible|editable if zero
	Kind    uint16
	Opacity uint8 // defaults to 255 if zero
}

// Cel describes a cel chunk.
type Cel struct {
	Layer      int
	X, Y       int
	Opacity    uint8 // defaults to 255 if zero
	W, H       int
	Pixels     []byte
	Compressed bool
	Link       int // frame to link to; used if Linked is set
	Linked     bool
}

// Chunk is an arbitrary chunk, written verbatim.
type Chunk struct {
	Type uint16
	Data []byte
}

// File describes a complete document.
type File struct {
	Width, Height    int
	Depth            uint16
	Flags            uint32 // header flags; defaults to 1 (layer opacity valid)
	TransparentIndex uint8
	Palette          []color.NRGBA
	OldPalette       bool // write the palette as chunk 0x0004
	Layers           []Layer
	Frames           [][]Cel // Frames[0] must exist; further frames are optional
	Extra            []Chunk // written to frame 0 before all other chunks
}

// New creates a single frame file of the given size and depth.
// Indexed files get a two-color palette: transparent and black.
func New(w, h int, depth uint16) *File {
	f := &File{Width: w, Height: h, Depth: depth, Flags: 1, Frames: make([][]Cel, 1)}
	if depth == Indexed {
		f.Palette = []color.NRGBA{{}, {A: 255}}
	}
	return f
}

// AddLayer appends a layer and returns its index.
func (f *File) AddLayer(name string) int {
	f.Layers = append(f.Layers, Layer{Name: name})
	return len(f.Layers) - 1
}

// Draw adds a cel to frame 0, drawn from an ASCII mask.
func (f *File) Draw(layer, x, y int, rows ...string) *Cel {
	c := MaskCel(f.Depth, rows...)
	c.Layer, c.X, c.Y = layer, x, y
	f.Frames[0] = append(f.Frames[0], c)
	return &f.Frames[0][len(f.Frames[0])-1]
}

// MaskCel creates a cel from an ASCII mask. Ink is black with full opacity;
// for indexed files it is palette index 1.
func MaskCel(depth uint16, rows ...string) Cel {
	h := len(rows)
	w := 0
	for _, r := range rows {
		w = max(w, len(r))
	}
	bpp := int(depth / 8)
	px := make([]byte, w*h*bpp)
	for y, r := range rows {
		for x := 0; x < len(r); x++ {
			if r[x] != '#' {
				continue
			}
			o := (y*w + x) * bpp
			switch depth {
			case RGBA:
				px[o+3] = 255
			case Grayscale:
				px[o+1] = 255
			case Indexed:
				px[o] = 1
			}
		}
	}
	return Cel{W: w, H: h, Pixels: px}
}

// Encode serializes f.
func (f *File) Encode() []byte {
	frames := f.Frames
	if len(frames) == 0 {
		frames = make([][]Cel, 1)
	}
	var body []byte
	for i, cels := range frames {
		var chunks [][]byte
		if i == 0 {
			for _, x := range f.Extra {
				chunks = append(chunks, chunk(x.Type, x.Data))
			}
			if len(f.Palette) > 0 {
				if f.OldPalette {
					chunks = append(chunks, f.oldPaletteChunk())
				} else {
					chunks = append(chunks, f.paletteChunk())
				}
			}
			for _, l := range f.Layers {
				chunks = append(chunks, layerChunk(l))
			}
		}
		for _, c := range cels {
			chunks = append(chunks, celChunk(c))
		}
		body = append(body, frame(chunks)...)
	}
	h := make([]byte, 0, 128)
	h = le32(h, uint32(128+len(body)))
	h = le16(h, 0xA5E0)
	h = le16(h, uint16(len(frames)))
	h = le16(h, uint16(f.Width))
	h = le16(h, uint16(f.Height))
	h = le16(h, f.Depth)
	h = le32(h, f.Flags)
	h = le16(h, 100) // speed
	h = le32(h, 0)
	h = le32(h, 0)
	h = append(h, f.TransparentIndex, 0, 0, 0)
	h = le16(h, uint16(len(f.Palette)))
	h = append(h, 1, 1) // pixel ratio
	h = append(h, make([]byte, 128-len(h))...)
	return append(h, body...)
}

func frame(chunks [][]byte) []byte {
	size := 16
	for _, c := range chunks {
		size += len(c)
	}
	b := make([]byte, 0, size)
	b = le32(b, uint32(size))
	b = le16(b, 0xF1FA)
	old := len(chunks)
	if old > 0xffff {
		old = 0xffff
	}
	b = le16(b, uint16(old))
	b = le16(b, 100) // duration
	b = append(b, 0, 0)
	b = le32(b, uint32(len(chunks)))
	for _, c := range chunks {
		b = append(b, c...)
	}
	return b
}

func chunk(typ uint16, data []byte) []byte {
	b := make([]byte, 0, 6+len(data))
	b = le32(b, uint32(6+len(data)))
	b = le16(b, typ)
	return append(b, data...)
}

func layerChunk(l Layer) []byte {
	flags, opacity := l.Flags, l.Opacity
	if flags == 0 {
		flags = 3
	}
	if opacity == 0 {
		opacity = 255
	}
	var b []byte
	b = le16(b, flags)
	b = le16(b, l.Kind)
	b = le16(b, 0) // child level
	b = le16(b, 0)
	b = le16(b, 0)
	b = le16(b, 0) // blend mode
	b = append(b, opacity, 0, 0, 0)
	b = str(b, l.Name)
	if l.Kind == 2 {
		b = le32(b, 0)
	}
	return chunk(0x2004, b)
}

func celChunk(c Cel) []byte {
	opacity := c.Opacity
	if opacity == 0 {
		opacity = 255
	}
	var b []byte
	b = le16(b, uint16(c.Layer))
	b = le16(b, uint16(int16(c.X)))
	b = le16(b, uint16(int16(c.Y)))
	b = append(b, opacity)
	switch {
	case c.Linked:
		b = le16(b, 1)
		b = append(b, make([]byte, 7)...)
		b = le16(b, uint16(c.Link))
	case c.Compressed:
		b = le16(b, 2)
		b = append(b, make([]byte, 7)...)
		b = le16(b, uint16(c.W))
		b = le16(b, uint16(c.H))
		b = append(b, Deflate(c.Pixels)...)
	default:
		b = le16(b, 0)
		b = append(b, make([]byte, 7)...)
		b = le16(b, uint16(c.W))
		b = le16(b, uint16(c.H))
		b = append(b, c.Pixels...)
	}
	return chunk(0x2005, b)
}

func (f *File) paletteChunk() []byte {
	var b []byte
	b = le32(b, uint32(len(f.Palette)))
	b = le32(b, 0)
	b = le32(b, uint32(len(f.Palette)-1))
	b = append(b, make([]byte, 8)...)
	for _, c := range f.Palette {
		b = le16(b, 0)
		b = append(b, c.R, c.G, c.B, c.A)
	}
	return chunk(0x2019, b)
}

func (f *File) oldPaletteChunk() []byte {
	var b []byte
	b = le16(b, 1)
	b = append(b, 0, uint8(len(f.Palette))) // 256 colors wrap to 0
	for _, c := range f.Palette {
		b = append(b, c.R, c.G, c.B)
	}
	return chunk(0x0004, b)
}

// Deflate compresses data with zlib, the way Aseprite stores compressed cels.
func Deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

func le16(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
func le32(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

func str(b []byte, s string) []byte {
	b = le16(b, uint16(len(s)))
	return append(b, s...)
}
