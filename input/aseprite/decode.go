package aseprite

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/npillmayer/asefont/core"
)

// Magic numbers of the container format.
const (
	FileMagic  uint16 = 0xA5E0
	FrameMagic uint16 = 0xF1FA
	headerSize        = 128
	frameHeaderSize   = 16
	chunkHeaderSize   = 6
)

// Limits on sizes declared in a file. Buffers are allocated only after the
// declared size has been checked against them.
const (
	MaxCanvasPixels = 1 << 24 // 4096×4096
	maxPaletteSize  = 65536
)

// Chunk types we interpret.
const (
	chunkOldPalette   uint16 = 0x0004
	chunkOldPalette64 uint16 = 0x0011
	chunkLayer        uint16 = 0x2004
	chunkCel          uint16 = 0x2005
	chunkPalette      uint16 = 0x2019
)

// DecodeReader reads all of r and decodes it. See Decode.
func DecodeReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode decodes an Aseprite file from its bytes.
//
// Errors are of code core.EFORMAT and mention the byte offset of the problem.
func Decode(data []byte) (*Document, error) {
	d := &decoder{src: binarySegm{data: data}}
	if err := d.header(); err != nil {
		return nil, err
	}
	pos := headerSize
	for i := 0; i < d.frameCount; i++ {
		n, err := d.frame(i, pos)
		if err != nil {
			return nil, err
		}
		pos += n
	}
	if err := d.compose(); err != nil {
		return nil, err
	}
	tracer().Debugf("decoded %dx%d %s document with %d layers, %d frames",
		d.doc.Width, d.doc.Height, d.doc.Depth, len(d.doc.Layers), d.doc.FrameCount)
	return d.doc, nil
}

type decoder struct {
	src        binarySegm
	doc        *Document
	frameCount int
	frames     [][]*cel // cels per frame
}

func (d *decoder) header() error {
	h, err := d.src.view(0, headerSize)
	if err != nil {
		return core.FormatError(0, "file too short for header: %d bytes", len(d.src.data))
	}
	c := newCursor(h, "header")
	fileSize := c.u32()
	if magic := c.u16(); magic != FileMagic {
		return core.FormatError(4, "bad magic number 0x%04x, not an Aseprite file", magic)
	}
	d.frameCount = int(c.u16())
	width, height := int(c.u16()), int(c.u16())
	depth := ColorDepth(c.u16())
	flags := c.u32()
	c.skip(2 + 4 + 4) // speed, reserved
	transparent := c.u8()
	c.skip(3)
	ncolors := int(c.u16())
	if c.err != nil {
		return c.err
	}
	if depth.BytesPerPixel() == 0 {
		return core.FormatError(12, "unsupported color depth %d", uint16(depth))
	}
	if width == 0 || height == 0 {
		return core.FormatError(8, "empty canvas %dx%d", width, height)
	}
	if width*height > MaxCanvasPixels {
		return core.FormatError(8, "canvas %dx%d exceeds %d pixels", width, height, MaxCanvasPixels)
	}
	if int(fileSize) > len(d.src.data) {
		return core.FormatError(0, "truncated file: header declares %d bytes, have %d",
			fileSize, len(d.src.data))
	}
	if ncolors == 0 {
		ncolors = 256
	}
	d.doc = &Document{
		Width:            width,
		Height:           height,
		Depth:            depth,
		Flags:            flags,
		TransparentIndex: transparent,
		Palette:          make([]color.NRGBA, ncolors),
		FrameCount:       d.frameCount,
	}
	d.frames = make([][]*cel, d.frameCount)
	return nil
}

// frame decodes the frame at file position pos and returns its byte size.
func (d *decoder) frame(n int, pos int) (int, error) {
	h, err := d.src.view(pos, frameHeaderSize)
	if err != nil {
		return 0, core.FormatError(int64(pos), "truncated frame header of frame %d", n)
	}
	c := newCursor(h, "frame header")
	size := int(c.u32())
	if magic := c.u16(); magic != FrameMagic {
		return 0, core.FormatError(int64(pos+4), "bad frame magic 0x%04x in frame %d", magic, n)
	}
	chunks := int(c.u16())
	c.skip(2 + 2) // duration, reserved
	if nc := int(c.u32()); nc != 0 {
		chunks = nc
	}
	if size < frameHeaderSize {
		return 0, core.FormatError(int64(pos), "frame %d declares size %d", n, size)
	}
	body, err := d.src.view(pos+frameHeaderSize, size-frameHeaderSize)
	if err != nil {
		return 0, core.FormatError(int64(pos), "truncated frame %d: declares %d bytes", n, size)
	}
	tracer().Debugf("frame %d has %d chunks in %d bytes", n, chunks, size)
	off := 0
	for i := 0; i < chunks; i++ {
		ch, err := body.view(off, chunkHeaderSize)
		if err != nil {
			return 0, core.FormatError(body.base+int64(off), "truncated chunk header in frame %d", n)
		}
		csize, ctype := int(u32(ch.data)), u16(ch.data[4:])
		if csize < chunkHeaderSize {
			return 0, core.FormatError(ch.base, "chunk 0x%04x declares size %d", ctype, csize)
		}
		chunk, err := body.view(off+chunkHeaderSize, csize-chunkHeaderSize)
		if err != nil {
			return 0, core.FormatError(ch.base, "truncated chunk 0x%04x: declares %d bytes, frame has %d left",
				ctype, csize, len(body.data)-off)
		}
		if err = d.chunk(n, ctype, chunk); err != nil {
			return 0, err
		}
		off += csize
	}
	return size, nil
}

func (d *decoder) chunk(frame int, ctype uint16, chunk binarySegm) error {
	switch ctype {
	case chunkLayer:
		if frame == 0 {
			return d.layer(chunk)
		}
	case chunkCel:
		return d.cel(frame, chunk)
	case chunkPalette:
		return d.palette(chunk)
	case chunkOldPalette, chunkOldPalette64:
		return d.oldPalette(chunk, ctype == chunkOldPalette64)
	default:
		tracer().Debugf("skipping chunk 0x%04x of %d bytes", ctype, len(chunk.data))
	}
	return nil
}

func (d *decoder) layer(chunk binarySegm) error {
	c := newCursor(chunk, "layer chunk")
	l := &Layer{Index: len(d.doc.Layers)}
	l.Flags = LayerFlags(c.u16())
	l.Kind = LayerKind(c.u16())
	l.ChildLevel = int(c.u16())
	c.skip(4) // default width and height, ignored
	l.BlendMode = BlendMode(c.u16())
	l.Opacity = c.u8()
	c.skip(3)
	l.Name = c.str()
	if c.err != nil {
		return c.err
	}
	if d.doc.Flags&FlagLayerOpacityValid == 0 {
		l.Opacity = 255
	}
	tracer().Debugf("%v", l)
	d.doc.Layers = append(d.doc.Layers, l)
	return nil
}

func (d *decoder) cel(frame int, chunk binarySegm) error {
	c := newCursor(chunk, "cel chunk")
	cl := &cel{offset: chunk.base}
	cl.layer = int(c.u16())
	cl.x, cl.y = int(c.i16()), int(c.i16())
	cl.opacity = c.u8()
	cl.kind = c.u16()
	c.skip(2 + 5) // z-index, reserved
	if c.err != nil {
		return c.err
	}
	if cl.layer >= len(d.doc.Layers) {
		return core.FormatError(chunk.base, "cel references layer %d, only %d layers declared",
			cl.layer, len(d.doc.Layers))
	}
	bpp := d.doc.Depth.BytesPerPixel()
	switch cl.kind {
	case celRaw:
		cl.w, cl.h = int(c.u16()), int(c.u16())
		cl.pixels = c.bytes(cl.w * cl.h * bpp)
	case celLinked:
		cl.link = int(c.u16())
		if cl.link >= frame {
			return core.FormatError(chunk.base, "cel in frame %d links to frame %d", frame, cl.link)
		}
	case celCompressed:
		cl.w, cl.h = int(c.u16()), int(c.u16())
		payload := c.rest()
		if c.err != nil {
			return c.err
		}
		pixels, err := inflate(payload, cl.w*cl.h*bpp)
		if err != nil {
			return core.WrapFormatError(err, chunk.base, "corrupt compressed cel of layer %q",
				d.doc.Layers[cl.layer].Name)
		}
		cl.pixels = pixels
	case celCompressedTile:
		tracer().Infof("tilemap cel of layer %q ignored", d.doc.Layers[cl.layer].Name)
		return nil
	default:
		return core.FormatError(chunk.base, "unknown cel type %d", cl.kind)
	}
	if c.err != nil {
		return c.err
	}
	d.frames[frame] = append(d.frames[frame], cl)
	return nil
}

// inflate decompresses a zlib stream, which must yield at least n bytes.
// The stream is read to its end, so the checksum is verified.
//
// The buffer grows with the data actually decompressed, never beyond n, so a
// cel declaring a huge size with a short payload fails without allocating it.
func inflate(payload []byte, n int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var pixels bytes.Buffer
	if _, err := io.Copy(&pixels, io.LimitReader(zr, int64(n))); err != nil {
		return nil, err
	}
	if pixels.Len() < n {
		return nil, fmt.Errorf("%d bytes of pixel data, expected %d: %w",
			pixels.Len(), n, io.ErrUnexpectedEOF)
	}
	if _, err := io.Copy(io.Discard, zr); err != nil {
		return nil, err
	}
	return pixels.Bytes(), nil
}

func (d *decoder) palette(chunk binarySegm) error {
	c := newCursor(chunk, "palette chunk")
	size := int(c.u32())
	first, last := int(c.u32()), int(c.u32())
	c.skip(8)
	if c.err != nil {
		return c.err
	}
	if first > last || last >= size || size > maxPaletteSize {
		return core.FormatError(chunk.base, "palette range %d…%d invalid for size %d", first, last, size)
	}
	d.growPalette(size)
	for i := first; i <= last; i++ {
		flags := c.u16()
		rgba := c.bytes(4)
		if flags&1 != 0 {
			c.str() // color name
		}
		if c.err != nil {
			return c.err
		}
		d.doc.Palette[i] = color.NRGBA{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	}
	return nil
}

// oldPalette reads the deprecated palette chunks. Chunk 0x0011 stores color
// components in the range 0…63.
func (d *decoder) oldPalette(chunk binarySegm, sixBit bool) error {
	c := newCursor(chunk, "old palette chunk")
	packets := int(c.u16())
	index := 0
	for p := 0; p < packets; p++ {
		index += int(c.u8())
		n := int(c.u8())
		if n == 0 {
			n = 256
		}
		if index+n > maxPaletteSize {
			return core.FormatError(chunk.base, "old palette exceeds %d entries", maxPaletteSize)
		}
		d.growPalette(index + n)
		for i := 0; i < n; i++ {
			rgb := c.bytes(3)
			if c.err != nil {
				return c.err
			}
			col := color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
			if sixBit {
				col.R, col.G, col.B = scale6(rgb[0]), scale6(rgb[1]), scale6(rgb[2])
			}
			d.doc.Palette[index] = col
			index++
		}
	}
	return c.err
}

func scale6(v uint8) uint8 {
	return uint8(int(v&63) * 255 / 63)
}

func (d *decoder) growPalette(size int) {
	if size > len(d.doc.Palette) {
		p := make([]color.NRGBA, size)
		copy(p, d.doc.Palette)
		d.doc.Palette = p
	}
}
