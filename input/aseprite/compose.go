package aseprite

import (
	"image"
	"image/color"

	"github.com/npillmayer/asefont/core"
	xdraw "golang.org/x/image/draw"
)

// compose draws the cels of the first frame onto per-layer canvases.
// It runs after all chunks are read, as a palette may follow the cels
// referencing it.
func (d *decoder) compose() error {
	bounds := image.Rect(0, 0, d.doc.Width, d.doc.Height)
	for _, l := range d.doc.Layers {
		l.Canvas = image.NewNRGBA(bounds)
	}
	if len(d.frames) == 0 {
		return nil
	}
	for _, cl := range d.frames[0] {
		cl, err := d.resolve(cl, 0)
		if err != nil {
			return err
		}
		l := d.doc.Layers[cl.layer]
		if l.Kind != LayerNormal {
			continue
		}
		img := d.celImage(cl, l.IsBackground())
		opacity := uint8(int(cl.opacity) * int(l.Opacity) / 255)
		if opacity == 0 {
			continue
		}
		r := img.Bounds().Add(image.Pt(cl.x, cl.y))
		mask := image.NewUniform(color.Alpha{A: opacity})
		xdraw.DrawMask(l.Canvas, r, img, image.Point{}, mask, image.Point{}, xdraw.Over)
	}
	return nil
}

// resolve follows linked cels back to the cel holding the pixel data.
func (d *decoder) resolve(cl *cel, frame int) (*cel, error) {
	for cl.kind == celLinked {
		target := cl.link
		var found *cel
		for _, other := range d.frames[target] {
			if other.layer == cl.layer {
				found = other
				break
			}
		}
		if found == nil {
			return nil, core.FormatError(cl.offset, "cel of layer %d in frame %d links to empty frame %d",
				cl.layer, frame, target)
		}
		cl, frame = found, target
	}
	return cl, nil
}

// celImage converts the raw pixels of a cel to NRGBA.
func (d *decoder) celImage(cl *cel, background bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cl.w, cl.h))
	bpp := d.doc.Depth.BytesPerPixel()
	for i, o := 0, 0; i < cl.w*cl.h; i, o = i+1, o+bpp {
		px := cl.pixels[o : o+bpp]
		var c color.NRGBA
		switch d.doc.Depth {
		case DepthRGBA:
			c = color.NRGBA{R: px[0], G: px[1], B: px[2], A: px[3]}
		case DepthGrayscale:
			c = color.NRGBA{R: px[0], G: px[0], B: px[0], A: px[1]}
		case DepthIndexed:
			c = d.indexed(px[0], background)
		}
		img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], img.Pix[4*i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func (d *decoder) indexed(index uint8, background bool) color.NRGBA {
	if index == d.doc.TransparentIndex && !background {
		return color.NRGBA{}
	}
	if int(index) >= len(d.doc.Palette) {
		return color.NRGBA{}
	}
	c := d.doc.Palette[index]
	if background {
		c.A = 255
	}
	return c
}
