package soft

import (
	"image"

	"github.com/gogpu/display/hal"
)

// layerSource exposes the crop region of buf as an RGBA image.
//
// RGBA8888 buffers alias the slab directly; every other format is
// converted into a scratch copy. mutable reports whether the caller
// may write into the returned image without corrupting the producer's
// pixels.
func layerSource(buf *Buffer, crop image.Rectangle) (img *image.RGBA, mutable bool) {
	bounds := image.Rect(0, 0, buf.Width, buf.Height)
	crop = crop.Intersect(bounds)
	if crop.Empty() {
		return image.NewRGBA(image.Rectangle{}), true
	}

	if buf.Format == hal.FormatRGBA8888 {
		whole := &image.RGBA{
			Pix:    buf.Pix,
			Stride: buf.rowBytes(),
			Rect:   bounds,
		}
		return whole.SubImage(crop).(*image.RGBA), false
	}

	return convertToRGBA(buf, crop), true
}

// convertToRGBA copies the crop region of buf into a fresh RGBA
// image, expanding packed formats and fixing byte order.
func convertToRGBA(buf *Buffer, crop image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(crop)
	bpp := buf.Format.BytesPerPixel()
	rowBytes := buf.rowBytes()

	for y := crop.Min.Y; y < crop.Max.Y; y++ {
		src := buf.Pix[y*rowBytes+crop.Min.X*bpp:]
		out := dst.Pix[(y-crop.Min.Y)*dst.Stride:]
		for x := 0; x < crop.Dx(); x++ {
			s := src[x*bpp:]
			o := out[x*4 : x*4+4]
			switch buf.Format {
			case hal.FormatRGBX8888:
				o[0], o[1], o[2], o[3] = s[0], s[1], s[2], 0xff
			case hal.FormatBGRA8888:
				o[0], o[1], o[2], o[3] = s[2], s[1], s[0], s[3]
			case hal.FormatRGB888:
				o[0], o[1], o[2], o[3] = s[0], s[1], s[2], 0xff
			case hal.FormatRGB565:
				px := uint16(s[0]) | uint16(s[1])<<8
				r := uint8(px >> 11)
				g := uint8(px >> 5 & 0x3f)
				b := uint8(px & 0x1f)
				o[0] = r<<3 | r>>2
				o[1] = g<<2 | g>>4
				o[2] = b<<3 | b>>2
				o[3] = 0xff
			}
		}
	}
	return dst
}

// applyTransform rotates or flips img per the scanout transform.
// TransformNone returns img unchanged; everything else produces a
// new image with a zero-origin bounds.
func applyTransform(img *image.RGBA, tr hal.Transform) *image.RGBA {
	if tr == hal.TransformNone {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if tr == hal.TransformRot90 || tr == hal.TransformRot270 {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := b.Min.X+x, b.Min.Y+y
			var dx, dy int
			switch tr {
			case hal.TransformFlipH:
				dx, dy = w-1-x, y
			case hal.TransformFlipV:
				dx, dy = x, h-1-y
			case hal.TransformRot180:
				dx, dy = w-1-x, h-1-y
			case hal.TransformRot90:
				dx, dy = h-1-y, x
			case hal.TransformRot270:
				dx, dy = y, w-1-x
			default:
				dx, dy = x, y
			}
			so := img.PixOffset(sx, sy)
			do := dst.PixOffset(dx, dy)
			copy(dst.Pix[do:do+4], img.Pix[so:so+4])
		}
	}
	return dst
}

// applyAlpha scales all four channels by alpha/255. The image data
// is premultiplied, so plane alpha is a uniform multiply. When the
// source is not mutable a copy is scaled instead.
func applyAlpha(img *image.RGBA, alpha uint8, mutable bool) *image.RGBA {
	if alpha == 0xff {
		return img
	}
	if !mutable {
		img = cloneRGBA(img)
	}

	a := uint32(alpha)
	for i := range img.Pix {
		img.Pix[i] = uint8(uint32(img.Pix[i]) * a / 0xff)
	}
	return img
}

// cloneRGBA copies img into a zero-origin image of the same size.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		so := img.PixOffset(b.Min.X, b.Min.Y+y)
		do := dst.PixOffset(0, y)
		copy(dst.Pix[do:do+b.Dx()*4], img.Pix[so:so+b.Dx()*4])
	}
	return dst
}
