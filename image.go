// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// alpha returns the index of the alpha sample and whether it is
// premultiplied, or -1 if the pixels carry no alpha.
func (c Config) alpha() (int, bool) {
	var nc int
	switch c.Photometric {
	case WhiteIsZero, BlackIsZero:
		nc = 1
	case RGB:
		nc = 3
	default:
		return -1, false
	}
	if int(c.SamplesPerPixel) <= nc {
		return -1, false
	}
	if len(c.ExtraSamples) > 0 && c.ExtraSamples[0] == esAssociated {
		return nc, true
	}
	return nc, false
}

// rgbaImage allocates the image type matching depth and alpha mode and
// returns a setter taking 16-bit channel values for pixel i.
func rgbaImage(rect image.Rectangle, deep, alpha, premultiplied bool) (image.Image, func(i int, r, g, b, a uint16)) {
	switch {
	case !deep && alpha && !premultiplied:
		m := image.NewNRGBA(rect)
		return m, func(i int, r, g, b, a uint16) {
			m.Pix[4*i+0], m.Pix[4*i+1], m.Pix[4*i+2], m.Pix[4*i+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
		}
	case !deep:
		m := image.NewRGBA(rect)
		return m, func(i int, r, g, b, a uint16) {
			m.Pix[4*i+0], m.Pix[4*i+1], m.Pix[4*i+2], m.Pix[4*i+3] = uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
		}
	case alpha && !premultiplied:
		m := image.NewNRGBA64(rect)
		return m, func(i int, r, g, b, a uint16) { put64(m.Pix[8*i:8*i+8], r, g, b, a) }
	default:
		m := image.NewRGBA64(rect)
		return m, func(i int, r, g, b, a uint16) { put64(m.Pix[8*i:8*i+8], r, g, b, a) }
	}
}

func put64(p []byte, r, g, b, a uint16) {
	binary.BigEndian.PutUint16(p[0:2], r)
	binary.BigEndian.PutUint16(p[2:4], g)
	binary.BigEndian.PutUint16(p[4:6], b)
	binary.BigEndian.PutUint16(p[6:8], a)
}

// ToImage converts a raster to the image.Image type that holds its pixel
// format without loss.
func ToImage(img *RasterImage, c Config) (image.Image, error) {
	if len(img.Data) != c.RasterSize() || img.Width != c.Width || img.Height != c.Height {
		return nil, formatErr(SizeMismatch, "raster does not match its config")
	}
	rect := image.Rect(0, 0, int(img.Width), int(img.Height))
	spp := int(c.SamplesPerPixel)
	n := int(img.Width) * int(img.Height)
	deep := c.BitsPerSample == 16

	// sample returns sample s of pixel i scaled to 16 bits.
	sample := func(i, s int) uint16 {
		k := i*spp + s
		if deep {
			return binary.LittleEndian.Uint16(img.Data[2*k:])
		}
		return uint16(img.Data[k]) * 0x101
	}
	ai, premultiplied := c.alpha()

	switch c.Photometric {
	case PhotometricUnknown:
		return nil, missingTag(tPhotometricInterpretation)

	case WhiteIsZero, BlackIsZero:
		inv := c.Photometric == WhiteIsZero
		gray := func(i int) uint16 {
			v := sample(i, 0)
			if inv {
				v = 0xffff - v
			}
			return v
		}
		switch {
		case ai >= 0:
			m, set := rgbaImage(rect, deep, true, premultiplied)
			for i := 0; i < n; i++ {
				y := gray(i)
				set(i, y, y, y, sample(i, ai))
			}
			return m, nil
		case deep:
			m := image.NewGray16(rect)
			for i := 0; i < n; i++ {
				binary.BigEndian.PutUint16(m.Pix[2*i:], gray(i))
			}
			return m, nil
		default:
			m := image.NewGray(rect)
			for i := 0; i < n; i++ {
				m.Pix[i] = uint8(gray(i) >> 8)
			}
			return m, nil
		}

	case RGB:
		if spp < 3 {
			return nil, unsupported(fmt.Sprintf("RGB with %d samples", spp))
		}
		m, set := rgbaImage(rect, deep, ai >= 0, premultiplied)
		for i := 0; i < n; i++ {
			a := uint16(0xffff)
			if ai >= 0 {
				a = sample(i, ai)
			}
			set(i, sample(i, 0), sample(i, 1), sample(i, 2), a)
		}
		return m, nil

	case Paletted:
		if deep || spp != 1 {
			return nil, unsupported("palette images other than 8-bit")
		}
		m := image.NewPaletted(rect, c.Palette)
		copy(m.Pix, img.Data)
		return m, nil

	case CMYK:
		if deep || spp < 4 {
			return nil, unsupported("CMYK images other than 8-bit")
		}
		m := image.NewCMYK(rect)
		for i := 0; i < n; i++ {
			copy(m.Pix[4*i:4*i+4], img.Data[i*spp:i*spp+4])
		}
		return m, nil
	}
	return nil, unsupported("color model " + c.Photometric.String())
}

// rows copies h rows of rowLen bytes out of a strided pixel buffer.
func rows(pix []byte, off, stride, rowLen, h int) []byte {
	dst := make([]byte, 0, rowLen*h)
	for y := 0; y < h; y++ {
		dst = append(dst, pix[off:off+rowLen]...)
		off += stride
	}
	return dst
}

// FromImage converts m to a raster plus the options that encode it
// without loss. Image types without a TIFF equivalent are converted to
// NRGBA.
func FromImage(m image.Image) (*RasterImage, *EncodeOptions) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	img := &RasterImage{Width: uint32(w), Height: uint32(h)}
	opts := DefaultEncodeOptions()

	switch m := m.(type) {
	case *image.Gray:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, w, h)
	case *image.Gray16:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, 2*w, h)
		swap16(img.Data)
		opts.BitsPerSample = 16
	case *image.Paletted:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, w, h)
		opts.Photometric = Paletted
		opts.Palette = m.Palette
	case *image.RGBA:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, 4*w, h)
		opts.Photometric, opts.SamplesPerPixel = RGB, 4
		opts.ExtraSamples = []uint16{esAssociated}
	case *image.RGBA64:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, 8*w, h)
		swap16(img.Data)
		opts.Photometric, opts.SamplesPerPixel, opts.BitsPerSample = RGB, 4, 16
		opts.ExtraSamples = []uint16{esAssociated}
	case *image.NRGBA64:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, 8*w, h)
		swap16(img.Data)
		opts.Photometric, opts.SamplesPerPixel, opts.BitsPerSample = RGB, 4, 16
	case *image.CMYK:
		img.Data = rows(m.Pix, m.PixOffset(b.Min.X, b.Min.Y), m.Stride, 4*w, h)
		opts.Photometric, opts.SamplesPerPixel = CMYK, 4
	default:
		n, ok := m.(*image.NRGBA)
		if !ok {
			n = image.NewNRGBA(b)
			draw.Draw(n, b, m, b.Min, draw.Src)
		}
		img.Data = rows(n.Pix, n.PixOffset(b.Min.X, b.Min.Y), n.Stride, 4*w, h)
		opts.Photometric, opts.SamplesPerPixel = RGB, 4
	}
	return img, opts
}

// ToRGBA converts a raster to 8-bit RGBA with premultiplied alpha, four
// bytes per pixel, whatever its stored format.
func ToRGBA(img *RasterImage, c Config) (*RasterImage, error) {
	m, err := ToImage(img, c)
	if err != nil {
		return nil, err
	}
	rgba, ok := m.(*image.RGBA)
	if !ok {
		b := m.Bounds()
		rgba = image.NewRGBA(b)
		draw.Draw(rgba, b, m, b.Min, draw.Src)
	}
	return &RasterImage{Width: img.Width, Height: img.Height, Data: rgba.Pix}, nil
}

// colorModel returns the model of the image ToImage builds for c.
func colorModel(c Config) (color.Model, error) {
	deep := c.BitsPerSample == 16
	ai, premultiplied := c.alpha()
	switch c.Photometric {
	case WhiteIsZero, BlackIsZero, RGB:
		switch {
		case c.Photometric != RGB && ai < 0 && deep:
			return color.Gray16Model, nil
		case c.Photometric != RGB && ai < 0:
			return color.GrayModel, nil
		case ai >= 0 && !premultiplied && deep:
			return color.NRGBA64Model, nil
		case ai >= 0 && !premultiplied:
			return color.NRGBAModel, nil
		case deep:
			return color.RGBA64Model, nil
		}
		return color.RGBAModel, nil
	case Paletted:
		return c.Palette, nil
	case CMYK:
		return color.CMYKModel, nil
	case PhotometricUnknown:
		return nil, missingTag(tPhotometricInterpretation)
	}
	return nil, unsupported("color model " + c.Photometric.String())
}

// DecodeImage reads a TIFF image from r and returns it as an image.Image.
// The type of Image returned depends on the contents of the TIFF.
func DecodeImage(r io.Reader) (image.Image, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "tiff: read")
	}
	img, c, err := DecodeWithOptions(buf, nil)
	if err != nil {
		return nil, err
	}
	return ToImage(img, c)
}

// DecodeImageConfig returns the color model and dimensions of a TIFF image
// without decoding the entire image.
func DecodeImageConfig(r io.Reader) (image.Config, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, errors.Wrap(err, "tiff: read")
	}
	c, err := DecodeConfig(buf)
	if err != nil {
		return image.Config{}, err
	}
	m, err := colorModel(c)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: m, Width: int(c.Width), Height: int(c.Height)}, nil
}
