// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tiff implements a baseline TIFF image decoder and encoder
// working on in-memory buffers.
//
// Only the first image of a file is decoded. Strips may be uncompressed,
// PackBits or LZW compressed, with 8 or 16 bits per sample.
//
// TIFF 6.0 is published at http://partners.adobe.com/public/developer/en/tiff/TIFF6.pdf
package tiff

import (
	"image/color"

	"github.com/pkg/errors"
)

// Config describes the pixel format of a decoded RasterImage.
type Config struct {
	Width           uint32
	Height          uint32
	BitsPerSample   uint16
	SamplesPerPixel uint16
	Photometric     Photometric
	Compression     Compression
	Predictor       bool
	RowsPerStrip    uint32
	ExtraSamples    []uint16
	Palette         color.Palette
}

// BytesPerSample is 1 for 8-bit and 2 for 16-bit samples.
func (c Config) BytesPerSample() int { return int(c.BitsPerSample) / 8 }

// RasterSize is the length of the pixel buffer c describes.
func (c Config) RasterSize() int {
	return int(c.Width) * int(c.Height) * int(c.SamplesPerPixel) * c.BytesPerSample()
}

func (l *ImageLayout) config() Config {
	c := Config{
		Width:           l.Width,
		Height:          l.Height,
		BitsPerSample:   l.BitsPerSample[0],
		SamplesPerPixel: l.SamplesPerPixel,
		Photometric:     l.Photometric,
		Compression:     l.Compression,
		Predictor:       l.Predictor == prHorizontal,
		RowsPerStrip:    l.RowsPerStrip,
		ExtraSamples:    l.ExtraSamples,
	}
	if l.Palette != nil {
		c.Palette = make(color.Palette, len(l.Palette))
		for i, p := range l.Palette {
			c.Palette[i] = p
		}
	}
	return c
}

func readLayout(buf []byte) (*ImageLayout, error) {
	d, bo, err := ReadDirectory(buf)
	if err != nil {
		return nil, err
	}
	l, err := resolveLayout(d, bo)
	if err != nil {
		return nil, errors.Wrap(err, "first IFD")
	}
	return l, nil
}

// DecodeConfig returns the dimensions and pixel format of the image in buf
// without decoding its strips.
func DecodeConfig(buf []byte) (Config, error) {
	l, err := readLayout(buf)
	if err != nil {
		return Config{}, err
	}
	return l.config(), nil
}

// Decode decodes the first image in buf. The returned raster does not
// share memory with buf.
func Decode(buf []byte) (*RasterImage, error) {
	img, _, err := DecodeWithOptions(buf, nil)
	return img, err
}

// DecodeWithOptions is Decode with tuning options. It also returns the
// pixel format needed to interpret the raster.
func DecodeWithOptions(buf []byte, opts *DecodeOptions) (*RasterImage, Config, error) {
	l, err := readLayout(buf)
	if err != nil {
		return nil, Config{}, err
	}
	a := &assembler{
		buf:    buf,
		layout: l,
		dst:    make([]byte, l.rasterSize()),
	}
	if err := a.assemble(opts.workers()); err != nil {
		return nil, Config{}, err
	}
	return &RasterImage{Width: l.Width, Height: l.Height, Data: a.dst}, l.config(), nil
}
