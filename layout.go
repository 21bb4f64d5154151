// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"
)

// ImageLayout is the concrete raster layout described by a directory.
// len(StripOffsets) and len(StripByteCounts) always equal NumStrips().
type ImageLayout struct {
	Width           uint32
	Height          uint32
	BitsPerSample   []uint16
	SamplesPerPixel uint16
	Compression     Compression
	Photometric     Photometric
	Predictor       uint16
	RowsPerStrip    uint32
	StripOffsets    []uint32
	StripByteCounts []uint32
	ExtraSamples    []uint16
	Palette         []color.RGBA64
	ByteOrder       binary.ByteOrder
}

// BytesPerSample is 1 or 2; all channels share one depth.
func (l *ImageLayout) BytesPerSample() int {
	return int(l.BitsPerSample[0]) / 8
}

// RowBytes is the length in bytes of one uncompressed row.
func (l *ImageLayout) RowBytes() int {
	return int(l.Width) * int(l.SamplesPerPixel) * l.BytesPerSample()
}

// NumStrips is ceil(Height / RowsPerStrip).
func (l *ImageLayout) NumStrips() int {
	if l.Height == 0 {
		return 0
	}
	return int((uint64(l.Height) + uint64(l.RowsPerStrip) - 1) / uint64(l.RowsPerStrip))
}

// stripRows returns the number of image rows covered by strip i.
func (l *ImageLayout) stripRows(i int) int {
	start := uint64(i) * uint64(l.RowsPerStrip)
	return int(min(uint64(l.RowsPerStrip), uint64(l.Height)-start))
}

// rasterSize is the length of the assembled pixel buffer.
func (l *ImageLayout) rasterSize() int {
	return l.RowBytes() * int(l.Height)
}

// maxRasterSize bounds the allocation a header may ask for.
const maxRasterSize = 1 << 31

// resolveLayout interprets the tags of d. See p. 17-24 of TIFF 6.0 for the
// baseline required fields.
func resolveLayout(d *TagDirectory, bo binary.ByteOrder) (*ImageLayout, error) {
	if _, ok := d.Lookup(tTileWidth); ok {
		return nil, unsupported("tiled images")
	}
	for _, id := range []uint16{tImageWidth, tImageLength, tStripOffsets, tStripByteCounts} {
		if len(d.uints(id)) == 0 {
			return nil, missingTag(id)
		}
	}

	// SHORT fields may be stored as LONG, so check the full value before
	// narrowing it.
	spp := d.firstVal(tSamplesPerPixel, 1)
	comp := d.firstVal(tCompression, uint32(CompressionNone))
	pred := d.firstVal(tPredictor, prNone)
	switch {
	case spp == 0:
		return nil, unsupported("SamplesPerPixel of 0")
	case spp > math.MaxUint16:
		return nil, unsupported(fmt.Sprintf("SamplesPerPixel of %d", spp))
	}

	// According to TIFF 6.0, Compression does not have a default value,
	// but some tools interpret a missing Compression value as none so we do
	// the same.
	switch comp {
	case 0:
		comp = uint32(CompressionNone)
	case uint32(CompressionNone), uint32(CompressionLZW), uint32(CompressionPackBits):
	default:
		return nil, &Error{Kind: UnsupportedCompression, Value: comp}
	}
	switch pred {
	case prNone, prHorizontal:
	default:
		return nil, unsupported(fmt.Sprintf("predictor %d", pred))
	}

	l := &ImageLayout{
		Width:           d.firstVal(tImageWidth, 0),
		Height:          d.firstVal(tImageLength, 0),
		SamplesPerPixel: uint16(spp),
		Compression:     Compression(comp),
		Predictor:       uint16(pred),
		RowsPerStrip:    d.firstVal(tRowsPerStrip, 0),
		ByteOrder:       bo,
	}

	if err := l.resolveBitsPerSample(d.uints(tBitsPerSample)); err != nil {
		return nil, err
	}

	if d.firstVal(tPlanarConfiguration, pcChunky) != pcChunky {
		return nil, unsupported("planar configuration")
	}
	// Page 27 of TIFF 6.0: If the SampleFormat is present and
	// the value is not 1 [= unsigned integer data], a Baseline
	// TIFF reader that cannot handle the SampleFormat value
	// must terminate the import process gracefully.
	for _, v := range d.uints(tSampleFormat) {
		if v != sfUint {
			return nil, unsupported("sample format")
		}
	}
	for _, v := range d.uints(tExtraSamples) {
		l.ExtraSamples = append(l.ExtraSamples, uint16(v))
	}

	if err := l.resolvePhotometric(d); err != nil {
		return nil, err
	}

	if uint64(l.RowBytes())*uint64(l.Height) > maxRasterSize {
		return nil, unsupported("image too large")
	}

	if l.RowsPerStrip == 0 || l.RowsPerStrip > l.Height {
		l.RowsPerStrip = l.Height
	}

	offsets, counts := d.uints(tStripOffsets), d.uints(tStripByteCounts)
	n := l.NumStrips()
	if len(offsets) != len(counts) {
		return nil, formatErr(StripSizeMismatch, "StripOffsets and StripByteCounts differ in length")
	}
	// Check if we have the right number of strips, offsets and counts.
	if len(offsets) < n {
		return nil, formatErr(StripSizeMismatch, fmt.Sprintf("%d strips listed, %d needed", len(offsets), n))
	}
	l.StripOffsets = offsets[:n]
	l.StripByteCounts = counts[:n]
	return l, nil
}

func (l *ImageLayout) resolveBitsPerSample(bps []uint32) error {
	switch len(bps) {
	case 0:
		bps = []uint32{8}
		fallthrough
	case 1:
		// A single value applies to every sample.
		v := bps[0]
		bps = make([]uint32, l.SamplesPerPixel)
		for i := range bps {
			bps[i] = v
		}
	case int(l.SamplesPerPixel):
	default:
		return &Error{Kind: UnsupportedBitsPerSample, Value: bps[0],
			Msg: fmt.Sprintf("%d values for %d samples", len(bps), l.SamplesPerPixel)}
	}
	l.BitsPerSample = make([]uint16, len(bps))
	for i, v := range bps {
		switch {
		case v != 8 && v != 16:
			return &Error{Kind: UnsupportedBitsPerSample, Value: v}
		case v != bps[0]:
			return &Error{Kind: UnsupportedBitsPerSample, Value: v, Msg: "mixed sample depths"}
		}
		l.BitsPerSample[i] = uint16(v)
	}
	return nil
}

// resolvePhotometric reads the interpretation, inferring it only where a
// single reading is possible. A Palette image also needs its ColorMap.
func (l *ImageLayout) resolvePhotometric(d *TagDirectory) error {
	l.Photometric = PhotometricUnknown
	if v := d.uints(tPhotometricInterpretation); len(v) > 0 {
		l.Photometric = Photometric(v[0])
	} else if l.SamplesPerPixel == 3 {
		l.Photometric = RGB
	}
	if l.Photometric != Paletted {
		return nil
	}

	val := d.uints(tColorMap)
	numcolors := 1 << l.BitsPerSample[0]
	if len(val) != 3*numcolors {
		return &Error{Kind: MissingRequiredTag, Tag: tColorMap, Msg: "bad ColorMap length"}
	}
	l.Palette = make([]color.RGBA64, numcolors)
	for i := 0; i < numcolors; i++ {
		l.Palette[i] = color.RGBA64{
			uint16(val[i]),
			uint16(val[i+numcolors]),
			uint16(val[i+2*numcolors]),
			0xffff,
		}
	}
	return nil
}
