// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/pkg/errors"
)

var enc = binary.LittleEndian

// EncodeOptions are the encoding parameters.
// A nil *EncodeOptions means DefaultEncodeOptions(). Otherwise every field
// is taken as given, except that a zero BitsPerSample, SamplesPerPixel or
// Compression selects 8, 1 and no compression respectively.
type EncodeOptions struct {
	Compression     Compression
	Photometric     Photometric
	BitsPerSample   uint16
	SamplesPerPixel uint16
	// RowsPerStrip splits the raster into strips; 0 writes a single strip.
	RowsPerStrip uint32
	// Predictor applies horizontal differencing before compression.
	Predictor bool
	// ExtraSamples describes the samples beyond the color channels. When
	// nil, a single extra sample is marked as unassociated alpha.
	ExtraSamples []uint16
	// Palette is required for Paletted images and holds 1<<BitsPerSample
	// entries at most; missing entries are written as black.
	Palette color.Palette
}

// DefaultEncodeOptions returns the baseline format: 8-bit BlackIsZero
// grayscale in one uncompressed strip.
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Compression:     CompressionNone,
		Photometric:     BlackIsZero,
		BitsPerSample:   8,
		SamplesPerPixel: 1,
	}
}

func (o *EncodeOptions) resolve() (EncodeOptions, error) {
	if o == nil {
		o = DefaultEncodeOptions()
	}
	r := *o
	if r.BitsPerSample == 0 {
		r.BitsPerSample = 8
	}
	if r.SamplesPerPixel == 0 {
		r.SamplesPerPixel = 1
	}
	if r.Compression == 0 {
		r.Compression = CompressionNone
	}
	switch r.Compression {
	case CompressionNone, CompressionPackBits, CompressionLZW:
	default:
		return r, &Error{Kind: UnsupportedCompression, Value: uint32(r.Compression)}
	}
	if r.BitsPerSample != 8 && r.BitsPerSample != 16 {
		return r, &Error{Kind: UnsupportedBitsPerSample, Value: uint32(r.BitsPerSample)}
	}
	if r.Photometric == PhotometricUnknown {
		return r, missingTag(tPhotometricInterpretation)
	}
	if r.Photometric == Paletted {
		if r.SamplesPerPixel != 1 {
			return r, unsupported("palette images have one sample per pixel")
		}
		if len(r.Palette) == 0 || len(r.Palette) > 1<<r.BitsPerSample {
			return r, &Error{Kind: MissingRequiredTag, Tag: tColorMap, Msg: "bad palette length"}
		}
	}
	return r, nil
}

type ifdEntry struct {
	tag      uint16
	datatype TagType
	data     []uint32
}

func (e ifdEntry) putData(p []byte) {
	for _, d := range e.data {
		switch e.datatype {
		case Byte, ASCII:
			p[0] = byte(d)
			p = p[1:]
		case Short:
			enc.PutUint16(p, uint16(d))
			p = p[2:]
		case Long, Rational:
			enc.PutUint32(p, d)
			p = p[4:]
		}
	}
}

func (e ifdEntry) count() uint32 {
	n := uint32(len(e.data))
	if e.datatype == Rational {
		n /= 2
	}
	return n
}

type byTag []ifdEntry

func (d byTag) Len() int           { return len(d) }
func (d byTag) Less(i, j int) bool { return d[i].tag < d[j].tag }
func (d byTag) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

// Encode writes img as a little-endian TIFF file with the IFD directly
// after the header, followed by the out-of-line tag values and the strips.
func Encode(img *RasterImage, opts *EncodeOptions) ([]byte, error) {
	if img == nil {
		return nil, formatErr(SizeMismatch, "nil raster")
	}
	o, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	bytesPerSample := int(o.BitsPerSample) / 8
	rowBytes := int(img.Width) * int(o.SamplesPerPixel) * bytesPerSample
	if want := uint64(rowBytes) * uint64(img.Height); uint64(len(img.Data)) != want {
		return nil, formatErr(SizeMismatch, fmt.Sprintf("raster holds %d bytes, %dx%d image needs %d", len(img.Data), img.Width, img.Height, want))
	}

	rowsPerStrip := o.RowsPerStrip
	if rowsPerStrip == 0 || rowsPerStrip > img.Height {
		rowsPerStrip = max(img.Height, 1)
	}
	numStrips := int((uint64(img.Height) + uint64(rowsPerStrip) - 1) / uint64(rowsPerStrip))
	if numStrips == 0 {
		// An empty image still gets one (empty) strip.
		numStrips = 1
	}

	strips := make([][]byte, numStrips)
	stripBytes := int(rowsPerStrip) * rowBytes
	for i := range strips {
		start := min(i*stripBytes, len(img.Data))
		end := min(start+stripBytes, len(img.Data))
		p := img.Data[start:end]
		if o.Predictor {
			p = append([]byte(nil), p...)
			applyPredictor(p, rowBytes, int(o.SamplesPerPixel), bytesPerSample, enc)
		}
		if strips[i], err = compress(o.Compression, p, rowBytes); err != nil {
			return nil, errors.Wrapf(err, "strip %d", i)
		}
	}

	bps := make([]uint32, o.SamplesPerPixel)
	for i := range bps {
		bps[i] = uint32(o.BitsPerSample)
	}
	offsets := make([]uint32, numStrips)
	counts := make([]uint32, numStrips)
	for i, s := range strips {
		if uint64(len(s)) > math.MaxUint32 {
			return nil, tooLarge(uint64(len(s)))
		}
		counts[i] = uint32(len(s))
	}

	ifd := []ifdEntry{
		{tImageWidth, Long, []uint32{img.Width}},
		{tImageLength, Long, []uint32{img.Height}},
		{tBitsPerSample, Short, bps},
		{tCompression, Short, []uint32{uint32(o.Compression)}},
		{tPhotometricInterpretation, Short, []uint32{uint32(o.Photometric)}},
		{tStripOffsets, Long, offsets},
		{tSamplesPerPixel, Short, []uint32{uint32(o.SamplesPerPixel)}},
		{tRowsPerStrip, Long, []uint32{rowsPerStrip}},
		{tStripByteCounts, Long, counts},
		// There is no support for non-square pixels, so use the default of 72 dpi.
		{tXResolution, Rational, []uint32{72, 1}},
		{tYResolution, Rational, []uint32{72, 1}},
		{tPlanarConfiguration, Short, []uint32{pcChunky}},
		{tResolutionUnit, Short, []uint32{2}}, // Inch.
	}
	if o.Predictor {
		ifd = append(ifd, ifdEntry{tPredictor, Short, []uint32{prHorizontal}})
	}
	if o.Photometric == Paletted {
		ifd = append(ifd, ifdEntry{tColorMap, Short, colorMap(o.Palette, 1<<o.BitsPerSample)})
	}
	if extra := extraSamples(o.Photometric, o.SamplesPerPixel, o.ExtraSamples); extra != nil {
		ifd = append(ifd, ifdEntry{tExtraSamples, Short, extra})
	}
	// The IFD has to be written with the tags in ascending order.
	sort.Sort(byTag(ifd))

	// Size the pointer area first: it decides where the strips start.
	ifdSize := 2 + ifdLen*len(ifd) + 4
	parea := 0
	for _, e := range ifd {
		if n := int(e.count() * e.datatype.Size()); n > 4 {
			parea += n + n%2
		}
	}
	total, err := placeStrips(headerLen+ifdSize+parea, counts, offsets)
	if err != nil {
		return nil, err
	}

	w := newByteWriter(enc, total)
	w.write([]byte(leHeader))
	w.u32(headerLen)
	writeIFD(w, headerLen, ifd)
	for _, s := range strips {
		w.write(s)
	}
	return w.bytes(), nil
}

// placeStrips fills in the offset of each strip when the strips follow
// start back to back, and returns the resulting file size. Offsets are
// 32-bit, so the whole file has to stay below 4 GiB.
func placeStrips(start int, counts, offsets []uint32) (int, error) {
	end := uint64(start)
	for i, n := range counts {
		offsets[i] = uint32(end)
		end += uint64(n)
	}
	if end > math.MaxUint32 {
		return 0, tooLarge(end)
	}
	return int(end), nil
}

func tooLarge(n uint64) error {
	return unsupported(fmt.Sprintf("%d bytes do not fit 32-bit offsets", n))
}

// writeIFD writes the directory at ifdOffset followed by the "pointer area"
// containing IFD entry data longer than 4 bytes.
func writeIFD(w *byteWriter, ifdOffset int, d []ifdEntry) {
	var buf [ifdLen]byte
	var parea []byte
	pstart := ifdOffset + ifdLen*len(d) + 6

	w.u16(uint16(len(d)))
	for _, ent := range d {
		clear(buf[:])
		enc.PutUint16(buf[0:2], ent.tag)
		enc.PutUint16(buf[2:4], uint16(ent.datatype))
		count := ent.count()
		enc.PutUint32(buf[4:8], count)
		datalen := int(count * ent.datatype.Size())
		if datalen <= 4 {
			ent.putData(buf[8:12])
		} else {
			enc.PutUint32(buf[8:12], uint32(pstart+len(parea)))
			p := make([]byte, datalen+datalen%2)
			ent.putData(p)
			parea = append(parea, p...)
		}
		w.write(buf[:])
	}
	// The IFD ends with the offset of the next IFD in the file,
	// or zero if it is the last one (page 14).
	w.u32(0)
	w.write(parea)
}

// colorMap lays out the palette as the ColorMap tag wants it: all reds,
// then all greens, then all blues.
func colorMap(p color.Palette, n int) []uint32 {
	m := make([]uint32, 3*n)
	for i, c := range p {
		r, g, b, _ := c.RGBA()
		m[i+0*n] = r
		m[i+1*n] = g
		m[i+2*n] = b
	}
	return m
}

// extraSamples returns the ExtraSamples tag for the samples that follow
// the color channels, or nil if there are none.
func extraSamples(p Photometric, spp uint16, given []uint16) []uint32 {
	var nc uint16
	switch p {
	case WhiteIsZero, BlackIsZero, Paletted:
		nc = 1
	case RGB:
		nc = 3
	case CMYK:
		nc = 4
	default:
		return nil
	}
	if spp <= nc {
		return nil
	}
	extra := make([]uint32, spp-nc)
	if given == nil {
		extra[0] = esUnassociated
	}
	for i := 0; i < len(extra) && i < len(given); i++ {
		extra[i] = uint32(given[i])
	}
	return extra
}
