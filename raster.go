// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RasterImage is a decoded image: Width*Height pixels of interleaved
// samples, rows top to bottom. 16-bit samples are little-endian.
type RasterImage struct {
	Width  uint32
	Height uint32
	Data   []byte
}

// assembler decompresses the strips of one layout into a single buffer.
type assembler struct {
	buf    []byte
	layout *ImageLayout
	dst    []byte
}

// decodeStrip expands strip i and copies its rows into place.
func (a *assembler) decodeStrip(i int) error {
	l := a.layout
	rowBytes := l.RowBytes()
	rows := l.stripRows(i)
	size := rows * rowBytes

	r := newByteReader(a.buf, l.ByteOrder)
	raw, err := r.slice(uint64(l.StripOffsets[i]), uint64(l.StripByteCounts[i]))
	if err != nil {
		return err
	}
	// A compressed final strip may be padded to a full RowsPerStrip.
	limit := int(l.RowsPerStrip) * rowBytes
	p, err := decompress(l.Compression, raw, size, limit)
	if err != nil {
		return err
	}
	switch {
	case len(p) < size:
		return formatErr(StripSizeMismatch, fmt.Sprintf("strip has %d bytes, want %d", len(p), size))
	case len(p) > size && (i != len(l.StripOffsets)-1 || len(p) > limit):
		return formatErr(StripSizeMismatch, fmt.Sprintf("strip has %d bytes, want %d", len(p), size))
	}
	p = p[:size]

	if l.Predictor == prHorizontal {
		undoPredictor(p, rowBytes, int(l.SamplesPerPixel), l.BytesPerSample(), l.ByteOrder)
	}
	if l.BytesPerSample() == 2 && l.ByteOrder == binary.BigEndian {
		swap16(p)
	}

	off := i * int(l.RowsPerStrip) * rowBytes
	copy(a.dst[off:off+size], p)
	return nil
}

// assemble runs decodeStrip for every strip. With more than one worker,
// strips are expanded concurrently; each writes a disjoint range of dst,
// so row order does not depend on scheduling. The error reported is the
// one of the lowest failing strip.
func (a *assembler) assemble(workers int) error {
	n := len(a.layout.StripOffsets)
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := a.decodeStrip(i); err != nil {
				return errors.Wrapf(err, "strip %d", i)
			}
		}
		return nil
	}

	errs := make([]error, n)
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i // per-iteration copy (go1.22+ loop semantics under go 1.21)
		g.Go(func() error {
			errs[i] = a.decodeStrip(i)
			return nil
		})
	}
	g.Wait()
	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "strip %d", i)
		}
	}
	return nil
}

// DecodeOptions tunes decoding. The zero value is ready to use.
type DecodeOptions struct {
	// Concurrency bounds the number of strips expanded at once.
	// Zero means runtime.GOMAXPROCS(0); 1 decodes sequentially.
	Concurrency int
}

func (o *DecodeOptions) workers() int {
	if o == nil || o.Concurrency <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Concurrency
}
