// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"fmt"
	"slices"
)

// TIFF uses an LZW variant that differs from the GIF/PDF format handled by
// compress/lzw. Codes are packed MSB first, and the code width grows one
// code early: the decoder switches to the next width as soon as the next
// free code plus one reaches the current limit, i.e. after code 510, 1022
// and 2046 have been assigned. See section 13 (p. 57-62) of TIFF 6.0.

const (
	lzwClear     = 256
	lzwEOI       = 257
	lzwFirst     = 258
	lzwMinWidth  = 9
	lzwMaxWidth  = 12
	lzwTableSize = 1 << lzwMaxWidth
)

type lzwDecoder struct {
	src   []byte
	off   int    // Current offset in src.
	v     uint32 // Buffer value for reading with arbitrary bit depths.
	nbits uint   // Remaining number of bits in v.

	prefix [lzwTableSize]uint16
	suffix [lzwTableSize]byte
	length [lzwTableSize]uint16
}

// readBits reads n bits from the source starting at the current offset.
func (d *lzwDecoder) readBits(n uint) (v uint32, ok bool) {
	for d.nbits < n {
		d.v <<= 8
		if d.off >= len(d.src) {
			return 0, false
		}
		d.v |= uint32(d.src[d.off])
		d.off++
		d.nbits += 8
	}
	d.nbits -= n
	rv := d.v >> d.nbits
	d.v &^= rv << d.nbits
	return rv, true
}

// emit appends the string for code to dst and returns its first byte.
func (d *lzwDecoder) emit(dst []byte, code int) ([]byte, byte) {
	n := int(d.length[code])
	start := len(dst)
	dst = slices.Grow(dst, n)[:start+n]
	for i := start + n - 1; i >= start; i-- {
		dst[i] = d.suffix[code]
		code = int(d.prefix[code])
	}
	return dst, dst[start]
}

// lzwDecode expands a TIFF LZW strip. The stream must end with the
// end-of-information code, and may not expand past limit bytes.
func lzwDecode(src []byte, sizeHint, limit int) ([]byte, error) {
	d := &lzwDecoder{src: src}
	for i := 0; i < 256; i++ {
		d.suffix[i] = byte(i)
		d.length[i] = 1
	}

	dst := make([]byte, 0, sizeHint)
	width := uint(lzwMinWidth)
	next, prev := lzwFirst, -1
	for {
		c, ok := d.readBits(width)
		if !ok {
			return nil, formatErr(CorruptStrip, "lzw: missing end-of-information code")
		}
		code := int(c)

		var first byte
		switch {
		case code == lzwClear:
			width, next, prev = lzwMinWidth, lzwFirst, -1
			continue
		case code == lzwEOI:
			return dst, nil
		case prev == -1:
			if code > 0xff {
				return nil, formatErr(CorruptStrip, fmt.Sprintf("lzw: code %d follows clear code", code))
			}
			dst = append(dst, byte(code))
			prev = code
			continue
		case code < next:
			dst, first = d.emit(dst, code)
		case code == next:
			// The code is being defined by this very step: its string is
			// the previous string followed by that string's first byte.
			dst, first = d.emit(dst, prev)
			dst = append(dst, first)
		default:
			return nil, formatErr(CorruptStrip, fmt.Sprintf("lzw: invalid code %d, next free code is %d", code, next))
		}
		if len(dst) > limit {
			return nil, formatErr(StripSizeMismatch, fmt.Sprintf("lzw: strip expands past %d bytes", limit))
		}

		if next < lzwTableSize {
			d.prefix[next] = uint16(prev)
			d.suffix[next] = first
			d.length[next] = d.length[prev] + 1
			next++
		}
		if next+1 >= 1<<width && width < lzwMaxWidth {
			width++
		}
		prev = code
	}
}

// lzwWriter packs codes MSB first.
type lzwWriter struct {
	dst   []byte
	v     uint32
	nbits uint
}

func (w *lzwWriter) writeBits(code int, n uint) {
	w.v = w.v<<n | uint32(code)
	w.nbits += n
	for w.nbits >= 8 {
		w.nbits -= 8
		w.dst = append(w.dst, byte(w.v>>w.nbits))
	}
	w.v &= 1<<w.nbits - 1
}

func (w *lzwWriter) flush() []byte {
	if w.nbits > 0 {
		w.dst = append(w.dst, byte(w.v<<(8-w.nbits)))
		w.v, w.nbits = 0, 0
	}
	return w.dst
}

// lzwEncode compresses src with the same code-width schedule lzwDecode
// expects. The table is reset with a clear code once code 4093 is in use,
// matching libtiff's encoder.
func lzwEncode(src []byte) []byte {
	w := &lzwWriter{dst: make([]byte, 0, len(src)/2+4)}
	width := uint(lzwMinWidth)
	w.writeBits(lzwClear, width)
	if len(src) == 0 {
		w.writeBits(lzwEOI, width)
		return w.flush()
	}

	// Keys are prefix code<<8 | next byte.
	table := make(map[uint32]uint16, lzwTableSize)
	next := lzwFirst
	// bump accounts for one newly assigned code, resetting the table
	// when it is full.
	bump := func() {
		next++
		if next == lzwTableSize-2 {
			w.writeBits(lzwClear, width)
			clear(table)
			next, width = lzwFirst, lzwMinWidth
			return
		}
		if next >= 1<<width {
			width++
		}
	}

	prefix := int(src[0])
	for _, c := range src[1:] {
		key := uint32(prefix)<<8 | uint32(c)
		if code, ok := table[key]; ok {
			prefix = int(code)
			continue
		}
		w.writeBits(prefix, width)
		table[key] = uint16(next)
		bump()
		prefix = int(c)
	}
	w.writeBits(prefix, width)
	// The decoder defines one more code on reading the final one, which
	// may widen the end-of-information code.
	bump()
	w.writeBits(lzwEOI, width)
	return w.flush()
}
