// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"fmt"
)

// decompress expands one strip. size is the exact number of bytes the
// strip's rows occupy; limit is the most a compressed strip may expand to.
func decompress(c Compression, src []byte, size, limit int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(src) != size {
			return nil, formatErr(SizeMismatch, fmt.Sprintf("strip holds %d bytes, layout needs %d", len(src), size))
		}
		return append([]byte(nil), src...), nil
	case CompressionPackBits:
		return unpackBits(src, size)
	case CompressionLZW:
		return lzwDecode(src, size, limit)
	}
	return nil, &Error{Kind: UnsupportedCompression, Value: uint32(c)}
}

// compress is the inverse of decompress for the schemes the encoder writes.
// PackBits runs never cross a row boundary.
func compress(c Compression, src []byte, rowBytes int) ([]byte, error) {
	switch c {
	case CompressionNone:
		return src, nil
	case CompressionPackBits:
		dst := make([]byte, 0, len(src)+len(src)/128+1)
		for off := 0; off < len(src); off += rowBytes {
			dst = packBits(dst, src[off:min(off+rowBytes, len(src))])
		}
		return dst, nil
	case CompressionLZW:
		return lzwEncode(src), nil
	}
	return nil, &Error{Kind: UnsupportedCompression, Value: uint32(c)}
}

// unpackBits decodes the PackBits-compressed data in src and returns at
// most size bytes of uncompressed data.
//
// The PackBits compression format is described in section 9 (p. 42)
// of TIFF 6.0.
func unpackBits(src []byte, size int) ([]byte, error) {
	dst := make([]byte, 0, size)
	for i := 0; i < len(src) && len(dst) < size; {
		code := int(int8(src[i]))
		i++
		switch {
		case code >= 0:
			n := code + 1
			if n > len(src)-i {
				return nil, formatErr(CorruptStrip, "packbits literal run past end of strip")
			}
			dst = append(dst, src[i:i+n]...)
			i += n
		case code == -128:
			// No-op.
		default:
			if i >= len(src) {
				return nil, formatErr(CorruptStrip, "packbits repeat run past end of strip")
			}
			b := src[i]
			i++
			for j := 0; j < 1-code; j++ {
				dst = append(dst, b)
			}
		}
	}
	if len(dst) > size {
		dst = dst[:size]
	}
	return dst, nil
}

// packBits appends the PackBits encoding of src to dst. Runs of two or
// more equal bytes are replicated, everything else goes out as literals.
func packBits(dst, src []byte) []byte {
	for i := 0; i < len(src); {
		j := i + 1
		for j < len(src) && src[j] == src[i] && j-i < 128 {
			j++
		}
		if j-i >= 2 {
			dst = append(dst, byte(257-(j-i)), src[i])
			i = j
			continue
		}

		// Extend the literal up to the start of the next run of three.
		j = i
		for j < len(src) && j-i < 128 {
			if j+2 < len(src) && src[j] == src[j+1] && src[j] == src[j+2] {
				break
			}
			j++
		}
		dst = append(dst, byte(j-i-1))
		dst = append(dst, src[i:j]...)
		i = j
	}
	return dst
}

// undoPredictor reverses horizontal differencing in place: each sample
// holds the difference to the same sample of the preceding pixel.
// See page 64-65 of TIFF 6.0.
func undoPredictor(buf []byte, rowBytes, spp, bytesPerSample int, bo binary.ByteOrder) {
	if rowBytes == 0 {
		return
	}
	for off := 0; off+rowBytes <= len(buf); off += rowBytes {
		row := buf[off : off+rowBytes]
		switch bytesPerSample {
		case 1:
			for x := spp; x < len(row); x++ {
				row[x] += row[x-spp]
			}
		case 2:
			n := 2 * spp
			for x := n; x+2 <= len(row); x += 2 {
				v0 := bo.Uint16(row[x-n : x-n+2])
				v1 := bo.Uint16(row[x : x+2])
				bo.PutUint16(row[x:x+2], v1+v0)
			}
		}
	}
}

// applyPredictor is the encoder side of undoPredictor. It walks each row
// backwards so that every difference is taken against unmodified samples.
func applyPredictor(buf []byte, rowBytes, spp, bytesPerSample int, bo binary.ByteOrder) {
	if rowBytes == 0 {
		return
	}
	for off := 0; off+rowBytes <= len(buf); off += rowBytes {
		row := buf[off : off+rowBytes]
		switch bytesPerSample {
		case 1:
			for x := len(row) - 1; x >= spp; x-- {
				row[x] -= row[x-spp]
			}
		case 2:
			n := 2 * spp
			for x := len(row) - 2; x >= n; x -= 2 {
				v0 := bo.Uint16(row[x-n : x-n+2])
				v1 := bo.Uint16(row[x : x+2])
				bo.PutUint16(row[x:x+2], v1-v0)
			}
		}
	}
}

// swap16 reverses the byte order of every 16-bit sample in buf.
func swap16(buf []byte) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = buf[i+1], buf[i]
	}
}
