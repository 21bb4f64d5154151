// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"math"
)

// byteReader is a bounds-checked cursor over an in-memory TIFF file.
// Every read either succeeds completely or fails with TruncatedInput.
type byteReader struct {
	buf []byte
	bo  binary.ByteOrder
	off int
}

func newByteReader(buf []byte, bo binary.ByteOrder) *byteReader {
	return &byteReader{buf: buf, bo: bo}
}

// slice returns n bytes at off without copying.
func (r *byteReader) slice(off, n uint64) ([]byte, error) {
	if n > math.MaxInt32 || off > uint64(len(r.buf)) || n > uint64(len(r.buf))-off {
		return nil, formatErr(TruncatedInput, "read past end of buffer")
	}
	return r.buf[off : off+n], nil
}

func (r *byteReader) u16At(off uint64) (uint16, error) {
	p, err := r.slice(off, 2)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint16(p), nil
}

func (r *byteReader) u32At(off uint64) (uint32, error) {
	p, err := r.slice(off, 4)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint32(p), nil
}

func (r *byteReader) seek(off int) { r.off = off }

func (r *byteReader) u16() (uint16, error) {
	v, err := r.u16At(uint64(r.off))
	if err == nil {
		r.off += 2
	}
	return v, err
}

func (r *byteReader) u32() (uint32, error) {
	v, err := r.u32At(uint64(r.off))
	if err == nil {
		r.off += 4
	}
	return v, err
}

func (r *byteReader) next(n int) ([]byte, error) {
	p, err := r.slice(uint64(r.off), uint64(n))
	if err == nil {
		r.off += n
	}
	return p, err
}

// byteWriter appends values in a fixed byte order to a growing buffer.
type byteWriter struct {
	buf []byte
	bo  binary.ByteOrder
}

func newByteWriter(bo binary.ByteOrder, sizeHint int) *byteWriter {
	return &byteWriter{buf: make([]byte, 0, sizeHint), bo: bo}
}

func (w *byteWriter) bytes() []byte { return w.buf }

func (w *byteWriter) write(p []byte) { w.buf = append(w.buf, p...) }

func (w *byteWriter) u16(v uint16) {
	var p [2]byte
	w.bo.PutUint16(p[:], v)
	w.buf = append(w.buf, p[:]...)
}

func (w *byteWriter) u32(v uint32) {
	var p [4]byte
	w.bo.PutUint32(p[:], v)
	w.buf = append(w.buf, p[:]...)
}
