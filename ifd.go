// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import (
	"encoding/binary"
	"math"
)

// ValueLocation tells where the value of an IFD entry was stored.
type ValueLocation uint8

const (
	// Inline values fit in the 4-byte value field of the entry.
	Inline ValueLocation = iota
	// AtOffset values live elsewhere in the file; the entry's value
	// field holds their offset.
	AtOffset
)

// A TagEntry is one parsed IFD entry. The value is always resolved at
// parse time: Data holds Count values of Type in the file's byte order,
// whether they were stored inline or at Offset.
type TagEntry struct {
	ID       uint16
	Type     TagType
	Count    uint32
	Location ValueLocation
	Offset   uint32 // Only meaningful when Location == AtOffset.
	Data     []byte

	bo binary.ByteOrder
}

// Uints decodes a BYTE, UNDEFINED, SHORT or LONG entry.
// It returns nil for any other type, including unknown ones whose Data is
// only the raw 4-byte value field.
func (e *TagEntry) Uints() []uint32 {
	var u []uint32
	switch e.Type {
	case Byte, Undefined:
		u = make([]uint32, e.Count)
		for i := range u {
			u[i] = uint32(e.Data[i])
		}
	case Short:
		u = make([]uint32, e.Count)
		for i := range u {
			u[i] = uint32(e.bo.Uint16(e.Data[2*i : 2*(i+1)]))
		}
	case Long:
		u = make([]uint32, e.Count)
		for i := range u {
			u[i] = e.bo.Uint32(e.Data[4*i : 4*(i+1)])
		}
	}
	return u
}

// Rationals decodes a RATIONAL entry into numerator/denominator pairs.
func (e *TagEntry) Rationals() [][2]uint32 {
	if e.Type != Rational {
		return nil
	}
	r := make([][2]uint32, e.Count)
	for i := range r {
		p := e.Data[8*i : 8*(i+1)]
		r[i] = [2]uint32{e.bo.Uint32(p[0:4]), e.bo.Uint32(p[4:8])}
	}
	return r
}

// String returns the text of an ASCII entry up to the first NUL.
func (e *TagEntry) String() string {
	if e.Type != ASCII {
		return ""
	}
	for i, c := range e.Data {
		if c == 0 {
			return string(e.Data[:i])
		}
	}
	return string(e.Data)
}

// A TagDirectory holds the entries of one IFD in stored order.
type TagDirectory struct {
	Entries []TagEntry
	// Next is the offset of the following IFD, 0 if there is none.
	// Only the first directory is decoded.
	Next uint32

	index map[uint16]int
}

// Lookup returns the entry with the given tag id. When a file repeats a
// tag, the last occurrence wins.
func (d *TagDirectory) Lookup(id uint16) (*TagEntry, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return &d.Entries[i], true
}

// uints returns the integer values of tag id, or nil if the tag does not
// exist or has a non-integer type.
func (d *TagDirectory) uints(id uint16) []uint32 {
	e, ok := d.Lookup(id)
	if !ok {
		return nil
	}
	return e.Uints()
}

// firstVal returns the first value of the entry with the given tag,
// or def if the tag does not exist.
func (d *TagDirectory) firstVal(id uint16, def uint32) uint32 {
	u := d.uints(id)
	if len(u) == 0 {
		return def
	}
	return u[0]
}

// readHeader checks the 8-byte file header and returns the byte order and
// the offset of the first IFD.
func readHeader(buf []byte) (binary.ByteOrder, uint32, error) {
	if len(buf) < 2 {
		return nil, 0, formatErr(TruncatedInput, "missing header")
	}
	var bo binary.ByteOrder
	switch string(buf[0:2]) {
	case leHeader[0:2]:
		bo = binary.LittleEndian
	case beHeader[0:2]:
		bo = binary.BigEndian
	default:
		return nil, 0, formatErr(BadMagic, "malformed header")
	}
	r := newByteReader(buf, bo)
	v, err := r.u16At(2)
	if err != nil {
		return nil, 0, err
	}
	if v != version {
		return nil, 0, &Error{Kind: BadVersion, Value: uint32(v)}
	}
	off, err := r.u32At(4)
	if err != nil {
		return nil, 0, err
	}
	return bo, off, nil
}

// ReadDirectory parses the header and the first IFD of buf without
// interpreting any tag.
func ReadDirectory(buf []byte) (*TagDirectory, binary.ByteOrder, error) {
	bo, off, err := readHeader(buf)
	if err != nil {
		return nil, nil, err
	}
	d, err := parseDirectory(newByteReader(buf, bo), off)
	if err != nil {
		return nil, nil, err
	}
	return d, bo, nil
}

func parseDirectory(r *byteReader, ifdOffset uint32) (*TagDirectory, error) {
	r.seek(int(ifdOffset))
	if uint64(ifdOffset) > uint64(len(r.buf)) {
		return nil, formatErr(TruncatedInput, "IFD offset past end of buffer")
	}

	// The first two bytes contain the number of entries (12 bytes each).
	numItems, err := r.u16()
	if err != nil {
		return nil, err
	}

	// All IFD entries are read in one chunk.
	p, err := r.next(ifdLen * int(numItems))
	if err != nil {
		return nil, err
	}

	d := &TagDirectory{
		Entries: make([]TagEntry, 0, numItems),
		index:   make(map[uint16]int, numItems),
	}
	for i := 0; i < len(p); i += ifdLen {
		e, err := parseEntry(r, p[i:i+ifdLen])
		if err != nil {
			return nil, err
		}
		d.index[e.ID] = len(d.Entries)
		d.Entries = append(d.Entries, e)
	}

	// A missing next-IFD pointer is tolerated: only this directory is used.
	if next, err := r.u32(); err == nil {
		d.Next = next
	}
	return d, nil
}

// parseEntry decodes the 12-byte IFD entry in p, following the value
// offset when the data does not fit in the entry itself.
func parseEntry(r *byteReader, p []byte) (TagEntry, error) {
	e := TagEntry{
		ID:    r.bo.Uint16(p[0:2]),
		Type:  TagType(r.bo.Uint16(p[2:4])),
		Count: r.bo.Uint32(p[4:8]),
		bo:    r.bo,
	}

	size := e.Type.Size()
	if size == 0 {
		// Unknown data type: keep a copy of the raw field, there is nothing
		// to decode.
		e.Data = append([]byte(nil), p[8:12]...)
		return e, nil
	}
	datalen := uint64(size) * uint64(e.Count)
	if datalen > math.MaxInt32 || datalen > uint64(len(r.buf)) {
		return TagEntry{}, formatErr(TruncatedInput, "IFD data too large")
	}

	if datalen > 4 {
		// The IFD contains a pointer to the real value.
		e.Location = AtOffset
		e.Offset = r.bo.Uint32(p[8:12])
		raw, err := r.slice(uint64(e.Offset), datalen)
		if err != nil {
			return TagEntry{}, err
		}
		e.Data = append([]byte(nil), raw...)
	} else {
		e.Location = Inline
		e.Data = append([]byte(nil), p[8:8+datalen]...)
	}
	return e, nil
}
