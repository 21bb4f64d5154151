package tiff

import (
	"encoding/binary"
	"sort"
)

// field is a tag for a handcrafted test file.
type field struct {
	tag  uint16
	typ  TagType
	vals []uint32
}

// fixture lays out a TIFF file: header, IFD at offset 8, out-of-line
// values, then the strips. StripOffsets and StripByteCounts are filled in
// from strips unless noStripTags is set.
type fixture struct {
	order       binary.ByteOrder
	magic       string
	version     uint16
	fields      []field
	strips      [][]byte
	noStripTags bool
}

func (f fixture) bytes() []byte {
	bo := f.order
	if bo == nil {
		bo = binary.LittleEndian
	}
	magic := f.magic
	if magic == "" {
		magic = "II"
		if bo == binary.BigEndian {
			magic = "MM"
		}
	}
	ver := f.version
	if ver == 0 {
		ver = 42
	}

	fields := append([]field(nil), f.fields...)
	offsets := make([]uint32, len(f.strips))
	counts := make([]uint32, len(f.strips))
	if !f.noStripTags {
		fields = append(fields,
			field{tStripOffsets, Long, offsets},
			field{tStripByteCounts, Long, counts})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].tag < fields[j].tag })

	size := func(fl field) int {
		n := len(fl.vals) * int(fl.typ.Size())
		if fl.typ == Rational {
			n /= 2
		}
		return n
	}
	parea := 0
	for _, fl := range fields {
		if n := size(fl); n > 4 {
			parea += n
		}
	}
	off := uint32(8 + 2 + 12*len(fields) + 4 + parea)
	for i, s := range f.strips {
		offsets[i] = off
		counts[i] = uint32(len(s))
		off += uint32(len(s))
	}

	put := func(p []byte, fl field) {
		for _, v := range fl.vals {
			switch fl.typ.Size() {
			case 1:
				p[0] = byte(v)
				p = p[1:]
			case 2:
				bo.PutUint16(p, uint16(v))
				p = p[2:]
			default:
				bo.PutUint32(p, v)
				p = p[4:]
			}
		}
	}

	ab := bo.(binary.AppendByteOrder)
	buf := []byte(magic)
	buf = ab.AppendUint16(buf, ver)
	buf = ab.AppendUint32(buf, 8)
	buf = ab.AppendUint16(buf, uint16(len(fields)))
	pstart := uint32(8 + 2 + 12*len(fields) + 4)
	var pbuf []byte
	for _, fl := range fields {
		count := uint32(len(fl.vals))
		if fl.typ == Rational {
			count /= 2
		}
		buf = ab.AppendUint16(buf, fl.tag)
		buf = ab.AppendUint16(buf, uint16(fl.typ))
		buf = ab.AppendUint32(buf, count)
		var v [4]byte
		if n := size(fl); n > 4 {
			bo.PutUint32(v[:], pstart+uint32(len(pbuf)))
			p := make([]byte, n)
			put(p, fl)
			pbuf = append(pbuf, p...)
		} else {
			put(v[:], fl)
		}
		buf = append(buf, v[:]...)
	}
	buf = ab.AppendUint32(buf, 0)
	buf = append(buf, pbuf...)
	for _, s := range f.strips {
		buf = append(buf, s...)
	}
	return buf
}

// grayFixture is an 8-bit BlackIsZero image split into strips of
// rowsPerStrip rows, stored uncompressed.
func grayFixture(width, height, rowsPerStrip int, pix []byte) fixture {
	f := fixture{fields: []field{
		{tImageWidth, Short, []uint32{uint32(width)}},
		{tImageLength, Short, []uint32{uint32(height)}},
		{tBitsPerSample, Short, []uint32{8}},
		{tCompression, Short, []uint32{1}},
		{tPhotometricInterpretation, Short, []uint32{1}},
		{tRowsPerStrip, Long, []uint32{uint32(rowsPerStrip)}},
	}}
	step := width * rowsPerStrip
	for off := 0; off < len(pix); off += step {
		f.strips = append(f.strips, pix[off:min(off+step, len(pix))])
	}
	return f
}

// ramp returns n bytes counting up from seed.
func ramp(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i*7)
	}
	return p
}
