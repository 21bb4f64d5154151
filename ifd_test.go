package tiff

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadHeaderErrors(t *testing.T) {
	good := grayFixture(1, 1, 1, []byte{128}).bytes()

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"empty", nil, ErrTruncatedInput},
		{"one byte", []byte("I"), ErrTruncatedInput},
		{"bad magic", append([]byte("XX"), good[2:]...), ErrBadMagic},
		{"mixed magic", append([]byte("IM"), good[2:]...), ErrBadMagic},
		{"bad version", fixture{version: 43}.bytes(), ErrBadVersion},
		{"short header", good[:6], ErrTruncatedInput},
		{"ifd past end", append(append([]byte(nil), good[:4]...), 0xff, 0xff, 0, 0), ErrTruncatedInput},
		{"entries past end", good[:20], ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadDirectory(tt.buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBadVersionValue(t *testing.T) {
	_, _, err := ReadDirectory(fixture{version: 0x2b}.bytes())
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, BadVersion, e.Kind)
	assert.Equal(t, uint32(0x2b), e.Value)
}

func TestReadDirectoryValues(t *testing.T) {
	for _, bo := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(bo.String(), func(t *testing.T) {
			buf := fixture{
				order: bo,
				fields: []field{
					{tImageWidth, Long, []uint32{70000}},
					{tBitsPerSample, Short, []uint32{8, 8, 8}},
					{tSoftware, ASCII, []uint32{'g', 'o', 0}},
					{tXResolution, Rational, []uint32{300, 1}},
					{tColorMap, Byte, []uint32{1, 2, 3, 4, 5}},
				},
				noStripTags: true,
			}.bytes()

			d, gotOrder, err := ReadDirectory(buf)
			require.NoError(t, err)
			assert.Equal(t, bo, gotOrder)
			require.Len(t, d.Entries, 5)
			assert.Zero(t, d.Next)

			w, ok := d.Lookup(tImageWidth)
			require.True(t, ok)
			assert.Equal(t, Inline, w.Location)
			assert.Equal(t, []uint32{70000}, w.Uints())

			bps, ok := d.Lookup(tBitsPerSample)
			require.True(t, ok)
			assert.Equal(t, AtOffset, bps.Location, "6 bytes do not fit in the entry")
			assert.Equal(t, []uint32{8, 8, 8}, bps.Uints())

			sw, _ := d.Lookup(tSoftware)
			assert.Equal(t, Inline, sw.Location)
			assert.Equal(t, "go", sw.String())

			res, _ := d.Lookup(tXResolution)
			assert.Equal(t, AtOffset, res.Location)
			assert.Equal(t, [][2]uint32{{300, 1}}, res.Rationals())
			assert.Nil(t, res.Uints())

			cm, _ := d.Lookup(tColorMap)
			assert.Equal(t, []uint32{1, 2, 3, 4, 5}, cm.Uints())

			_, ok = d.Lookup(tCompression)
			assert.False(t, ok)
		})
	}
}

func TestDuplicateTagLastWins(t *testing.T) {
	f := grayFixture(2, 1, 1, []byte{1, 2})
	f.fields = append(f.fields, field{tImageWidth, Short, []uint32{1}})
	d, _, err := ReadDirectory(f.bytes())
	require.NoError(t, err)

	// The fixture sorts stably, so the later ImageWidth entry comes second.
	assert.Equal(t, uint32(1), d.firstVal(tImageWidth, 0))
	n := 0
	for _, e := range d.Entries {
		if e.ID == tImageWidth {
			n++
		}
	}
	assert.Equal(t, 2, n, "both entries are kept in stored order")
}

func TestUnknownTypeIsKept(t *testing.T) {
	buf := fixture{fields: []field{{tImageWidth, Long, []uint32{1}}}, noStripTags: true}.bytes()
	// Patch the entry type to something undefined.
	binary.LittleEndian.PutUint16(buf[8+2+2:], 99)
	d, _, err := ReadDirectory(buf)
	require.NoError(t, err)
	e, ok := d.Lookup(tImageWidth)
	require.True(t, ok)
	assert.Equal(t, TagType(99), e.Type)
	assert.Equal(t, uint32(1), e.Count, "stored count is kept")
	assert.Nil(t, e.Uints())
	assert.Equal(t, "TagType(99)", e.Type.String())

	require.Len(t, e.Data, 4)
	assert.Equal(t, []byte{1, 0, 0, 0}, e.Data)
	buf[8+2+8] = 0xff
	assert.Equal(t, []byte{1, 0, 0, 0}, e.Data, "value does not alias the input")
}

func TestValueOffsetPastEnd(t *testing.T) {
	buf := fixture{fields: []field{{tBitsPerSample, Short, []uint32{8, 8, 8}}}, noStripTags: true}.bytes()
	binary.LittleEndian.PutUint32(buf[8+2+8:], 1<<20)
	_, _, err := ReadDirectory(buf)
	assert.True(t, errors.Is(err, ErrTruncatedInput), "got %v", err)
}

func TestHugeCount(t *testing.T) {
	buf := fixture{fields: []field{{tStripOffsets, Long, []uint32{8, 8}}}, noStripTags: true}.bytes()
	binary.LittleEndian.PutUint32(buf[8+2+4:], 1<<30)
	_, _, err := ReadDirectory(buf)
	assert.True(t, errors.Is(err, ErrTruncatedInput), "got %v", err)
}
