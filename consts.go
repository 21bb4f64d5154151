// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import "strconv"

// A tiff image file contains one or more images. The metadata
// of each image is contained in an Image File Directory (IFD),
// which contains entries of 12 bytes each and is described
// on page 14-16 of TIFF 6.0. An IFD entry consists of
//
//  - a tag, which describes the signification of the entry,
//  - the data type and length of the entry,
//  - the data itself or a pointer to it if it is more than 4 bytes.
//
// The presence of a length means that each IFD is effectively an array.

const (
	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	headerLen = 8
	version   = 42
	ifdLen    = 12 // Length of an IFD entry in bytes.
)

// TagType is the data type of an IFD entry (p. 14-16 of TIFF 6.0).
type TagType uint16

const (
	Byte      TagType = 1
	ASCII     TagType = 2
	Short     TagType = 3
	Long      TagType = 4
	Rational  TagType = 5
	SByte     TagType = 6
	Undefined TagType = 7
	SShort    TagType = 8
	SLong     TagType = 9
	SRational TagType = 10
	Float     TagType = 11
	Double    TagType = 12
)

// The length of one instance of each data type in bytes.
var lengths = [...]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// Size returns the length in bytes of one value of type t,
// or 0 if t is not a known type.
func (t TagType) Size() uint32 {
	if int(t) >= len(lengths) {
		return 0
	}
	return lengths[t]
}

var typeNames = [...]string{
	"", "BYTE", "ASCII", "SHORT", "LONG", "RATIONAL", "SBYTE",
	"UNDEFINED", "SSHORT", "SLONG", "SRATIONAL", "FLOAT", "DOUBLE",
}

func (t TagType) String() string {
	if t == 0 || int(t) >= len(typeNames) {
		return "TagType(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// Tags (see p. 28-41 of TIFF 6.0).
const (
	tNewSubfileType            = 254
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tCompression               = 259
	tPhotometricInterpretation = 262

	tFillOrder = 266

	tStripOffsets    = 273
	tOrientation     = 274
	tSamplesPerPixel = 277
	tRowsPerStrip    = 278
	tStripByteCounts = 279

	tXResolution         = 282
	tYResolution         = 283
	tPlanarConfiguration = 284
	tResolutionUnit      = 296
	tSoftware            = 305

	tPredictor = 317
	tColorMap  = 320

	tTileWidth      = 322
	tTileLength     = 323
	tTileOffsets    = 324
	tTileByteCounts = 325

	tExtraSamples = 338
	tSampleFormat = 339
)

// TagName returns a readable name for the tags this package knows about.
func TagName(id uint16) string {
	if s, ok := tagNames[id]; ok {
		return s
	}
	return "Tag(" + strconv.Itoa(int(id)) + ")"
}

var tagNames = map[uint16]string{
	tNewSubfileType:            "NewSubfileType",
	tImageWidth:                "ImageWidth",
	tImageLength:               "ImageLength",
	tBitsPerSample:             "BitsPerSample",
	tCompression:               "Compression",
	tPhotometricInterpretation: "PhotometricInterpretation",
	tFillOrder:                 "FillOrder",
	tStripOffsets:              "StripOffsets",
	tOrientation:               "Orientation",
	tSamplesPerPixel:           "SamplesPerPixel",
	tRowsPerStrip:              "RowsPerStrip",
	tStripByteCounts:           "StripByteCounts",
	tXResolution:               "XResolution",
	tYResolution:               "YResolution",
	tPlanarConfiguration:       "PlanarConfiguration",
	tResolutionUnit:            "ResolutionUnit",
	tSoftware:                  "Software",
	tPredictor:                 "Predictor",
	tColorMap:                  "ColorMap",
	tTileWidth:                 "TileWidth",
	tTileLength:                "TileLength",
	tTileOffsets:               "TileOffsets",
	tTileByteCounts:            "TileByteCounts",
	tExtraSamples:              "ExtraSamples",
	tSampleFormat:              "SampleFormat",
}

// Compression is the value of the Compression tag.
type Compression uint16

// Compression types (defined in various places in TIFF 6.0 and its supplements).
const (
	CompressionNone     Compression = 1
	CompressionLZW      Compression = 5
	CompressionPackBits Compression = 32773

	cCCITT      = 2
	cG3         = 3 // Group 3 Fax.
	cG4         = 4 // Group 4 Fax.
	cJPEGOld    = 6 // Superseded by cJPEG.
	cJPEG       = 7
	cDeflate    = 8 // zlib compression.
	cDeflateOld = 32946
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZW:
		return "lzw"
	case CompressionPackBits:
		return "packbits"
	case cCCITT, cG3, cG4:
		return "ccitt"
	case cJPEGOld, cJPEG:
		return "jpeg"
	case cDeflate, cDeflateOld:
		return "deflate"
	}
	return "Compression(" + strconv.Itoa(int(c)) + ")"
}

// ParseCompression maps the names printed by Compression.String back to
// the codes this package can write.
func ParseCompression(s string) (Compression, bool) {
	switch s {
	case "", "none":
		return CompressionNone, true
	case "lzw":
		return CompressionLZW, true
	case "packbits":
		return CompressionPackBits, true
	}
	return 0, false
}

// Photometric is the value of the PhotometricInterpretation tag.
type Photometric uint16

// Photometric interpretation values (see p. 37 of TIFF 6.0).
// PhotometricUnknown marks a directory without the tag whose
// interpretation could not be inferred.
const (
	WhiteIsZero      Photometric = 0
	BlackIsZero      Photometric = 1
	RGB              Photometric = 2
	Paletted         Photometric = 3
	TransparencyMask Photometric = 4
	CMYK             Photometric = 5
	YCbCr            Photometric = 6
	CIELab           Photometric = 8

	PhotometricUnknown Photometric = 0xffff
)

var photometricNames = map[Photometric]string{
	WhiteIsZero:        "WhiteIsZero",
	BlackIsZero:        "BlackIsZero",
	RGB:                "RGB",
	Paletted:           "Palette",
	TransparencyMask:   "TransparencyMask",
	CMYK:               "CMYK",
	YCbCr:              "YCbCr",
	CIELab:             "CIELab",
	PhotometricUnknown: "unknown",
}

func (p Photometric) String() string {
	if s, ok := photometricNames[p]; ok {
		return s
	}
	return "Photometric(" + strconv.Itoa(int(p)) + ")"
}

// Values for the tPredictor tag (page 64-65 of TIFF 6.0).
const (
	prNone       = 1
	prHorizontal = 2
)

// Values for the tPlanarConfiguration tag (page 38 of TIFF 6.0).
const (
	pcChunky    = 1
	pcSeparated = 2
)

// Values for the tExtraSamples tag (page 31 of TIFF 6.0).
const (
	esUnspecified  = 0
	esAssociated   = 1
	esUnassociated = 2
)

// Values for the tSampleFormat tag (page 80 of TIFF 6.0).
const sfUint = 1
