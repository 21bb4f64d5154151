// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tiff

import "strconv"

// ErrorKind classifies the ways decoding or encoding can fail.
type ErrorKind int

const (
	BadMagic ErrorKind = iota + 1
	BadVersion
	TruncatedInput
	MissingRequiredTag
	UnsupportedCompression
	UnsupportedBitsPerSample
	CorruptStrip
	StripSizeMismatch
	SizeMismatch
	// Unsupported reports a valid but unimplemented feature such as
	// tiles or planar sample storage.
	Unsupported
)

var kindNames = [...]string{
	BadMagic:                 "bad magic",
	BadVersion:               "bad version",
	TruncatedInput:           "truncated input",
	MissingRequiredTag:       "missing required tag",
	UnsupportedCompression:   "unsupported compression",
	UnsupportedBitsPerSample: "unsupported bits per sample",
	CorruptStrip:             "corrupt strip",
	StripSizeMismatch:        "strip size mismatch",
	SizeMismatch:             "size mismatch",
	Unsupported:              "unsupported feature",
}

func (k ErrorKind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// An Error is returned by every failing operation of this package.
// Tag is set for MissingRequiredTag, Value carries the offending
// compression code or bit depth.
type Error struct {
	Kind  ErrorKind
	Tag   uint16
	Value uint32
	Msg   string
}

func (e *Error) Error() string {
	s := "tiff: " + e.Kind.String()
	switch e.Kind {
	case MissingRequiredTag:
		s += " " + TagName(e.Tag)
	case UnsupportedCompression, UnsupportedBitsPerSample:
		s += " " + strconv.FormatUint(uint64(e.Value), 10)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrCorruptStrip) matches any corrupt strip error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrBadMagic                 = &Error{Kind: BadMagic}
	ErrBadVersion               = &Error{Kind: BadVersion}
	ErrTruncatedInput           = &Error{Kind: TruncatedInput}
	ErrMissingRequiredTag       = &Error{Kind: MissingRequiredTag}
	ErrUnsupportedCompression   = &Error{Kind: UnsupportedCompression}
	ErrUnsupportedBitsPerSample = &Error{Kind: UnsupportedBitsPerSample}
	ErrCorruptStrip             = &Error{Kind: CorruptStrip}
	ErrStripSizeMismatch        = &Error{Kind: StripSizeMismatch}
	ErrSizeMismatch             = &Error{Kind: SizeMismatch}
	ErrUnsupported              = &Error{Kind: Unsupported}
)

func formatErr(k ErrorKind, msg string) error {
	return &Error{Kind: k, Msg: msg}
}

func missingTag(tag uint16) error {
	return &Error{Kind: MissingRequiredTag, Tag: tag}
}

func unsupported(msg string) error {
	return &Error{Kind: Unsupported, Msg: msg}
}
