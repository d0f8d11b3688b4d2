package isa

import (
	"errors"

	"emu16/pkg/translate"
)

var f = translate.From

var ErrImageLength = errors.New(f("image length is not a multiple of 3 bytes"))

// ErrDecode reports a byte triple that no instruction encodes to.
type ErrDecode struct {
	Bytes [3]byte
}

func (err *ErrDecode) Error() string {
	return f("cannot decode %02X_%02X_%02X", err.Bytes[0], err.Bytes[1], err.Bytes[2])
}
