// Package binreader is a sequential, offset-tracking reader over an
// in-memory buffer. It never copies: slices returned by Read alias the
// underlying buffer, which the Reader does not own.
package binreader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfData is returned when a read asks for more bytes than remain.
var ErrOutOfData = errors.New("binreader: out of data")

// ErrNegativeLength is returned for a length prefix below zero.
var ErrNegativeLength = errors.New("binreader: negative length prefix")

type Reader struct {
	buf []byte
	off int
}

func New(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Len is the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: read of %d bytes at offset %d", ErrNegativeLength, n, r.off)
	}
	if n > r.Len() {
		return nil, fmt.Errorf("%w: want %d bytes at offset %d, have %d", ErrOutOfData, n, r.off, r.Len())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.Read(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *Reader) ReadString(n int) (string, error) {
	b, err := r.Read(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadPrefixedString reads an int32 byte length followed by that many bytes.
func (r *Reader) ReadPrefixedString() (string, error) {
	n, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: %d at offset %d", ErrNegativeLength, n, r.off-4)
	}
	return r.ReadString(int(n))
}

// ReadCString reads up to the next zero byte and skips past it.
func (r *Reader) ReadCString() (string, error) {
	i := bytes.IndexByte(r.buf[r.off:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrOutOfData, r.off)
	}
	s := string(r.buf[r.off : r.off+i])
	r.off += i + 1
	return s, nil
}
