package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrShortBuffer is returned when a field is decoded past the end of the
// available bytes.
var ErrShortBuffer = errors.New("wire: not enough data")

// Reader decodes fields in order. The first failure is sticky: later reads
// return zero values and Err reports the original error, so a handler can
// decode a whole field list and check once.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error { return r.err }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

// CheckSize reports whether at least n bytes remain.
func (r *Reader) CheckSize(n int) bool {
	return r.err == nil && r.Remaining() >= n
}

// Rest returns the unread bytes without consuming them.
func (r *Reader) Rest() []byte { return r.data[r.off:] }

// Skip consumes n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, r.off, r.Remaining())
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) Uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool {
	return r.Uint8() == 1
}

func (r *Reader) Uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) Uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) Uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (r *Reader) Float() float32 {
	return math.Float32frombits(r.Uint32())
}

// Bytes consumes n raw bytes. The returned slice aliases the buffer.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// DecodeString reads a string written by Writer.EncodeString.
func (r *Reader) DecodeString() string {
	n := int(r.Uint8())
	return string(r.take(n))
}

// DecodeString16 reads a string written by Writer.EncodeString16.
func (r *Reader) DecodeString16() string {
	n := int(r.Uint16())
	b := r.take(n * 2)
	if b == nil {
		return ""
	}
	return decodeUTF16(b)
}
