package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// MaxString8 is the longest byte length EncodeString can carry.
const MaxString8 = math.MaxUint8

// MaxString16 is the longest code unit count EncodeString16 can carry.
const MaxString16 = math.MaxUint16

// Writer builds an outbound payload. Messages start with their tag byte.
// Encoding never fails: strings longer than their prefix allows are
// truncated, everything else is appended as is.
type Writer struct {
	data        []byte
	tagged      bool
	synchronous bool
}

func NewWriter(tag Tag) *Writer {
	w := &Writer{data: make([]byte, 0, 64), tagged: true}
	w.data = append(w.data, byte(tag))
	return w
}

// NewPayload returns a Writer without a tag byte, for blocks that are
// embedded in another message.
func NewPayload() *Writer {
	return &Writer{data: make([]byte, 0, 64)}
}

// SetSynchronous marks the message for the receiver's synchronous handler.
func (w *Writer) SetSynchronous(sync bool) *Writer {
	w.synchronous = sync
	return w
}

func (w *Writer) Synchronous() bool { return w.synchronous }

func (w *Writer) Tag() Tag {
	if !w.tagged {
		return TagNone
	}
	return Tag(w.data[0])
}

// Bytes returns the encoded message including the tag byte, if any.
func (w *Writer) Bytes() []byte { return w.data }

func (w *Writer) Len() int { return len(w.data) }

func (w *Writer) AddUint8(v uint8) *Writer {
	w.data = append(w.data, v)
	return w
}

func (w *Writer) AddBool(v bool) *Writer {
	if v {
		return w.AddUint8(1)
	}
	return w.AddUint8(0)
}

func (w *Writer) AddUint16(v uint16) *Writer {
	w.data = binary.BigEndian.AppendUint16(w.data, v)
	return w
}

func (w *Writer) AddUint32(v uint32) *Writer {
	w.data = binary.BigEndian.AppendUint32(w.data, v)
	return w
}

func (w *Writer) AddUint64(v uint64) *Writer {
	w.data = binary.BigEndian.AppendUint64(w.data, v)
	return w
}

func (w *Writer) AddFloat(v float32) *Writer {
	return w.AddUint32(math.Float32bits(v))
}

// AddBytes appends raw bytes with no length prefix.
func (w *Writer) AddBytes(b []byte) *Writer {
	w.data = append(w.data, b...)
	return w
}

// EncodeString writes a uint8 length followed by UTF-8 bytes. Strings over
// MaxString8 bytes are cut at the last rune boundary that fits.
func (w *Writer) EncodeString(s string) *Writer {
	s = truncateUTF8(s, MaxString8)
	w.AddUint8(uint8(len(s)))
	w.data = append(w.data, s...)
	return w
}

// EncodeString16 writes a uint16 count of UTF-16 code units followed by the
// big-endian units. maxLen <= 0 means MaxString16. A surrogate pair is never
// split by truncation.
func (w *Writer) EncodeString16(s string, maxLen int) *Writer {
	if maxLen <= 0 || maxLen > MaxString16 {
		maxLen = MaxString16
	}
	units := encodeUTF16(s)
	if len(units)/2 > maxLen {
		cut := maxLen
		if cut > 0 && isHighSurrogate(units[(cut-1)*2:]) {
			cut--
		}
		units = units[:cut*2]
	}
	w.AddUint16(uint16(len(units) / 2))
	w.data = append(w.data, units...)
	return w
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
