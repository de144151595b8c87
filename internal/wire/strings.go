package wire

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func encodeUTF16(s string) []byte {
	out, err := utf16be.NewEncoder().Bytes([]byte(s))
	if err != nil {
		// The encoder replaces invalid UTF-8 instead of failing; an error
		// here means nothing usable was produced.
		return nil
	}
	return out
}

func decodeUTF16(b []byte) string {
	out, err := utf16be.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

func isHighSurrogate(unit []byte) bool {
	if len(unit) < 2 {
		return false
	}
	u := uint16(unit[0])<<8 | uint16(unit[1])
	return u >= 0xD800 && u <= 0xDBFF
}
