package firmata

import (
	"fmt"
	"strings"
)

const maxCharacter = 1<<14 - 1

// DecodeValue decodes a 14-bit value sent as two 7-bit bytes, least
// significant first.
func DecodeValue(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, ErrTruncatedPayload
	}
	return uint16(b[0]&dataMask) | uint16(b[1]&dataMask)<<7, nil
}

// EncodeValue packs each value into its (lo, hi) 7-bit pair, in order.
// Bits above 14 are dropped.
func EncodeValue(values ...uint16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = append(out, byte(v)&dataMask, byte(v>>7)&dataMask)
	}
	return out
}

// DecodeString decodes text sent as one (lo, hi) 7-bit pair per character.
func DecodeString(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", fmt.Errorf("%w: %d bytes", ErrInvalidStringLength, len(b))
	}
	var sb strings.Builder
	sb.Grow(len(b) / 2)
	for i := 0; i < len(b); i += 2 {
		sb.WriteRune(rune(b[i]&dataMask) | rune(b[i+1]&dataMask)<<7)
	}
	return sb.String(), nil
}

// EncodeString is the inverse of DecodeString. Characters above U+3FFF
// cannot be represented and fail the whole string.
func EncodeString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)*2)
	for i, r := range s {
		if r < 0 || r > maxCharacter {
			return nil, fmt.Errorf("%w: %U at offset %d", ErrCharacterRange, r, i)
		}
		out = append(out, byte(r)&dataMask, byte(r>>7)&dataMask)
	}
	return out, nil
}
