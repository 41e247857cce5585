package firmata

import "errors"

var (
	ErrTruncatedPayload    = errors.New("truncated payload")
	ErrInvalidStringLength = errors.New("string payload has odd length")
	ErrOversizedFrame      = errors.New("sysex frame exceeds maximum size")
	ErrCharacterRange      = errors.New("character does not fit in 14 bits")
)
