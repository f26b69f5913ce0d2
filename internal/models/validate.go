package models

import (
	"errors"
	"strings"
	"unicode/utf16"
)

// MaxMessageLength is the upper bound of a trimmed user message, counted in UTF-16 code units so the
// browser's maxlength and the server agree on the limit.
const MaxMessageLength = 2000

var (
	// ErrMessageRequired is returned when the input is absent or not text.
	ErrMessageRequired = errors.New("message content is required")
	// ErrMessageEmpty is returned when the input is blank after trimming.
	ErrMessageEmpty = errors.New("message cannot be empty")
	// ErrMessageTooLong is returned when the trimmed input exceeds MaxMessageLength.
	ErrMessageTooLong = errors.New("message is too long (max 2000 characters)")
)

// Validate trims raw and checks it is non-empty and within MaxMessageLength. It returns the trimmed
// content on success. The content is not escaped; rendering safety belongs to the renderer.
func Validate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrMessageEmpty
	}
	if codeUnits(trimmed) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return trimmed, nil
}

// ValidateAny is Validate for loosely typed input such as decoded JSON. Anything that is not a string is
// rejected with ErrMessageRequired.
func ValidateAny(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrMessageRequired
	}
	return Validate(s)
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		l := utf16.RuneLen(r)
		if l < 0 {
			l = 1
		}
		n += l
	}
	return n
}
