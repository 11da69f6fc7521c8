package omnibase

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLineSize bounds one Runner input line.
const DefaultMaxLineSize = 4096

var (
	// ErrLineTooLarge is returned for input lines over the Runner's limit.
	ErrLineTooLarge = errors.New("input line exceeds maximum allowed size")
	// ErrInvalidUTF8 is returned for input lines that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("input line contains invalid UTF-8 sequences")
)

// SanitizeLine rejects oversized or non-UTF-8 input and strips control characters
// (ANSI escapes, NUL, BEL) other than tab. Oversized lines are rejected, never truncated,
// so a trigger is either read whole or not at all.
func SanitizeLine(line string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxLineSize
	}
	if len(line) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrLineTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(line, unsafeControl) < 0 {
		return line, nil
	}

	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if !unsafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r'
}
