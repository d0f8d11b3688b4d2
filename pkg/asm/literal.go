package asm

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	commentMarker = ';'
	labelMarker   = '.'
	hexPrefix     = "0x"
)

// parseLiteral reads a decimal, negative decimal or 0x-prefixed hex literal,
// truncated to 16 bits. ok is false when s does not look like a number at
// all; err is set when it does but cannot be parsed.
func parseLiteral(s string) (value uint16, ok bool, err error) {
	switch {
	case strings.HasPrefix(s, hexPrefix):
		v, perr := strconv.ParseUint(s[len(hexPrefix):], 16, 64)
		if perr != nil {
			return 0, false, ErrParseNumber(s)
		}
		return uint16(v), true, nil
	case len(s) > 1 && s[0] == '-' && isDigit(s[1]):
		v, perr := strconv.ParseInt(s, 10, 64)
		if perr != nil {
			return 0, false, ErrParseNumber(s)
		}
		return uint16(v), true, nil
	case len(s) > 0 && isDigit(s[0]):
		v, perr := strconv.ParseUint(s, 10, 64)
		if perr != nil {
			return 0, false, ErrParseNumber(s)
		}
		return uint16(v), true, nil
	}
	return 0, false, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

// isLabel reports whether s is a label marker followed by an identifier.
func isLabel(s string) bool {
	return len(s) > 1 && s[0] == labelMarker && isIdentifier(s[1:])
}

// looksLikeRegister catches near misses such as R16 so they get a clearer error.
func looksLikeRegister(s string) bool {
	if len(s) < 2 || (s[0] != 'R' && s[0] != 'r') {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
