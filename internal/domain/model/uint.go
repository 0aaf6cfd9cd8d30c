package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Sentinel kinds for unsigned integer conversion.
var (
	ErrNotInteger = errors.New("not an unsigned integer")
)

// ToUint converts v to a non-negative big integer without passing through a
// floating-point type. Accepted: *big.Int, big.Int, Go integer kinds,
// json.Number, decimal strings and 0x-prefixed hex strings.
func ToUint(v any) (*big.Int, error) {
	var n *big.Int
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("%w: nil", ErrNotInteger)
		}
		n = new(big.Int).Set(x)
	case big.Int:
		n = new(big.Int).Set(&x)
	case uint64:
		n = new(big.Int).SetUint64(x)
	case uint32:
		n = new(big.Int).SetUint64(uint64(x))
	case uint16:
		n = new(big.Int).SetUint64(uint64(x))
	case uint8:
		n = new(big.Int).SetUint64(uint64(x))
	case uint:
		n = new(big.Int).SetUint64(uint64(x))
	case int64:
		n = big.NewInt(x)
	case int32:
		n = big.NewInt(int64(x))
	case int:
		n = big.NewInt(int64(x))
	case json.Number:
		return parseUintString(string(x))
	case string:
		return parseUintString(x)
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrNotInteger, v)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrNotInteger, n)
	}
	return n, nil
}

func parseUintString(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrNotInteger)
	}
	base := 10
	digits := s
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		digits = s[2:]
	}
	// SetString accepts a sign and underscores; only bare digits are valid here.
	for _, c := range digits {
		if !isDigit(c, base) {
			return nil, fmt.Errorf("%w: %q", ErrNotInteger, s)
		}
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotInteger, s)
	}
	return n, nil
}

func isDigit(c rune, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// CompareUint compares two canonical decimal strings numerically. Strings
// that fail to parse compare as zero.
func CompareUint(a, b string) int {
	return parseOrZero(a).Cmp(parseOrZero(b))
}

func parseOrZero(s string) *big.Int {
	n, err := parseUintString(s)
	if err != nil {
		return new(big.Int)
	}
	return n
}
