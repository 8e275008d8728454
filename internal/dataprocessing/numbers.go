package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecimalPolicy tells the sanitizer which character separates decimals.
type DecimalPolicy string

const (
	// DecimalAuto treats the rightmost of ',' and '.' as the decimal mark
	// unless it repeats, in which case it is a thousands separator.
	DecimalAuto  DecimalPolicy = "auto"
	DecimalComma DecimalPolicy = "comma"
	DecimalDot   DecimalPolicy = "dot"
)

var (
	errEmpty      = errors.New("empty value")
	errNotNumeric = errors.New("not numeric")
	errNegative   = errors.New("negative value")
	errNotFinite  = errors.New("not a finite number")
	errFractional = errors.New("fractional value for integer field")
	errOutOfRange = errors.New("value out of range")
)

// ParseReal parses a locale formatted non-negative real number.
func ParseReal(s string, policy DecimalPolicy) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	canonical, err := canonicalNumber(s, policy)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(canonical, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errNotNumeric, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	if v < 0 {
		return 0, errNegative
	}
	return v, nil
}

// ParseCount parses a non-negative integer. Integral decimals such as "12.0"
// are accepted; fractional values are not.
func ParseCount(s string, policy DecimalPolicy) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmpty
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, errNegative
		}
		return n, nil
	}
	v, err := ParseReal(s, policy)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, errFractional
	}
	// float64(math.MaxInt64) is 2^63, one past the largest int64.
	if v >= math.MaxInt64 {
		return 0, errOutOfRange
	}
	return int64(v), nil
}

// canonicalNumber rewrites s into the form strconv expects, removing
// grouping separators and turning the decimal mark into '.'.
func canonicalNumber(s string, policy DecimalPolicy) (string, error) {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == ',' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return "", fmt.Errorf("%w: %q", errNotNumeric, s)
		}
	}

	var decimal, group string
	switch policy {
	case DecimalComma:
		decimal, group = ",", "."
	case DecimalDot:
		decimal, group = ".", ","
	default:
		decimal, group = autoSeparators(s)
	}

	if group != "" {
		s = strings.ReplaceAll(s, group, "")
	}
	if strings.Count(s, decimal) > 1 {
		return "", fmt.Errorf("%w: %q", errNotNumeric, s)
	}
	if decimal == "," {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s, nil
}

func autoSeparators(s string) (decimal, group string) {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			return ",", "."
		}
		return ".", ","
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return ".", ","
		}
		return ",", ""
	case dot >= 0:
		if strings.Count(s, ".") > 1 {
			return ",", "."
		}
		return ".", ""
	}
	return ".", ""
}
