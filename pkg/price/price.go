// Package price converts free-form, locale-formatted price strings into
// comparable decimal values.
package price

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrNoDigits is wrapped by every ParseError.
var ErrNoDigits = errors.New("no digits found")

// ParseError is returned when a price string cannot be normalized.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing price %q: %v", e.Raw, ErrNoDigits)
}

func (e *ParseError) Unwrap() error { return ErrNoDigits }

var numberRun = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)

// Parse normalizes raw into a decimal value.
//
// Currency symbols and whitespace are stripped. When both ',' and '.' are
// present the rightmost one is the decimal separator and the other is a
// thousands separator. A lone ',' is a decimal separator. The longest run
// of digits with at most one dot is then parsed; if that fails every
// character other than digits and dots is removed and parsing is retried
// once.
func Parse(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, raw)

	cleaned = normalizeSeparators(cleaned)

	if run := longestRun(cleaned); run != "" {
		if d, err := decimal.NewFromString(run); err == nil {
			return d, nil
		}
	}

	digitsOnly := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, cleaned)
	if d, err := decimal.NewFromString(digitsOnly); err == nil {
		return d, nil
	}

	return decimal.Decimal{}, &ParseError{Raw: raw}
}

// Normalize returns raw as a float64.
func Normalize(raw string) (float64, error) {
	d, err := Parse(raw)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// Equal reports whether a and b normalize to the same value. Comparison is
// exact on the decimal representation, so "12.5" equals "12.50".
func Equal(a, b string) (bool, error) {
	da, err := Parse(a)
	if err != nil {
		return false, err
	}
	db, err := Parse(b)
	if err != nil {
		return false, err
	}
	return da.Equal(db), nil
}

func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(s, ",", ".")
	default:
		return s
	}
}

func longestRun(s string) string {
	var best string
	for _, m := range numberRun.FindAllString(s, -1) {
		if len(m) > len(best) {
			best = m
		}
	}
	return best
}
