/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Decimal is an arbitrary-precision decimal carried as its decimal text,
// so the digits written are exactly the digits read back. The zero value
// encodes as "0".
type Decimal struct {
	text string
}

// ParseDecimal validates s as a decimal number and keeps it verbatim.
func ParseDecimal(s string) (Decimal, error) {
	if err := validNumber(s); err != nil {
		return Decimal{}, err
	}
	return Decimal{text: s}, nil
}

// MustDecimal is ParseDecimal that panics on bad input.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DecimalFromRat formats r with the given number of fractional digits.
func DecimalFromRat(r *big.Rat, scale int) Decimal {
	return Decimal{text: r.FloatString(scale)}
}

func (d Decimal) String() string {
	if d.text == "" {
		return "0"
	}
	return d.text
}

// Rat returns the exact rational value of d.
func (d Decimal) Rat() *big.Rat {
	r, _ := new(big.Rat).SetString(d.String())
	return r
}

// Cmp compares d and o numerically.
func (d Decimal) Cmp(o Decimal) int {
	return d.Rat().Cmp(o.Rat())
}

// CanonicalNumber returns number text in a form that is equal for
// numerically equal inputs: "1", "1.0" and "1e0" all give "1". Text that
// is not a number is returned unchanged.
func CanonicalNumber(s string) string {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return s
	}
	return r.RatString()
}

// validNumber accepts the number grammar of the wire format: optional sign,
// digits with an optional fraction, optional exponent.
func validNumber(s string) error {
	if s == "" {
		return fmt.Errorf("empty number")
	}
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return fmt.Errorf("invalid number %q", s)
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return fmt.Errorf("invalid number %q", s)
		}
	}
	if i != len(s) {
		return fmt.Errorf("invalid number %q", s)
	}
	return nil
}

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

const timeOfDayLayout = "15:04:05.999999999"

// TimeOfDayOf extracts the clock reading of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// ParseTimeOfDay parses "HH:MM:SS" with an optional fraction.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if strings.Count(s, ":") != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDayOf(t), nil
}

func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, t.Nanosecond, time.UTC).Format(timeOfDayLayout)
}

func (t TimeOfDay) valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60 &&
		t.Second >= 0 && t.Second < 60 && t.Nanosecond >= 0 && t.Nanosecond < int(time.Second)
}
