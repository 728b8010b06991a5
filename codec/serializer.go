/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/oklog/ulid"
)

// Serializer converts a domain scalar to and from its canonical String or
// Number text. Encode and Decode must be inverses for every value of Type.
type Serializer interface {
	// Type is the Go type the serializer handles.
	Type() reflect.Type
	// Kind is KindString or KindNumber.
	Kind() Kind
	Encode(v any) (string, error)
	Decode(s string) (any, error)
}

type scalar[V any] struct {
	kind Kind
	enc  func(V) (string, error)
	dec  func(string) (V, error)
}

// Scalar builds a Serializer for V from a pair of conversion functions.
func Scalar[V any](kind Kind, enc func(V) (string, error), dec func(string) (V, error)) Serializer {
	return &scalar[V]{kind: kind, enc: enc, dec: dec}
}

func (s *scalar[V]) Type() reflect.Type { return reflect.TypeOf((*V)(nil)).Elem() }

func (s *scalar[V]) Kind() Kind { return s.kind }

func (s *scalar[V]) Encode(v any) (string, error) {
	typed, ok := v.(V)
	if !ok {
		return "", fmt.Errorf("expected %s, got %T", s.Type(), v)
	}
	return s.enc(typed)
}

func (s *scalar[V]) Decode(text string) (any, error) {
	return s.dec(text)
}

// Enum maps the values of E to their canonical names. Decoding an unknown
// name fails.
func Enum[E comparable](names map[E]string) Serializer {
	reverse := make(map[string]E, len(names))
	for v, name := range names {
		reverse[name] = v
	}
	return Scalar(KindString,
		func(v E) (string, error) {
			name, ok := names[v]
			if !ok {
				return "", fmt.Errorf("value %v has no enum name", v)
			}
			return name, nil
		},
		func(s string) (E, error) {
			v, ok := reverse[s]
			if !ok {
				var zero E
				return zero, fmt.Errorf("unknown enum name %q (known: %s)", s, strings.Join(enumNames(names), ", "))
			}
			return v, nil
		})
}

func enumNames[E comparable](names map[E]string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SortableTime is the layout Time and DateTime write: UTC with a
// fixed-width fraction, so byte order of the text is time order. Decoding
// accepts any RFC 3339 text.
const SortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// Time encodes time.Time as SortableTime text. Decoded values are in UTC.
var Time = Scalar(KindString,
	func(t time.Time) (string, error) { return t.UTC().Format(SortableTime), nil },
	func(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) })

// Duration encodes time.Duration as a number of nanoseconds.
var Duration = Scalar(KindNumber,
	func(d time.Duration) (string, error) { return strconv.FormatInt(int64(d), 10), nil },
	func(s string) (time.Duration, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		return time.Duration(n), err
	})

// Clock encodes TimeOfDay as "HH:MM:SS[.fraction]".
var Clock = Scalar(KindString,
	func(t TimeOfDay) (string, error) {
		if !t.valid() {
			return "", fmt.Errorf("time of day out of range: %+v", t)
		}
		return t.String(), nil
	},
	ParseTimeOfDay)

// DateTime encodes strfmt.DateTime like Time.
var DateTime = Scalar(KindString,
	func(dt strfmt.DateTime) (string, error) { return time.Time(dt).UTC().Format(SortableTime), nil },
	func(s string) (strfmt.DateTime, error) {
		t, err := time.Parse(time.RFC3339Nano, s)
		return strfmt.DateTime(t), err
	})

// Date encodes strfmt.Date as a full date, e.g. "2026-01-02".
var Date = Scalar(KindString,
	func(d strfmt.Date) (string, error) { return time.Time(d).Format(strfmt.RFC3339FullDate), nil },
	func(s string) (strfmt.Date, error) {
		t, err := time.Parse(strfmt.RFC3339FullDate, s)
		return strfmt.Date(t), err
	})

// UUID encodes strfmt.UUID, rejecting text that is not a UUID.
var UUID = Scalar(KindString,
	func(u strfmt.UUID) (string, error) {
		if _, err := uuid.Parse(string(u)); err != nil {
			return "", err
		}
		return string(u), nil
	},
	func(s string) (strfmt.UUID, error) {
		if _, err := uuid.Parse(s); err != nil {
			return "", err
		}
		return strfmt.UUID(s), nil
	})

// GoogleUUID encodes uuid.UUID in its canonical hyphenated form.
var GoogleUUID = Scalar(KindString,
	func(u uuid.UUID) (string, error) { return u.String(), nil },
	uuid.Parse)

// ULID encodes ulid.ULID in its 26 character form.
var ULID = Scalar(KindString,
	func(u ulid.ULID) (string, error) { return u.String(), nil },
	ulid.Parse)

// BigInt encodes *big.Int as a Number. A nil pointer encodes as NULL.
var BigInt = Scalar(KindNumber,
	func(b *big.Int) (string, error) { return b.String(), nil },
	func(s string) (*big.Int, error) {
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return b, nil
	})

// Serializers is a set of type serializers keyed by Go type.
type Serializers map[reflect.Type]Serializer

// DefaultSerializers returns the built-in scalar extensions.
func DefaultSerializers() Serializers {
	s := Serializers{}
	for _, ser := range []Serializer{Time, Duration, Clock, DateTime, Date, UUID, GoogleUUID, ULID, BigInt} {
		s[ser.Type()] = ser
	}
	return s
}

// With returns a copy of s with extra added, replacing any existing entry.
func (s Serializers) With(extra ...Serializer) Serializers {
	out := make(Serializers, len(s)+len(extra))
	for t, ser := range s {
		out[t] = ser
	}
	for _, ser := range extra {
		out[ser.Type()] = ser
	}
	return out
}
