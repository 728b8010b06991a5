/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"math/big"
	"sort"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	for _, s := range []string{"0", "-1", "+2", "3.14", ".5", "5.", "1e10", "1.5E-3", "123456789012345678901234567890.000000001"} {
		d, err := ParseDecimal(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, d.String())
	}
	for _, s := range []string{"", "-", ".", "1e", "1e+", "abc", "1.2.3", "0x10", "1,000", " 1"} {
		_, err := ParseDecimal(s)
		assert.Error(t, err, s)
	}
}

func TestDecimalArithmetic(t *testing.T) {
	a := MustDecimal("10.50")
	b := MustDecimal("10.5")
	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, "0", Decimal{}.String())

	sum := new(big.Rat).Add(a.Rat(), MustDecimal("0.25").Rat())
	assert.Equal(t, "10.75", DecimalFromRat(sum, 2).String())

	assert.Panics(t, func() { MustDecimal("ten") })
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("23:59:58.125")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 59, Second: 58, Nanosecond: 125000000}, tod)
	assert.Equal(t, "23:59:58.125", tod.String())

	_, err = ParseTimeOfDay("24:00:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("12:00")
	assert.Error(t, err)

	at := time.Date(2026, 3, 1, 6, 5, 4, 0, time.UTC)
	assert.Equal(t, "06:05:04", TimeOfDayOf(at).String())

	_, err = Clock.Encode(TimeOfDay{Hour: 25})
	assert.Error(t, err)
}

func TestTimeTextSortsByTime(t *testing.T) {
	base := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	plus2 := time.FixedZone("UTC+2", 2*3600)

	// ascending in time, deliberately mixing zones and fraction widths
	times := []time.Time{
		base.Add(-30 * time.Minute).In(plus2),
		base,
		base.Add(500 * time.Millisecond),
		base.Add(time.Second),
	}

	var texts []string
	for _, at := range times {
		text, err := Time.Encode(at)
		require.NoError(t, err)
		texts = append(texts, text)

		dt, err := DateTime.Encode(strfmt.DateTime(at))
		require.NoError(t, err)
		assert.Equal(t, text, dt)

		back, err := Time.Decode(text)
		require.NoError(t, err)
		assert.True(t, back.(time.Time).Equal(at))
		assert.Equal(t, time.UTC, back.(time.Time).Location())
	}

	assert.Equal(t, "2026-03-04T11:30:00.000000000Z", texts[0])
	assert.Equal(t, "2026-03-04T12:00:00.000000000Z", texts[1])
	assert.True(t, sort.StringsAreSorted(texts), "%v", texts)

	// text written before the fixed layout still decodes
	old, err := Time.Decode("2026-03-04T13:30:00.5+02:00")
	require.NoError(t, err)
	assert.True(t, old.(time.Time).Equal(base.Add(-30*time.Minute+500*time.Millisecond)))
}

func TestCanonicalNumber(t *testing.T) {
	assert.Equal(t, "1", CanonicalNumber("1.0"))
	assert.Equal(t, "1", CanonicalNumber("1e0"))
	assert.Equal(t, "1/2", CanonicalNumber("0.50"))
	assert.Equal(t, "-1200", CanonicalNumber("-1.2E3"))
	assert.Equal(t, "abc", CanonicalNumber("abc"))
}

func TestEnum(t *testing.T) {
	s := Enum(map[color]string{red: "red", blue: "blue"})
	assert.Equal(t, KindString, s.Kind())

	text, err := s.Encode(red)
	require.NoError(t, err)
	assert.Equal(t, "red", text)

	v, err := s.Decode("blue")
	require.NoError(t, err)
	assert.Equal(t, blue, v)

	_, err = s.Decode("green")
	assert.ErrorContains(t, err, "blue, red")

	_, err = s.Encode(color(9))
	assert.Error(t, err)

	_, err = s.Encode("red")
	assert.Error(t, err, "wrong Go type")
}

func TestDefaultSerializersRoundTrip(t *testing.T) {
	for typ, ser := range DefaultSerializers() {
		assert.Equal(t, typ, ser.Type())
		assert.Contains(t, []Kind{KindString, KindNumber}, ser.Kind())
	}

	text, err := Duration.Encode(1500 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "1500000000", text)

	_, err = BigInt.Decode("12.5")
	assert.Error(t, err)

	_, err = UUID.Decode("xyz")
	assert.Error(t, err)
}

func TestSerializersWith(t *testing.T) {
	base := DefaultSerializers()
	extended := base.With(Enum(map[color]string{red: "r"}))

	assert.Len(t, extended, len(base)+1)
	assert.NotContains(t, base, Enum(map[color]string{}).Type())
}
