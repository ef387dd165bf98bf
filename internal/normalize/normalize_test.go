package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_LocaleStrings(t *testing.T) {
	cases := map[string]int64{
		"1.234,56":   1235,
		"0,4":        0,
		"0,5":        0,
		"1,5":        2,
		"2,5":        2,
		"1.234,5":    1234,
		"12":         12,
		" 1.000 ":    1000,
		"2.500.000":  2500000,
		"-3,6":       -4,
		"19.990,49":  19990,
	}
	for in, want := range cases {
		got := Amount(in)
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, *got, "input %q", in)
	}
}

func TestAmount_Numbers(t *testing.T) {
	got := Amount(1234.56)
	require.NotNil(t, got)
	assert.Equal(t, int64(1235), *got)

	got = Amount(json.Number("1234.4"))
	require.NotNil(t, got)
	assert.Equal(t, int64(1234), *got)

	got = Amount(2.5)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), *got)

	got = Amount(json.Number("3.5"))
	require.NotNil(t, got)
	assert.Equal(t, int64(4), *got)

	got = Amount(7)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)
}

func TestAmount_Invalid(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "abc", "1,2,3", "NaN", "inf", true} {
		assert.Nil(t, Amount(in), "input %#v", in)
	}
}

func TestDate_KnownLayouts(t *testing.T) {
	cases := map[string]string{
		"2025-12-15":                 "15/12/2025",
		"2025-12-15T10:23:00":        "15/12/2025",
		"2025-12-15T10:23:00.047":    "15/12/2025",
		"2025-12-15T10:23:00.123456": "15/12/2025",
		"15/12/2025":                 "15/12/2025",
		" 2025-01-02 ":               "02/01/2025",
	}
	for in, want := range cases {
		got := Date(in)
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, want, *got, "input %q", in)
	}
}

func TestDate_PassthroughAndEmpty(t *testing.T) {
	got := Date("mañana")
	require.NotNil(t, got)
	assert.Equal(t, "mañana", *got)

	assert.Nil(t, Date(""))
	assert.Nil(t, Date("  "))
}
