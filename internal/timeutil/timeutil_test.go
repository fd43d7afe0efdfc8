package timeutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseToMillis_NumericSeconds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(1617235678000), ParseToMillis(1617235678))
	assert.Equal(t, int64(1617235678000), ParseToMillis(int64(1617235678)))
	assert.Equal(t, int64(1617235678500), ParseToMillis(1617235678.5))
}

func TestParseToMillis_NumericMillis(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(1617235678000), ParseToMillis(int64(1617235678000)))
	assert.Equal(t, int64(1617235678123), ParseToMillis(float64(1617235678123)))
}

func TestParseToMillis_ISO8601(t *testing.T) {
	t.Parallel()
	want := time.Date(2021, 3, 31, 12, 34, 56, 123_000_000, time.UTC).UnixMilli()
	assert.Equal(t, want, ParseToMillis("2021-03-31T12:34:56.123Z"))
	assert.Equal(t, want, ParseToMillis("2021-03-31T12:34:56.123+00:00"))
}

func TestParseToMillis_NumericStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int64(1617235678000), ParseToMillis("1617235678"))
	assert.Equal(t, int64(1617235678000), ParseToMillis("1617235678000"))
}

func TestParseToMillis_FallbackToNow(t *testing.T) {
	t.Parallel()
	for _, raw := range []any{nil, "", "not-a-timestamp", "2021-99-99T99:99:99Z", struct{}{}} {
		got := ParseToMillis(raw)
		assert.InDelta(t, NowMillis(), got, 2000, "input %v", raw)
	}
}

func TestNewTimeOrderedID(t *testing.T) {
	t.Parallel()
	a := NewTimeOrderedID()
	b := NewTimeOrderedID()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.Contains(a, "-"))

	prefix, _, _ := strings.Cut(a, "-")
	// The timestamp prefix is hex-encoded milliseconds.
	assert.GreaterOrEqual(t, len(prefix), 11)
}
