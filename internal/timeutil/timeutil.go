// Package timeutil normalizes heterogeneous timestamp encodings into
// epoch milliseconds and generates time-ordered message identifiers.
package timeutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NowMillis returns the current wall clock as epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// ParseToMillis converts a timestamp of unknown encoding to epoch
// milliseconds. Accepted inputs: nil, integers or floats (seconds or
// milliseconds, decided by digit count of the integer part), ISO-8601
// strings, and numeric strings. The field is an ordering aid rather
// than an audit timestamp, so any unparseable input falls back to the
// current time; the function never fails.
func ParseToMillis(raw any) int64 {
	switch v := raw.(type) {
	case nil:
		return NowMillis()
	case int:
		return numericToMillis(float64(v))
	case int32:
		return numericToMillis(float64(v))
	case int64:
		return numericToMillis(float64(v))
	case float32:
		return numericToMillis(float64(v))
	case float64:
		return numericToMillis(v)
	case string:
		return stringToMillis(v)
	default:
		return NowMillis()
	}
}

// numericToMillis treats values whose integer part has at most ten
// decimal digits as seconds, everything longer as milliseconds.
func numericToMillis(v float64) int64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return NowMillis()
	}
	digits := len(strconv.FormatInt(int64(math.Abs(v)), 10))
	if digits <= 10 {
		return int64(v * 1000)
	}
	return int64(v)
}

func stringToMillis(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return NowMillis()
	}

	if strings.ContainsAny(s, "TZ") {
		normalized := strings.Replace(s, "Z", "+00:00", 1)
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05-07:00"} {
			if t, err := time.Parse(layout, normalized); err == nil {
				return t.UnixMilli()
			}
		}
		return NowMillis()
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NowMillis()
	}
	intPart, _, _ := strings.Cut(s, ".")
	intPart = strings.TrimPrefix(intPart, "-")
	if len(intPart) <= 10 {
		return int64(f * 1000)
	}
	return int64(f)
}

// NewTimeOrderedID returns an identifier of the form
// {millis-hex}-{random-hex}. IDs created later sort later, which keeps
// queue job references ordered without coordination.
func NewTimeOrderedID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		return fmt.Sprintf("%x-%024x", NowMillis(), time.Now().UnixNano())
	}
	return fmt.Sprintf("%x-%s", NowMillis(), hex.EncodeToString(buf))
}
