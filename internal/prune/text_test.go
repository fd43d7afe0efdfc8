package prune

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClipShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", Clip("hello", 10))
}

func TestClipTruncatesAtByteLimit(t *testing.T) {
	s := strings.Repeat("a", 100)
	assert.Equal(t, strings.Repeat("a", 10), Clip(s, 10))
}

func TestClipRespectsRuneBoundary(t *testing.T) {
	// Each rune is 3 bytes; a cut at 4 bytes must back off to 3.
	s := "日本語"
	clipped := Clip(s, 4)
	assert.Equal(t, "日", clipped)
	assert.True(t, utf8.ValidString(clipped))
}

func TestClipDefaultLimit(t *testing.T) {
	s := strings.Repeat("b", DefaultMaxBytes+1)
	assert.Len(t, Clip(s, 0), DefaultMaxBytes)
}

func TestPreviewTruncatesByRunes(t *testing.T) {
	s := strings.Repeat("グ", 200)
	preview := Preview(s, 0)
	assert.Equal(t, PreviewRunes, utf8.RuneCountInString(preview))
}

func TestPreviewShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 0))
}
