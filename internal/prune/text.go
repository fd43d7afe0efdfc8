// Package prune bounds user-supplied text before it is persisted or
// shown in previews. Cuts always land on rune boundaries.
package prune

import (
	"unicode/utf8"
)

const (
	// DefaultMaxBytes bounds message text stored per row.
	DefaultMaxBytes = 64 * 1024
	// PreviewRunes bounds chat-room last-message previews.
	PreviewRunes = 120
)

// Clip returns s truncated to at most maxBytes bytes without splitting
// a multi-byte rune. maxBytes <= 0 falls back to DefaultMaxBytes.
func Clip(s string, maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Preview returns s truncated to at most maxRunes runes, suitable for
// one-line summaries. maxRunes <= 0 falls back to PreviewRunes.
func Preview(s string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = PreviewRunes
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
