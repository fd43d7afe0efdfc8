// Package message defines the canonical, platform-independent
// representation of one chat turn.
package message

import (
	"strings"
)

// Platform identifies the chat surface a message arrived from.
type Platform string

const (
	PlatformSlack  Platform = "slack"
	PlatformTeams  Platform = "teams"
	PlatformLine   Platform = "line"
	PlatformCustom Platform = "custom"
)

// String returns the platform as a plain string.
func (p Platform) String() string {
	return string(p)
}

// Role distinguishes user turns from assistant replies.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ContentType buckets message payloads into broad media categories.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentAudio ContentType = "audio"
	ContentFile  ContentType = "file"
)

// Message is the unified message shape shared by all platforms.
//
// RoomKey is a pure function of platform-scoped identifiers, so every
// turn of one conversation lands in the same partition. TimestampMs is
// the sort key within a room; a second write with the same
// (RoomKey, TimestampMs) supersedes the first. Messages are never
// updated once persisted.
type Message struct {
	Platform    Platform    `json:"platform"`
	RoomKey     string      `json:"roomKey"`
	SenderID    string      `json:"senderId"`
	TimestampMs int64       `json:"ts"`
	Role        Role        `json:"role"`
	Text        string      `json:"text,omitempty"`
	ContentType ContentType `json:"contentType"`
	BlobRef     string      `json:"blobRef,omitempty"`
}

// RoomKeyFor joins platform-scoped identifiers into a stable partition
// key, e.g. "slack:T123:C456" or "custom:room-1".
func RoomKeyFor(platform Platform, parts ...string) string {
	elems := append([]string{string(platform)}, parts...)
	return strings.Join(elems, ":")
}

// BucketMIME maps a MIME type onto a content-type bucket. Anything that
// is not image, video, or audio counts as a generic file.
func BucketMIME(mimeType string) ContentType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return ContentImage
	case strings.HasPrefix(mimeType, "video/"):
		return ContentVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return ContentAudio
	default:
		return ContentFile
	}
}

// BucketDeclaredType buckets a loosely declared attachment type by
// substring, matching how collaboration-suite payloads label content
// ("image", "application/vnd...image...", etc.).
func BucketDeclaredType(declared string) ContentType {
	switch {
	case strings.Contains(declared, "image"):
		return ContentImage
	case strings.Contains(declared, "video"):
		return ContentVideo
	case strings.Contains(declared, "audio"):
		return ContentAudio
	default:
		return ContentFile
	}
}

// IsBinary reports whether the content type carries a binary payload.
func (c ContentType) IsBinary() bool {
	switch c {
	case ContentImage, ContentVideo, ContentAudio, ContentFile:
		return true
	default:
		return false
	}
}
