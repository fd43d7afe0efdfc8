package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomKeyFor(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "slack:T123:C456", RoomKeyFor(PlatformSlack, "T123", "C456"))
	assert.Equal(t, "custom:room-1", RoomKeyFor(PlatformCustom, "room-1"))
	assert.Equal(t, "line:user:U99", RoomKeyFor(PlatformLine, "user", "U99"))
}

func TestBucketMIME(t *testing.T) {
	t.Parallel()
	cases := []struct {
		mime string
		want ContentType
	}{
		{"image/png", ContentImage},
		{"image/jpeg", ContentImage},
		{"video/mp4", ContentVideo},
		{"audio/mpeg", ContentAudio},
		{"application/pdf", ContentFile},
		{"", ContentFile},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BucketMIME(tc.mime), tc.mime)
	}
}

func TestBucketDeclaredType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ContentImage, BucketDeclaredType("application/vnd.microsoft.card.image"))
	assert.Equal(t, ContentVideo, BucketDeclaredType("video"))
	assert.Equal(t, ContentFile, BucketDeclaredType("application/vnd.microsoft.teams.file.download.info"))
}

func TestContentTypeIsBinary(t *testing.T) {
	t.Parallel()
	assert.False(t, ContentText.IsBinary())
	assert.True(t, ContentImage.IsBinary())
	assert.True(t, ContentFile.IsBinary())
}
