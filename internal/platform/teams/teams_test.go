package teams

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
)

func requestWithAuth(auth string) platform.Request {
	header := http.Header{}
	if auth != "" {
		header.Set("Authorization", auth)
	}
	return platform.Request{RawBody: []byte("{}"), Header: header}
}

func TestVerifySignature(t *testing.T) {
	p := New(nil, "configured")

	// Only the Bearer prefix is checked, any token passes.
	assert.True(t, p.VerifySignature(requestWithAuth("Bearer sometoken")))
	assert.True(t, p.VerifySignature(requestWithAuth("Bearer ")))
	assert.False(t, p.VerifySignature(requestWithAuth("Basic dXNlcg==")))
	assert.False(t, p.VerifySignature(requestWithAuth("")))

	open := New(nil, "")
	assert.True(t, open.VerifySignature(requestWithAuth("")))
}

func TestNormalizeMessageActivity(t *testing.T) {
	p := New(nil, "secret")
	body := []byte(`{
		"type": "message",
		"timestamp": "2021-03-31T12:34:56.123Z",
		"text": "hello from teams",
		"from": {"id": "user-1"},
		"conversation": {"id": "conv-9"},
		"channelData": {"tenant": {"id": "tenant-7"}}
	}`)

	msg, ok := p.Normalize(body)
	require.True(t, ok)
	assert.Equal(t, message.PlatformTeams, msg.Platform)
	assert.Equal(t, "teams:tenant-7:conv-9", msg.RoomKey)
	assert.Equal(t, "user-1", msg.SenderID)
	assert.Equal(t, int64(1617194096123), msg.TimestampMs)
	assert.Equal(t, "hello from teams", msg.Text)
	assert.Equal(t, message.ContentText, msg.ContentType)
}

func TestNormalizeAttachment(t *testing.T) {
	p := New(nil, "secret")
	body := []byte(`{
		"type": "message",
		"from": {"id": "user-1"},
		"conversation": {"id": "conv-9"},
		"channelData": {"tenant": {"id": "tenant-7"}},
		"attachments": [{"contentType": "image/png"}]
	}`)

	msg, ok := p.Normalize(body)
	require.True(t, ok)
	assert.Equal(t, message.ContentImage, msg.ContentType)
}

func TestNormalizeIgnoresNonMessage(t *testing.T) {
	p := New(nil, "secret")

	_, ok := p.Normalize([]byte(`{"type":"conversationUpdate"}`))
	assert.False(t, ok)

	_, ok = p.Normalize([]byte(`broken`))
	assert.False(t, ok)
}
