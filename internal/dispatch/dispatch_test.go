package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobWireFields(t *testing.T) {
	t.Parallel()
	job := Job{
		ChatID:        "chat-1",
		BotID:         "bot-1",
		UserMessage:   "hello",
		UserMessageID: "id-1",
		Timestamp:     1700000000000,
		Source:        "custom-ui",
		Platform:      "custom",
		UserID:        "user-1",
		RoomKey:       "custom:chat-1",
	}

	body, err := json.Marshal(job)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(body, &wire))
	// Consumers in other services key on these exact field names.
	for _, field := range []string{"chatId", "botId", "userMessage", "userMessageId", "timestamp", "source", "platform", "userId", "roomKey"} {
		assert.Contains(t, wire, field)
	}
}

func TestJobOmitsEmptyUserID(t *testing.T) {
	t.Parallel()
	body, err := json.Marshal(Job{ChatID: "c"})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "userId")
}
