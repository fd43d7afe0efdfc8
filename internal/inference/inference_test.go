package inference

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrouter/chatrouter/internal/message"
)

func TestBuildMessages(t *testing.T) {
	history := []message.Message{
		{Role: message.RoleUser, Text: "first question"},
		{Role: message.RoleAssistant, Text: "first answer"},
		{Role: message.RoleUser, Text: "", ContentType: message.ContentImage},
		{Role: message.RoleUser, Text: "second question"},
	}

	msgs := BuildMessages(history, "third question")
	require.Len(t, msgs, 4)

	assert.Equal(t, openai.ChatMessageRoleUser, msgs[0].Role)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[1].Role)
	assert.Equal(t, "first answer", msgs[1].Content)
	assert.Equal(t, "second question", msgs[2].Content)
	assert.Equal(t, "third question", msgs[3].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, msgs[3].Role)
}

func TestBuildMessagesEmptyHistory(t *testing.T) {
	msgs := BuildMessages(nil, "only question")
	require.Len(t, msgs, 1)
	assert.Equal(t, "only question", msgs[0].Content)
}
