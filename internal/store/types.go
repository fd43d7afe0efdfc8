package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a chat room or bot does not exist.
var ErrNotFound = errors.New("not found")

// ChatRoom is one conversation between a user and a bot. Created and
// managed by the external CRUD surface; read here for webhook
// pre-checks and AI dispatch.
type ChatRoom struct {
	ChatID       string    `json:"chatId"`
	Title        string    `json:"title"`
	UserID       string    `json:"userId"`
	BotID        string    `json:"botId"`
	BotName      string    `json:"botName"`
	IsActive     bool      `json:"isActive"`
	MessageCount int32     `json:"messageCount"`
	LastMessage  string    `json:"lastMessage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AIConfig holds a bot's inference configuration.
type AIConfig struct {
	DefaultModel     string            `json:"defaultModel"`
	TaskModelMapping map[string]string `json:"taskModelMapping,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	MaxTokens        int               `json:"maxTokens,omitempty"`
	Temperature      float32           `json:"temperature,omitempty"`
	TopP             float32           `json:"topP,omitempty"`
}

// BotSettings is a bot record as stored by the settings surface.
// IsActive gates whether AI jobs are enqueued at all; a bot without an
// AIConfig never triggers inference.
type BotSettings struct {
	BotID    string    `json:"botId"`
	BotName  string    `json:"botName"`
	IsActive bool      `json:"isActive"`
	AIConfig *AIConfig `json:"aiConfig,omitempty"`
}

// HasInference reports whether the bot is eligible for AI dispatch.
func (b BotSettings) HasInference() bool {
	return b.IsActive && b.AIConfig != nil && b.AIConfig.DefaultModel != ""
}

func decodeAIConfig(raw []byte) (*AIConfig, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil, nil
	}
	var cfg AIConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
