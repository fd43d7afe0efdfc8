// Package inference calls the chat-completion service that generates
// assistant replies.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chatrouter/chatrouter/internal/config"
	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/modelselect"
)

// Reply is a completed inference call.
type Reply struct {
	Text        string
	TotalTokens int
}

// Client wraps the completion API with a per-call timeout.
type Client struct {
	api     *openai.Client
	timeout time.Duration
	logger  *slog.Logger
}

func New(log *slog.Logger, cfg config.InferenceConfig) *Client {
	if log == nil {
		log = slog.Default()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		timeout: timeout,
		logger:  log.With(slog.String("service", "inference")),
	}
}

// BuildMessages converts stored history plus the triggering text into
// completion messages. History entries without text (pure attachments)
// are skipped.
func BuildMessages(history []message.Message, userText string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, h := range history {
		if h.Text == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		if h.Role == message.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: h.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})
	return msgs
}

// Invoke runs one completion. A non-empty systemPrompt is prepended as
// a system message.
func (c *Client) Invoke(ctx context.Context, modelID string, msgs []openai.ChatCompletionMessage, params modelselect.Params, systemPrompt string) (Reply, error) {
	if systemPrompt != "" {
		msgs = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		}, msgs...)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       modelID,
		Messages:    msgs,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.New("no response choices returned")
	}

	c.logger.Info("completion finished",
		slog.String("model", modelID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		slog.Int("total_tokens", resp.Usage.TotalTokens))

	return Reply{
		Text:        resp.Choices[0].Message.Content,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}
