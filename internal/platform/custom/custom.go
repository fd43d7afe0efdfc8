// Package custom implements the first-party chat UI platform. Unlike
// the third-party channels it talks to our own store: messages are
// gated on an existing active chat room, binary payloads arrive inline
// as base64, and user messages trigger an AI job on the queue.
package custom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chatrouter/chatrouter/internal/dispatch"
	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/platform"
	"github.com/chatrouter/chatrouter/internal/signature"
	"github.com/chatrouter/chatrouter/internal/store"
	"github.com/chatrouter/chatrouter/internal/timeutil"
)

const headerSignature = "X-Custom-Signature"

// RoomStore is the chat-room lookup the platform needs from the store.
type RoomStore interface {
	GetChatRoom(ctx context.Context, chatID string) (store.ChatRoom, error)
	GetBotSettings(ctx context.Context, botID string) (store.BotSettings, error)
}

// Publisher enqueues AI processing jobs.
type Publisher interface {
	Publish(ctx context.Context, job dispatch.Job) (string, error)
}

type payload struct {
	ChatID        string `json:"chatId"`
	RoomID        string `json:"roomId"`
	UserID        string `json:"userId"`
	SenderID      string `json:"senderId"`
	Text          string `json:"text"`
	Timestamp     any    `json:"timestamp"`
	ContentType   string `json:"contentType"`
	BinaryData    string `json:"binaryData"`
	FileExtension string `json:"fileExtension"`
}

// Platform handles first-party chat UI webhooks.
type Platform struct {
	secret string
	rooms  RoomStore
	queue  Publisher
	logger *slog.Logger
}

func New(log *slog.Logger, secret string, rooms RoomStore, queue Publisher) *Platform {
	if log == nil {
		log = slog.Default()
	}
	logger := log.With(slog.String("platform", "custom"))
	if secret == "" {
		logger.Warn("secret not configured, webhook signature verification is DISABLED")
	}
	return &Platform{secret: secret, rooms: rooms, queue: queue, logger: logger}
}

func (p *Platform) Name() message.Platform {
	return message.PlatformCustom
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body against
// the X-Custom-Signature header.
func (p *Platform) VerifySignature(req platform.Request) bool {
	if p.secret == "" {
		return true
	}
	provided := req.HeaderValue(headerSignature)
	if provided == "" {
		return false
	}
	expected := signature.HMACSHA256Hex(p.secret, req.RawBody)
	return signature.Equal(expected, provided)
}

// PreProcess rejects messages for chat rooms that do not exist or have
// been deactivated, before anything is persisted.
func (p *Platform) PreProcess(ctx context.Context, body []byte) (*platform.ShortCircuit, error) {
	var pl payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return nil, nil
	}
	if pl.ChatID == "" || p.rooms == nil {
		return nil, nil
	}

	room, err := p.rooms.GetChatRoom(ctx, pl.ChatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("chat room not found", slog.String("chat_id", pl.ChatID))
			return &platform.ShortCircuit{
				StatusCode: 404,
				Body: map[string]string{
					"error":   "Chat room not found",
					"message": "chat room must be created before sending messages",
				},
			}, nil
		}
		return nil, fmt.Errorf("verify chat room: %w", err)
	}
	if !room.IsActive {
		p.logger.Warn("chat room is inactive", slog.String("chat_id", pl.ChatID))
		return &platform.ShortCircuit{
			StatusCode: 403,
			Body: map[string]string{
				"error":   "Chat room inactive",
				"message": "chat room has been deactivated",
			},
		}, nil
	}
	return nil, nil
}

// Normalize requires a room id, a sender id and text. chatId doubles as
// roomId and userId as senderId when the dedicated fields are absent.
func (p *Platform) Normalize(body []byte) (message.Message, bool) {
	var pl payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return message.Message{}, false
	}

	roomID := pl.RoomID
	if roomID == "" {
		roomID = pl.ChatID
	}
	senderID := pl.SenderID
	if senderID == "" {
		senderID = pl.UserID
	}
	if roomID == "" || senderID == "" || pl.Text == "" {
		p.logger.Warn("missing required fields in payload")
		return message.Message{}, false
	}

	contentType := message.ContentType(pl.ContentType)
	if contentType == "" {
		contentType = message.ContentText
	}
	if pl.BinaryData != "" && pl.ContentType == "" {
		contentType = message.ContentFile
	}

	return message.Message{
		Platform:    message.PlatformCustom,
		RoomKey:     message.RoomKeyFor(message.PlatformCustom, roomID),
		SenderID:    senderID,
		TimestampMs: timeutil.ParseToMillis(pl.Timestamp),
		Role:        message.RoleUser,
		Text:        pl.Text,
		ContentType: contentType,
	}, true
}

// InlineBinary exposes the base64 payload carried in the request body.
func (p *Platform) InlineBinary(body []byte) (string, string, bool) {
	var pl payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return "", "", false
	}
	if pl.BinaryData == "" {
		return "", "", false
	}
	return pl.BinaryData, pl.FileExtension, true
}

// PostProcess triggers AI processing for user messages with text. The
// chat room resolves the bot, the bot settings gate the trigger, and a
// job lands on the queue. Failures here never affect the webhook
// response.
func (p *Platform) PostProcess(ctx context.Context, msg message.Message, body []byte) error {
	if msg.Role != message.RoleUser || msg.Text == "" {
		return nil
	}
	if p.rooms == nil || p.queue == nil {
		return nil
	}

	var pl payload
	if err := json.Unmarshal(body, &pl); err != nil {
		return nil
	}
	if pl.ChatID == "" {
		p.logger.Warn("no chatId, skipping AI processing trigger")
		return nil
	}

	room, err := p.rooms.GetChatRoom(ctx, pl.ChatID)
	if err != nil {
		return fmt.Errorf("resolve chat room: %w", err)
	}
	if room.BotID == "" {
		p.logger.Warn("no botId in chat room", slog.String("chat_id", pl.ChatID))
		return nil
	}

	bot, err := p.rooms.GetBotSettings(ctx, room.BotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.logger.Warn("bot not found", slog.String("bot_id", room.BotID))
			return nil
		}
		return fmt.Errorf("resolve bot settings: %w", err)
	}
	if !bot.HasInference() {
		p.logger.Info("AI processing skipped", slog.String("bot_id", room.BotID))
		return nil
	}

	userID := pl.UserID
	if userID == "" {
		userID = "unknown"
	}

	job := dispatch.Job{
		ChatID:        pl.ChatID,
		BotID:         room.BotID,
		UserMessage:   msg.Text,
		UserMessageID: timeutil.NewTimeOrderedID(),
		Timestamp:     timeutil.NowMillis(),
		Source:        "custom-ui",
		Platform:      string(message.PlatformCustom),
		UserID:        userID,
		RoomKey:       msg.RoomKey,
	}
	entryID, err := p.queue.Publish(ctx, job)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	p.logger.Info("AI processing triggered",
		slog.String("chat_id", pl.ChatID),
		slog.String("bot_id", room.BotID),
		slog.String("entry_id", entryID))
	return nil
}
