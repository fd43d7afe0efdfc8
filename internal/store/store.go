// Package store persists canonical messages and reads chat-room and
// bot-settings records from Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/prune"
)

// Store wraps a pgx pool. All methods are safe for concurrent use.
type Store struct {
	pool       *pgxpool.Pool
	logger     *slog.Logger
	messageTTL time.Duration
}

// New creates a Store. messageTTL controls how long persisted messages
// are retained before the expiry sweep removes them.
func New(log *slog.Logger, pool *pgxpool.Pool, messageTTL time.Duration) *Store {
	if log == nil {
		log = slog.Default()
	}
	if messageTTL <= 0 {
		messageTTL = 24 * time.Hour
	}
	return &Store{
		pool:       pool,
		logger:     log.With(slog.String("service", "store")),
		messageTTL: messageTTL,
	}
}

// Open connects a pgx pool and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// SaveMessage upserts one canonical message keyed by (room_key, ts_ms).
// Writing the same key twice replaces the row, which makes duplicate
// webhook deliveries idempotent by construction of the key.
func (s *Store) SaveMessage(ctx context.Context, msg message.Message) error {
	expiresAt := time.Now().Add(s.messageTTL)
	msg.Text = prune.Clip(msg.Text, prune.DefaultMaxBytes)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (room_key, ts_ms, platform, sender_id, role, text, content_type, blob_ref, expires_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9)
		ON CONFLICT (room_key, ts_ms) DO UPDATE SET
			platform = EXCLUDED.platform,
			sender_id = EXCLUDED.sender_id,
			role = EXCLUDED.role,
			text = EXCLUDED.text,
			content_type = EXCLUDED.content_type,
			blob_ref = EXCLUDED.blob_ref,
			expires_at = EXCLUDED.expires_at`,
		msg.RoomKey, msg.TimestampMs, string(msg.Platform), msg.SenderID,
		string(msg.Role), msg.Text, string(msg.ContentType), msg.BlobRef, expiresAt)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	s.logger.Info("message saved",
		slog.String("room_key", msg.RoomKey),
		slog.Int64("ts_ms", msg.TimestampMs),
		slog.String("content_type", string(msg.ContentType)))
	return nil
}

// RecentMessages returns up to limit messages for a room in
// chronological order. The newest rows are selected first, then
// reversed, matching how conversation context is assembled.
func (s *Store) RecentMessages(ctx context.Context, roomKey string, limit int32) ([]message.Message, error) {
	if limit <= 0 {
		limit = 6
	}
	rows, err := s.pool.Query(ctx, `
		SELECT room_key, ts_ms, platform, sender_id, role, COALESCE(text, ''), content_type, COALESCE(blob_ref, '')
		FROM messages
		WHERE room_key = $1
		ORDER BY ts_ms DESC
		LIMIT $2`, roomKey, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []message.Message
	for rows.Next() {
		var m message.Message
		var platform, role, contentType string
		if err := rows.Scan(&m.RoomKey, &m.TimestampMs, &platform, &m.SenderID, &role, &m.Text, &contentType, &m.BlobRef); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Platform = message.Platform(platform)
		m.Role = message.Role(role)
		m.ContentType = message.ContentType(contentType)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetChatRoom loads one chat room by id. Returns ErrNotFound when the
// room does not exist.
func (s *Store) GetChatRoom(ctx context.Context, chatID string) (ChatRoom, error) {
	var room ChatRoom
	err := s.pool.QueryRow(ctx, `
		SELECT chat_id, title, user_id, bot_id, bot_name, is_active, message_count, COALESCE(last_message, ''), created_at, updated_at
		FROM chat_rooms
		WHERE chat_id = $1`, chatID).Scan(
		&room.ChatID, &room.Title, &room.UserID, &room.BotID, &room.BotName,
		&room.IsActive, &room.MessageCount, &room.LastMessage, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ChatRoom{}, ErrNotFound
	}
	if err != nil {
		return ChatRoom{}, fmt.Errorf("get chat room: %w", err)
	}
	return room, nil
}

// GetBotSettings loads one bot record by id. Returns ErrNotFound when
// the bot does not exist.
func (s *Store) GetBotSettings(ctx context.Context, botID string) (BotSettings, error) {
	var bot BotSettings
	var aiConfigRaw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT bot_id, bot_name, is_active, ai_config
		FROM bot_settings
		WHERE bot_id = $1`, botID).Scan(&bot.BotID, &bot.BotName, &bot.IsActive, &aiConfigRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return BotSettings{}, ErrNotFound
	}
	if err != nil {
		return BotSettings{}, fmt.Errorf("get bot settings: %w", err)
	}

	cfg, err := decodeAIConfig(aiConfigRaw)
	if err != nil {
		s.logger.Warn("invalid ai_config, treating bot as not inference-enabled",
			slog.String("bot_id", botID), slog.Any("error", err))
	} else {
		bot.AIConfig = cfg
	}
	return bot, nil
}

// TouchChatRoom bumps a room's bookkeeping after a new turn.
func (s *Store) TouchChatRoom(ctx context.Context, chatID, lastMessage string) error {
	lastMessage = prune.Preview(lastMessage, prune.PreviewRunes)
	_, err := s.pool.Exec(ctx, `
		UPDATE chat_rooms
		SET message_count = message_count + 1,
			last_message = $2,
			updated_at = now()
		WHERE chat_id = $1`, chatID, lastMessage)
	if err != nil {
		return fmt.Errorf("touch chat room: %w", err)
	}
	return nil
}

// DeleteExpiredMessages removes rows past their expiry. Intended to be
// run periodically; it is not part of the request path.
func (s *Store) DeleteExpiredMessages(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
