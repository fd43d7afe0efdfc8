// Package dispatch publishes and consumes AI-processing jobs over a
// Redis Stream. Delivery is at-least-once: entries stay pending until
// acknowledged, and consumers must tolerate duplicates.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// MessageTypeAIProcessing tags every job for routing and filtering.
const MessageTypeAIProcessing = "ai-processing-request"

// Job references a persisted user message that needs an AI reply.
type Job struct {
	ChatID        string `json:"chatId"`
	BotID         string `json:"botId"`
	UserMessage   string `json:"userMessage"`
	UserMessageID string `json:"userMessageId"`
	Timestamp     int64  `json:"timestamp"`
	Source        string `json:"source"`
	Platform      string `json:"platform"`
	UserID        string `json:"userId,omitempty"`
	RoomKey       string `json:"roomKey"`
}

// Queue is a Redis Streams job queue.
type Queue struct {
	client *redis.Client
	stream string
	group  string
	logger *slog.Logger
}

// NewQueue connects to Redis and ensures the consumer group exists.
func NewQueue(ctx context.Context, log *slog.Logger, redisURL, stream, group string) (*Queue, error) {
	if log == nil {
		log = slog.Default()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	q := &Queue{
		client: client,
		stream: stream,
		group:  group,
		logger: log.With(slog.String("service", "dispatch")),
	}
	if err := q.ensureGroup(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}

// Publish appends one job to the stream and returns its entry id.
// The call does not retry: webhook redelivery is the caller's retry
// mechanism.
func (q *Queue) Publish(ctx context.Context, job Job) (string, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{
			"body":        string(body),
			"chatId":      job.ChatID,
			"botId":       job.BotID,
			"messageType": MessageTypeAIProcessing,
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publish job: %w", err)
	}

	q.logger.Info("ai job enqueued",
		slog.String("chat_id", job.ChatID),
		slog.String("bot_id", job.BotID),
		slog.String("entry_id", id))
	return id, nil
}

// Delivery is one received job together with its stream entry id.
type Delivery struct {
	EntryID string
	Job     Job
}

// Receive blocks until up to count jobs are available for the given
// consumer, or the context is done. Entries remain pending until Ack.
func (q *Queue) Receive(ctx context.Context, consumer string, count int64, block time.Duration) ([]Delivery, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read group: %w", err)
	}

	var deliveries []Delivery
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			raw, _ := entry.Values["body"].(string)
			var job Job
			if err := json.Unmarshal([]byte(raw), &job); err != nil {
				// Poison entry: ack it away so it cannot wedge the group.
				q.logger.Error("dropping undecodable job",
					slog.String("entry_id", entry.ID), slog.Any("error", err))
				_ = q.Ack(ctx, entry.ID)
				continue
			}
			deliveries = append(deliveries, Delivery{EntryID: entry.ID, Job: job})
		}
	}
	return deliveries, nil
}

// Ack marks a delivery as processed.
func (q *Queue) Ack(ctx context.Context, entryID string) error {
	if err := q.client.XAck(ctx, q.stream, q.group, entryID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", entryID, err)
	}
	return nil
}

// Health verifies the queue is reachable.
func (q *Queue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
