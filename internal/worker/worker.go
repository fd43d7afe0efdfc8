// Package worker consumes AI processing jobs, runs inference and
// persists the assistant reply. Delivery is at-least-once; processing
// is idempotent because replies are keyed by (roomKey, ts) and a
// duplicate run just produces one more reply row.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/chatrouter/chatrouter/internal/dispatch"
	"github.com/chatrouter/chatrouter/internal/inference"
	"github.com/chatrouter/chatrouter/internal/message"
	"github.com/chatrouter/chatrouter/internal/modelselect"
	"github.com/chatrouter/chatrouter/internal/store"
	"github.com/chatrouter/chatrouter/internal/timeutil"
)

// JobQueue is the consumer side of the dispatch queue.
type JobQueue interface {
	Receive(ctx context.Context, consumer string, count int64, block time.Duration) ([]dispatch.Delivery, error)
	Ack(ctx context.Context, entryID string) error
}

// Store covers what processing a job needs from persistence.
type Store interface {
	GetBotSettings(ctx context.Context, botID string) (store.BotSettings, error)
	RecentMessages(ctx context.Context, roomKey string, limit int32) ([]message.Message, error)
	SaveMessage(ctx context.Context, msg message.Message) error
	TouchChatRoom(ctx context.Context, chatID, lastMessage string) error
}

// Inferencer runs one completion call.
type Inferencer interface {
	Invoke(ctx context.Context, modelID string, msgs []openai.ChatCompletionMessage, params modelselect.Params, systemPrompt string) (inference.Reply, error)
}

// Worker drains the job queue.
type Worker struct {
	queue        JobQueue
	store        Store
	selector     *modelselect.Selector
	inferencer   Inferencer
	consumer     string
	historyLimit int32
	logger       *slog.Logger
}

func New(log *slog.Logger, queue JobQueue, st Store, selector *modelselect.Selector, inferencer Inferencer, consumer string, historyLimit int32) *Worker {
	if log == nil {
		log = slog.Default()
	}
	if consumer == "" {
		consumer = "worker-" + uuid.NewString()
	}
	if historyLimit <= 0 {
		historyLimit = 6
	}
	return &Worker{
		queue:        queue,
		store:        st,
		selector:     selector,
		inferencer:   inferencer,
		consumer:     consumer,
		historyLimit: historyLimit,
		logger:       log.With(slog.String("service", "worker"), slog.String("consumer", consumer)),
	}
}

// Run blocks until ctx is cancelled, pulling and processing jobs.
// Failed jobs are left unacked so the group redelivers them.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return ctx.Err()
		default:
		}

		deliveries, err := w.queue.Receive(ctx, w.consumer, 10, 5*time.Second)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			w.logger.Error("receive failed", slog.Any("error", err))
			time.Sleep(time.Second)
			continue
		}

		for _, d := range deliveries {
			if err := w.ProcessJob(ctx, d.Job); err != nil {
				w.logger.Error("job failed, leaving for redelivery",
					slog.String("entry_id", d.EntryID),
					slog.String("chat_id", d.Job.ChatID),
					slog.Any("error", err))
				continue
			}
			if err := w.queue.Ack(ctx, d.EntryID); err != nil {
				w.logger.Error("ack failed", slog.String("entry_id", d.EntryID), slog.Any("error", err))
			}
		}
	}
}

// ProcessJob generates and persists one assistant reply.
func (w *Worker) ProcessJob(ctx context.Context, job dispatch.Job) error {
	log := w.logger.With(slog.String("chat_id", job.ChatID), slog.String("bot_id", job.BotID))

	bot, err := w.store.GetBotSettings(ctx, job.BotID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The bot disappeared since dispatch; nothing to retry.
			log.Warn("bot not found, dropping job")
			return nil
		}
		return fmt.Errorf("load bot settings: %w", err)
	}
	if !bot.HasInference() {
		log.Info("bot no longer eligible for inference, dropping job")
		return nil
	}

	modelID := w.selector.Select(job.UserMessage, bot.AIConfig)
	params := resolveParams(modelID, bot.AIConfig)

	history, err := w.store.RecentMessages(ctx, job.RoomKey, w.historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	contextLength := 0
	for _, h := range history {
		contextLength += len(h.Text)
	}
	if !w.selector.ValidateSelection(modelID, len(job.UserMessage), contextLength) {
		// Shed history rather than fail the job outright.
		log.Warn("context too large, dropping history for this turn")
		history = nil
	}

	msgs := inference.BuildMessages(history, job.UserMessage)
	reply, err := w.inferencer.Invoke(ctx, modelID, msgs, params, bot.AIConfig.SystemPrompt)
	if err != nil {
		return fmt.Errorf("inference: %w", err)
	}

	assistant := message.Message{
		Platform:    message.Platform(job.Platform),
		RoomKey:     job.RoomKey,
		SenderID:    job.BotID,
		TimestampMs: timeutil.NowMillis(),
		Role:        message.RoleAssistant,
		Text:        reply.Text,
		ContentType: message.ContentText,
	}
	if err := w.store.SaveMessage(ctx, assistant); err != nil {
		return fmt.Errorf("persist reply: %w", err)
	}

	if err := w.store.TouchChatRoom(ctx, job.ChatID, reply.Text); err != nil {
		// The reply is saved; room bookkeeping is best effort.
		log.Warn("failed to update chat room", slog.Any("error", err))
	}

	log.Info("reply generated",
		slog.String("model", modelID),
		slog.Int("total_tokens", reply.TotalTokens))
	return nil
}

// resolveParams starts from the model's recommended parameters and lets
// explicit bot config override them.
func resolveParams(modelID string, cfg *store.AIConfig) modelselect.Params {
	params := modelselect.RecommendedConfig(modelID)
	if cfg == nil {
		return params
	}
	if cfg.MaxTokens > 0 {
		params.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		params.Temperature = cfg.Temperature
	}
	if cfg.TopP > 0 {
		params.TopP = cfg.TopP
	}
	return params
}
