package usecase

import (
	"context"
	"strings"
	"time"

	"telegram-shop-bot/internal/domain"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/worker"

	"github.com/rs/zerolog"
)

// ConversationAppender sends a message into a chat's tracked conversation so it
// vanishes together with the rest of the history.
type ConversationAppender interface {
	Append(ctx context.Context, chatID int64, params adapter.SendMessageParams) (int, error)
}

type BroadcastUseCase interface {
	// BroadcastMessage queues text for every chat id and returns how many were queued.
	BroadcastMessage(ctx context.Context, chatIDs []int64, text string) (int, error)
}

type broadcastUC struct {
	conv       ConversationAppender
	workerPool *worker.Pool
	rate       time.Duration
	log        *zerolog.Logger
}

func NewBroadcastUseCase(
	conv ConversationAppender,
	pool *worker.Pool,
	logger *zerolog.Logger,
) BroadcastUseCase {
	l := logger.With().Str("component", "BroadcastUseCase").Logger()
	return &broadcastUC{
		conv:       conv,
		workerPool: pool,
		// Throttle to respect Telegram's API limits (approx. 30 messages/sec)
		rate: time.Second / 25,
		log:  &l,
	}
}

func (uc *broadcastUC) BroadcastMessage(ctx context.Context, chatIDs []int64, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, domain.ErrInvalidArgument
	}
	targets := dedupeChats(chatIDs)
	if len(targets) == 0 {
		return 0, domain.ErrInvalidArgument
	}

	throttle := time.NewTicker(uc.rate)
	go func() {
		defer throttle.Stop()
		uc.log.Info().Int("chat_count", len(targets)).Msg("Starting broadcast job")

		for _, chatID := range targets {
			<-throttle.C
			if err := uc.workerPool.Submit(uc.createSendTask(chatID, text)); err != nil {
				uc.log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to submit broadcast task to worker pool")
			}
		}
		uc.log.Info().Msg("Broadcast job finished queuing all tasks")
	}()

	return len(targets), nil
}

// createSendTask creates a closure for the worker pool to execute.
func (uc *broadcastUC) createSendTask(chatID int64, text string) worker.Task {
	return func(ctx context.Context) error {
		if _, err := uc.conv.Append(ctx, chatID, adapter.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
			// e.g. the chat blocked the bot
			uc.log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send broadcast message")
			return err
		}
		return nil
	}
}

func dedupeChats(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
