package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain/ports/adapter"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs outbound calls instead of reaching Telegram. It is used
// for local runs with bot.mode=noop.
type NoopBotAdapter struct {
	nextID atomic.Int64
	log    *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := int(b.nextID.Add(1))
	b.log.Info().Int64("chat_id", p.ChatID).Int("message_id", id).Str("text", p.Text).Msg("send message")
	return id, nil
}

func (b *NoopBotAdapter) SendPhoto(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := int(b.nextID.Add(1))
	b.log.Info().Int64("chat_id", p.ChatID).Int("message_id", id).Str("photo", p.PhotoURL).Msg("send photo")
	return id, nil
}

func (b *NoopBotAdapter) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	b.log.Debug().Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete message")
	return nil
}

func (b *NoopBotAdapter) AnswerCallback(_ context.Context, callbackID, text string) error {
	b.log.Debug().Str("callback_id", callbackID).Str("text", text).Msg("answer callback")
	return nil
}
