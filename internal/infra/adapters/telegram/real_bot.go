package telegram

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"telegram-shop-bot/internal/config"
	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/metrics"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// Telegram allows roughly 30 messages per second per bot.
const (
	sendRatePerSecond = 25
	sendBurst         = 5
)

// DispatchFunc hands a converted update to the per-chat dispatcher.
type DispatchFunc func(ctx context.Context, ev adapter.InboundEvent) error

// RealTelegramBotAdapter talks to the Bot API through tgbotapi and long polling.
type RealTelegramBotAdapter struct {
	bot     *tgbotapi.BotAPI
	cfg     *config.BotConfig
	limiter *rate.Limiter
	log     *zerolog.Logger

	ready         atomic.Bool
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "TelegramBot").Str("bot", bot.Self.UserName).Logger()
	return &RealTelegramBotAdapter{
		bot:     bot,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(sendRatePerSecond), sendBurst),
		log:     &l,
	}, nil
}

// Ready reports whether polling is running.
func (b *RealTelegramBotAdapter) Ready() bool { return b.ready.Load() }

// StartPolling converts updates into events and passes them to dispatch until
// ctx is cancelled or StopPolling is called.
func (b *RealTelegramBotAdapter) StartPolling(ctx context.Context, dispatch DispatchFunc) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel
	b.ready.Store(true)
	defer b.ready.Store(false)
	b.log.Info().Msg("polling started")

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := toEvent(up)
			if !ok {
				continue
			}
			ev.TraceID = uuid.NewString()
			if err := dispatch(ctx, ev); err != nil {
				b.log.Warn().Err(err).Int64("chat_id", ev.ChatID).Msg("dispatch failed")
			}
		}
	}
}

func (b *RealTelegramBotAdapter) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

// toEvent maps a raw update; updates without a chat or text are skipped.
func toEvent(up tgbotapi.Update) (adapter.InboundEvent, bool) {
	if q := up.CallbackQuery; q != nil {
		ev := adapter.InboundEvent{Kind: adapter.EventCallback, CallbackID: q.ID, Data: strings.TrimSpace(q.Data)}
		if q.Message != nil && q.Message.Chat != nil {
			ev.ChatID = q.Message.Chat.ID
			ev.MessageID = q.Message.MessageID
		} else if q.From != nil {
			ev.ChatID = q.From.ID
		}
		if q.From != nil {
			ev.Username = q.From.UserName
		}
		return ev, ev.ChatID != 0
	}

	m := up.Message
	if m == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
		return adapter.InboundEvent{}, false
	}
	ev := adapter.InboundEvent{Kind: adapter.EventText, ChatID: m.Chat.ID, Text: m.Text, MessageID: m.MessageID}
	if m.IsCommand() {
		ev.Kind = adapter.EventCommand
	}
	if m.From != nil {
		ev.Username = m.From.UserName
	}
	return ev, true
}

func (b *RealTelegramBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	msg.ParseMode = p.ParseMode
	msg.DisableWebPagePreview = true
	if kb, ok := inlineMarkup(p.ReplyMarkup); ok {
		msg.ReplyMarkup = kb
	}
	sent, err := b.bot.Send(msg)
	if err != nil {
		metrics.IncTelegramSend("message", "error")
		return 0, err
	}
	metrics.IncTelegramSend("message", "ok")
	return sent.MessageID, nil
}

func (b *RealTelegramBotAdapter) SendPhoto(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	photo := tgbotapi.NewPhoto(p.ChatID, tgbotapi.FileURL(p.PhotoURL))
	photo.Caption = p.Text
	photo.ParseMode = p.ParseMode
	if kb, ok := inlineMarkup(p.ReplyMarkup); ok {
		photo.ReplyMarkup = kb
	}
	sent, err := b.bot.Send(photo)
	if err != nil {
		metrics.IncTelegramSend("photo", "error")
		return 0, err
	}
	metrics.IncTelegramSend("photo", "ok")
	return sent.MessageID, nil
}

func (b *RealTelegramBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// AnswerCallback acknowledges a button press. Telegram rejects answers to
// queries that are too old, which callers treat as a stale press.
func (b *RealTelegramBotAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// SetCommands publishes the slash-command menu.
func (b *RealTelegramBotAdapter) SetCommands(ctx context.Context, commands map[string]string, order []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list := make([]tgbotapi.BotCommand, 0, len(order))
	for _, name := range order {
		list = append(list, tgbotapi.BotCommand{Command: name, Description: commands[name]})
	}
	_, err := b.bot.Request(tgbotapi.NewSetMyCommands(list...))
	return err
}

func inlineMarkup(m *adapter.ReplyMarkup) (tgbotapi.InlineKeyboardMarkup, bool) {
	if m == nil || len(m.Buttons) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m.Buttons))
	for _, row := range m.Buttons {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			}
		}
		if len(r) > 0 {
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
