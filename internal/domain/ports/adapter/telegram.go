package adapter

import "context"

// Button is one inline keyboard button. URL buttons open a link; Data buttons
// send a callback token back to the bot.
type Button struct {
	Text string
	Data string
	URL  string
}

type ReplyMarkup struct {
	Buttons [][]Button
}

// SendMessageParams describes one outbound message. For photos, Text is the caption.
type SendMessageParams struct {
	ChatID      int64
	Text        string
	PhotoURL    string
	ParseMode   string
	ReplyMarkup *ReplyMarkup
}

// TelegramBotAdapter is the message transport port. Send methods return the
// transport message id so the conversation engine can delete it later.
type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, params SendMessageParams) (int, error)
	SendPhoto(ctx context.Context, params SendMessageParams) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type EventKind string

const (
	EventCommand  EventKind = "command"
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// InboundEvent is a transport-neutral inbound update.
type InboundEvent struct {
	Kind       EventKind
	ChatID     int64
	Username   string
	Text       string // command line or free text
	MessageID  int    // inbound message id (text/command) or the message carrying the button
	CallbackID string
	Data       string // callback payload
	TraceID    string
}
