//go:build !integration

package session

import (
	"context"
	"errors"
	"sync"

	"telegram-shop-bot/internal/domain/ports/adapter"
)

// fakeBot records which messages are visible in each chat.
type fakeBot struct {
	mu       sync.Mutex
	nextID   int
	visible  map[int64]map[int]string
	sent     []adapter.SendMessageParams
	deletes  int
	failSend bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{visible: make(map[int64]map[int]string)}
}

func (b *fakeBot) SendMessage(_ context.Context, p adapter.SendMessageParams) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSend {
		return 0, errors.New("send failed")
	}
	b.nextID++
	if b.visible[p.ChatID] == nil {
		b.visible[p.ChatID] = make(map[int]string)
	}
	b.visible[p.ChatID][b.nextID] = p.Text
	b.sent = append(b.sent, p)
	return b.nextID, nil
}

func (b *fakeBot) SendPhoto(ctx context.Context, p adapter.SendMessageParams) (int, error) {
	return b.SendMessage(ctx, p)
}

func (b *fakeBot) DeleteMessage(_ context.Context, chatID int64, id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes++
	if _, ok := b.visible[chatID][id]; !ok {
		return errors.New("message to delete not found")
	}
	delete(b.visible[chatID], id)
	return nil
}

func (b *fakeBot) AnswerCallback(context.Context, string, string) error { return nil }

func (b *fakeBot) visibleTexts(chatID int64) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, t := range b.visible[chatID] {
		out = append(out, t)
	}
	return out
}

func (b *fakeBot) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}
