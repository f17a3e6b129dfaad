//go:build !integration

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"telegram-shop-bot/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func screen(text string) RenderFunc {
	return func(context.Context) (adapter.SendMessageParams, error) {
		return adapter.SendMessageParams{Text: text}, nil
	}
}

func newTestLifecycle(bot *fakeBot, clock Clock, onExpire func(int64)) *Lifecycle {
	logger := zerolog.Nop()
	notice := func(context.Context, int64) string { return "notice" }
	return NewLifecycle(bot, clock, LifecycleConfig{Retention: 6 * time.Hour, NoticeTTL: time.Hour, OnExpire: onExpire}, notice, &logger)
}

func TestLifecycle_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep at most one visible message", func(t *testing.T) {
		bot := newFakeBot()
		lc := newTestLifecycle(bot, NewFakeClock(time.Unix(0, 0)), nil)

		for i := 0; i < 5; i++ {
			text := fmt.Sprintf("screen-%d", i)
			id, err := lc.Replace(ctx, 1, screen(text))
			if err != nil {
				t.Fatalf("expected no error, but got: %v", err)
			}
			vis := bot.visibleTexts(1)
			if len(vis) != 1 || vis[0] != text {
				t.Fatalf("expected only %q visible, but got %v", text, vis)
			}
			if tr := lc.Tracked(1); len(tr) != 1 || tr[0] != id {
				t.Fatalf("expected tracked [%d], but got %v", id, tr)
			}
		}
	})

	t.Run("should delete appended auxiliary messages too", func(t *testing.T) {
		bot := newFakeBot()
		lc := newTestLifecycle(bot, NewFakeClock(time.Unix(0, 0)), nil)

		if _, err := lc.Replace(ctx, 1, screen("photo")); err != nil {
			t.Fatal(err)
		}
		if _, err := lc.Append(ctx, 1, adapter.SendMessageParams{Text: "details"}); err != nil {
			t.Fatal(err)
		}
		if n := len(bot.visibleTexts(1)); n != 2 {
			t.Fatalf("expected 2 visible messages, but got %d", n)
		}
		if _, err := lc.Replace(ctx, 1, screen("menu")); err != nil {
			t.Fatal(err)
		}
		if vis := bot.visibleTexts(1); len(vis) != 1 || vis[0] != "menu" {
			t.Fatalf("expected only menu visible, but got %v", vis)
		}
	})

	t.Run("should swallow failed deletions", func(t *testing.T) {
		bot := newFakeBot()
		lc := newTestLifecycle(bot, NewFakeClock(time.Unix(0, 0)), nil)
		lc.Track(1, 999) // never sent, delete fails

		if _, err := lc.Replace(ctx, 1, screen("menu")); err != nil {
			t.Fatalf("expected delete failure to be ignored, but got: %v", err)
		}
	})

	t.Run("should propagate send failures", func(t *testing.T) {
		bot := newFakeBot()
		bot.failSend = true
		lc := newTestLifecycle(bot, NewFakeClock(time.Unix(0, 0)), nil)

		if _, err := lc.Replace(ctx, 1, screen("menu")); err == nil {
			t.Fatal("expected send error, but got nil")
		}
	})

	t.Run("should propagate render failures", func(t *testing.T) {
		bot := newFakeBot()
		lc := newTestLifecycle(bot, NewFakeClock(time.Unix(0, 0)), nil)
		want := errors.New("boom")

		_, err := lc.Replace(ctx, 1, func(context.Context) (adapter.SendMessageParams, error) {
			return adapter.SendMessageParams{}, want
		})
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, but got %v", want, err)
		}
		if bot.sentCount() != 0 {
			t.Errorf("expected nothing sent, but got %d", bot.sentCount())
		}
	})

	t.Run("should keep chats independent", func(t *testing.T) {
		bot := newFakeBot()
		lc := newTestLifecycle(bot, NewFakeClock(time.Unix(0, 0)), nil)

		var wg sync.WaitGroup
		for chat := int64(1); chat <= 20; chat++ {
			wg.Add(1)
			go func(chat int64) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					_, _ = lc.Replace(ctx, chat, screen("s"))
				}
			}(chat)
		}
		wg.Wait()
		for chat := int64(1); chat <= 20; chat++ {
			if n := len(bot.visibleTexts(chat)); n != 1 {
				t.Errorf("expected 1 visible message in chat %d, but got %d", chat, n)
			}
		}
	})
}

func TestLifecycle_ExpiryCascade(t *testing.T) {
	ctx := context.Background()
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	bot := newFakeBot()
	expired := 0
	lc := newTestLifecycle(bot, clock, func(int64) { expired++ })

	if _, err := lc.Replace(ctx, 7, screen("hello")); err != nil {
		t.Fatal(err)
	}

	clock.Advance(6*time.Hour - time.Second)
	if vis := bot.visibleTexts(7); len(vis) != 1 || vis[0] != "hello" {
		t.Fatalf("expected message to survive before 6h, but got %v", vis)
	}

	clock.Advance(time.Second)
	if vis := bot.visibleTexts(7); len(vis) != 1 || vis[0] != "notice" {
		t.Fatalf("expected only the notice at T0+6h, but got %v", vis)
	}
	if expired != 1 {
		t.Errorf("expected OnExpire once, but got %d", expired)
	}

	clock.Advance(time.Hour)
	if vis := bot.visibleTexts(7); len(vis) != 0 {
		t.Fatalf("expected empty chat at T0+7h, but got %v", vis)
	}

	sent := bot.sentCount()
	clock.Advance(48 * time.Hour)
	if bot.sentCount() != sent {
		t.Errorf("expected no automatic messages after the cascade, but got %d more", bot.sentCount()-sent)
	}
	if clock.Pending() != 0 {
		t.Errorf("expected no armed timers, but got %d", clock.Pending())
	}
}

func TestLifecycle_TimerResetsOnReplace(t *testing.T) {
	ctx := context.Background()
	clock := NewFakeClock(time.Unix(0, 0))
	bot := newFakeBot()
	lc := newTestLifecycle(bot, clock, nil)

	if _, err := lc.Replace(ctx, 1, screen("a")); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5 * time.Hour)
	if _, err := lc.Replace(ctx, 1, screen("b")); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5 * time.Hour)
	if vis := bot.visibleTexts(1); len(vis) != 1 || vis[0] != "b" {
		t.Fatalf("expected window measured from last activity, but got %v", vis)
	}
	if clock.Pending() != 1 {
		t.Errorf("expected exactly one armed timer, but got %d", clock.Pending())
	}
}

func TestLifecycle_NewScreenRemovesNotice(t *testing.T) {
	ctx := context.Background()
	clock := NewFakeClock(time.Unix(0, 0))
	bot := newFakeBot()
	lc := newTestLifecycle(bot, clock, nil)

	_, _ = lc.Replace(ctx, 1, screen("a"))
	clock.Advance(6 * time.Hour)
	if _, err := lc.Replace(ctx, 1, screen("b")); err != nil {
		t.Fatal(err)
	}
	if vis := bot.visibleTexts(1); len(vis) != 1 || vis[0] != "b" {
		t.Fatalf("expected notice to be removed by the next screen, but got %v", vis)
	}
	deletes := bot.deletes
	clock.Advance(time.Hour)
	if bot.deletes != deletes {
		t.Errorf("expected the stale notice timer to be cancelled")
	}
}

func TestLifecycle_CancelTimer(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	bot := newFakeBot()
	lc := newTestLifecycle(bot, clock, nil)

	_, _ = lc.Replace(context.Background(), 1, screen("a"))
	lc.CancelTimer(1)
	clock.Advance(24 * time.Hour)
	if vis := bot.visibleTexts(1); len(vis) != 1 || vis[0] != "a" {
		t.Fatalf("expected cancelled timer to keep the message, but got %v", vis)
	}
}

func TestLifecycle_ReclaimsIdleConversations(t *testing.T) {
	ctx := context.Background()

	t.Run("should forget a chat once the notice is gone", func(t *testing.T) {
		clock := NewFakeClock(time.Unix(0, 0))
		bot := newFakeBot()
		lc := newTestLifecycle(bot, clock, nil)

		for chat := int64(1); chat <= 3; chat++ {
			if _, err := lc.Replace(ctx, chat, screen("hello")); err != nil {
				t.Fatal(err)
			}
		}
		if n := lc.Conversations(); n != 3 {
			t.Fatalf("expected 3 conversations, but got %d", n)
		}
		clock.Advance(6 * time.Hour)
		if n := lc.Conversations(); n != 3 {
			t.Fatalf("expected records to survive while notices are visible, but got %d", n)
		}
		clock.Advance(time.Hour)
		if n := lc.Conversations(); n != 0 {
			t.Fatalf("expected every record to be reclaimed, but got %d", n)
		}
	})

	t.Run("should forget a chat whose notice could not be sent", func(t *testing.T) {
		clock := NewFakeClock(time.Unix(0, 0))
		bot := newFakeBot()
		lc := newTestLifecycle(bot, clock, nil)

		_, _ = lc.Replace(ctx, 1, screen("hello"))
		bot.failSend = true
		clock.Advance(6 * time.Hour)
		if n := lc.Conversations(); n != 0 {
			t.Fatalf("expected the record to be reclaimed, but got %d", n)
		}
		if clock.Pending() != 0 {
			t.Errorf("expected no armed timers, but got %d", clock.Pending())
		}
	})

	t.Run("should start afresh after reclamation", func(t *testing.T) {
		clock := NewFakeClock(time.Unix(0, 0))
		bot := newFakeBot()
		lc := newTestLifecycle(bot, clock, nil)

		_, _ = lc.Replace(ctx, 1, screen("a"))
		clock.Advance(7 * time.Hour)
		id, err := lc.Replace(ctx, 1, screen("b"))
		if err != nil {
			t.Fatal(err)
		}
		if got := lc.Tracked(1); len(got) != 1 || got[0] != id {
			t.Fatalf("expected the new screen to be tracked, but got %v", got)
		}
		if vis := bot.visibleTexts(1); len(vis) != 1 || vis[0] != "b" {
			t.Fatalf("expected only the new screen, but got %v", vis)
		}
		clock.Advance(6 * time.Hour)
		if vis := bot.visibleTexts(1); len(vis) != 1 || vis[0] != "notice" {
			t.Errorf("expected the retention timer to be re-armed, but got %v", vis)
		}
	})
}
