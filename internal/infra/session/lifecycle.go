package session

import (
	"context"
	"sync"
	"time"

	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/logging"
	"telegram-shop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// RenderFunc produces the next screen for a chat.
type RenderFunc func(ctx context.Context) (adapter.SendMessageParams, error)

// NoticeFunc returns the localized "history cleared" text for a chat.
type NoticeFunc func(ctx context.Context, chatID int64) string

type LifecycleConfig struct {
	Retention time.Duration
	NoticeTTL time.Duration
	// OnExpire runs after a conversation has been wiped by the retention timer.
	OnExpire func(chatID int64)
}

// conversation holds the visible bot messages of one chat. Every field is
// guarded by mu, which is never shared between chats.
type conversation struct {
	mu           sync.Mutex
	tracked      []int
	notice       int
	expiry       Timer
	expiryGen    uint64
	noticeTimer  Timer
	noticeGen    uint64
	lastActivity time.Time
	// removed is set once the record has been dropped from Lifecycle.convs.
	removed bool
}

func (c *conversation) idleLocked() bool {
	return len(c.tracked) == 0 && c.notice == 0 && c.expiry == nil && c.noticeTimer == nil
}

// Lifecycle enforces the auto-vanish policy: one visible bot message per chat,
// and full history deletion after the retention window.
type Lifecycle struct {
	bot    adapter.TelegramBotAdapter
	clock  Clock
	cfg    LifecycleConfig
	notice NoticeFunc
	logger *zerolog.Logger

	convs sync.Map // int64 -> *conversation
}

func NewLifecycle(bot adapter.TelegramBotAdapter, clock Clock, cfg LifecycleConfig, notice NoticeFunc, logger *zerolog.Logger) *Lifecycle {
	if clock == nil {
		clock = RealClock()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 6 * time.Hour
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = time.Hour
	}
	l := logger.With().Str("component", "Lifecycle").Logger()
	return &Lifecycle{bot: bot, clock: clock, cfg: cfg, notice: notice, logger: &l}
}

// Open ensures a conversation record exists for chatID.
func (l *Lifecycle) Open(chatID int64) {
	l.open(chatID)
}

func (l *Lifecycle) open(chatID int64) *conversation {
	if v, ok := l.convs.Load(chatID); ok {
		return v.(*conversation)
	}
	v, _ := l.convs.LoadOrStore(chatID, &conversation{})
	return v.(*conversation)
}

// acquire returns the live conversation for chatID with its mutex held.
func (l *Lifecycle) acquire(chatID int64) *conversation {
	for {
		c := l.open(chatID)
		c.mu.Lock()
		if !c.removed {
			return c
		}
		c.mu.Unlock()
	}
}

// lookup is acquire for timer callbacks: it never creates a record.
func (l *Lifecycle) lookup(chatID int64) *conversation {
	v, ok := l.convs.Load(chatID)
	if !ok {
		return nil
	}
	c := v.(*conversation)
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return nil
	}
	return c
}

// reclaimLocked drops the record of a chat with nothing left to delete.
func (l *Lifecycle) reclaimLocked(chatID int64, c *conversation) {
	if !c.idleLocked() {
		return
	}
	c.removed = true
	l.convs.CompareAndDelete(chatID, c)
}

// Conversations reports how many chats currently hold a record.
func (l *Lifecycle) Conversations() int {
	n := 0
	l.convs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Replace deletes every tracked message (and a pending notice), renders and
// sends the next screen, tracks it as the only visible message and re-arms
// the expiry timer. Deletion failures are ignored; render and send failures
// are returned.
func (l *Lifecycle) Replace(ctx context.Context, chatID int64, render RenderFunc) (int, error) {
	defer logging.TraceDuration(l.logger, "Lifecycle.Replace")()
	c := l.acquire(chatID)
	defer c.mu.Unlock()

	l.clearLocked(ctx, chatID, c)

	params, err := render(ctx)
	if err != nil {
		l.stopExpiryLocked(c)
		return 0, err
	}
	params.ChatID = chatID
	id, err := l.send(ctx, params)
	if err != nil {
		l.stopExpiryLocked(c)
		return 0, err
	}
	c.tracked = []int{id}
	l.armExpiryLocked(chatID, c)
	metrics.IncScreen()
	return id, nil
}

// Append sends a message alongside the current one without deleting anything.
func (l *Lifecycle) Append(ctx context.Context, chatID int64, params adapter.SendMessageParams) (int, error) {
	c := l.acquire(chatID)
	defer c.mu.Unlock()

	params.ChatID = chatID
	id, err := l.send(ctx, params)
	if err != nil {
		return 0, err
	}
	c.tracked = append(c.tracked, id)
	l.armExpiryLocked(chatID, c)
	return id, nil
}

// Track adds an already-sent message id to the tracked set.
func (l *Lifecycle) Track(chatID int64, messageID int) {
	c := l.acquire(chatID)
	defer c.mu.Unlock()
	c.tracked = append(c.tracked, messageID)
	l.armExpiryLocked(chatID, c)
}

// CancelTimer stops the pending expiry for chatID, if any.
func (l *Lifecycle) CancelTimer(chatID int64) {
	v, ok := l.convs.Load(chatID)
	if !ok {
		return
	}
	c := v.(*conversation)
	c.mu.Lock()
	defer c.mu.Unlock()
	l.stopExpiryLocked(c)
}

// Tracked returns a copy of the message ids currently tracked for chatID.
func (l *Lifecycle) Tracked(chatID int64) []int {
	v, ok := l.convs.Load(chatID)
	if !ok {
		return nil
	}
	c := v.(*conversation)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, len(c.tracked))
	copy(out, c.tracked)
	return out
}

// LastActivity is the time of the most recent bot message in chatID.
func (l *Lifecycle) LastActivity(chatID int64) time.Time {
	v, ok := l.convs.Load(chatID)
	if !ok {
		return time.Time{}
	}
	c := v.(*conversation)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func (l *Lifecycle) send(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if params.PhotoURL != "" {
		return l.bot.SendPhoto(ctx, params)
	}
	return l.bot.SendMessage(ctx, params)
}

func (l *Lifecycle) clearLocked(ctx context.Context, chatID int64, c *conversation) {
	for _, id := range c.tracked {
		l.deleteQuietly(ctx, chatID, id)
	}
	c.tracked = nil
	if c.notice != 0 {
		l.deleteQuietly(ctx, chatID, c.notice)
		c.notice = 0
	}
	if c.noticeTimer != nil {
		c.noticeTimer.Stop()
		c.noticeTimer = nil
		c.noticeGen++
	}
}

func (l *Lifecycle) deleteQuietly(ctx context.Context, chatID int64, messageID int) {
	if err := l.bot.DeleteMessage(ctx, chatID, messageID); err != nil {
		metrics.IncDeleteFailure()
		l.logger.Debug().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete failed; ignoring")
	}
}

func (l *Lifecycle) stopExpiryLocked(c *conversation) {
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
	c.expiryGen++
}

func (l *Lifecycle) armExpiryLocked(chatID int64, c *conversation) {
	l.stopExpiryLocked(c)
	gen := c.expiryGen
	c.lastActivity = l.clock.Now()
	c.expiry = l.clock.AfterFunc(l.cfg.Retention, func() { l.expire(chatID, gen) })
}

func (l *Lifecycle) expire(chatID int64, gen uint64) {
	c := l.lookup(chatID)
	if c == nil {
		return
	}
	if c.expiryGen != gen {
		c.mu.Unlock()
		return
	}
	c.expiry = nil

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	l.clearLocked(ctx, chatID, c)
	metrics.IncExpired()

	text := "History cleared."
	if l.notice != nil {
		text = l.notice(ctx, chatID)
	}
	id, err := l.bot.SendMessage(ctx, adapter.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		l.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send expiry notice")
	} else {
		c.notice = id
		gen := c.noticeGen
		c.noticeTimer = l.clock.AfterFunc(l.cfg.NoticeTTL, func() { l.dropNotice(chatID, gen) })
	}
	l.reclaimLocked(chatID, c)
	c.mu.Unlock()

	if l.cfg.OnExpire != nil {
		l.cfg.OnExpire(chatID)
	}
}

func (l *Lifecycle) dropNotice(chatID int64, gen uint64) {
	c := l.lookup(chatID)
	if c == nil {
		return
	}
	defer c.mu.Unlock()
	if c.noticeGen != gen || c.notice == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	l.deleteQuietly(ctx, chatID, c.notice)
	c.notice = 0
	c.noticeTimer = nil
	l.reclaimLocked(chatID, c)
}
