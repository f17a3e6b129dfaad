package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"telegram-shop-bot/internal/domain/ports/adapter"
	"telegram-shop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var (
	ErrDispatcherClosed = errors.New("dispatcher closed")
	ErrMailboxFull      = errors.New("chat mailbox full")
)

// Handler processes one inbound event. Calls for the same chat never overlap.
type Handler func(ctx context.Context, ev adapter.InboundEvent)

type DispatcherConfig struct {
	MailboxSize int
	IdleTimeout time.Duration
}

// Dispatcher runs one sequential actor per chat id. Events of one chat are
// handled in arrival order; different chats run in parallel.
type Dispatcher struct {
	handler Handler
	cfg     DispatcherConfig
	logger  *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	actors map[int64]*actor
	closed bool
}

type actor struct {
	chatID  int64
	inbox   chan adapter.InboundEvent
	pending int // queued or in-flight sends, guarded by Dispatcher.mu
}

func NewDispatcher(handler Handler, cfg DispatcherConfig, logger *zerolog.Logger) *Dispatcher {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 16
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := logger.With().Str("component", "Dispatcher").Logger()
	return &Dispatcher{
		handler: handler,
		cfg:     cfg,
		logger:  &l,
		ctx:     ctx,
		cancel:  cancel,
		actors:  make(map[int64]*actor),
	}
}

// Dispatch queues ev on its chat's mailbox, starting the actor if needed. It
// never waits on a busy chat: when the mailbox is full the event is dropped
// with ErrMailboxFull, so one stalled chat cannot hold up the others.
func (d *Dispatcher) Dispatch(ctx context.Context, ev adapter.InboundEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	a, ok := d.actors[ev.ChatID]
	if !ok {
		a = &actor{chatID: ev.ChatID, inbox: make(chan adapter.InboundEvent, d.cfg.MailboxSize)}
		d.actors[ev.ChatID] = a
		d.wg.Add(1)
		metrics.AddActiveChats(1)
		go d.loop(a)
	}
	a.pending++
	d.mu.Unlock()

	select {
	case a.inbox <- ev:
		return nil
	default:
		d.release(a)
		metrics.IncDroppedEvent()
		d.logger.Warn().Int64("chat_id", ev.ChatID).Str("kind", string(ev.Kind)).Msg("mailbox full; event dropped")
		return ErrMailboxFull
	}
}

// Active reports the number of live chat actors.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.actors)
}

// Close stops accepting events, cancels in-flight handlers and waits for actors.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) release(a *actor) {
	d.mu.Lock()
	a.pending--
	d.mu.Unlock()
}

func (d *Dispatcher) loop(a *actor) {
	defer d.wg.Done()
	defer metrics.AddActiveChats(-1)

	idle := time.NewTimer(d.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case ev := <-a.inbox:
			d.release(a)
			d.run(ev)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.cfg.IdleTimeout)
		case <-idle.C:
			if d.retire(a) {
				return
			}
			idle.Reset(d.cfg.IdleTimeout)
		case <-d.ctx.Done():
			d.mu.Lock()
			delete(d.actors, a.chatID)
			d.mu.Unlock()
			return
		}
	}
}

// retire removes an idle actor unless a sender is about to deliver to it.
func (d *Dispatcher) retire(a *actor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a.pending > 0 || len(a.inbox) > 0 {
		return false
	}
	delete(d.actors, a.chatID)
	return true
}

func (d *Dispatcher) run(ev adapter.InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncHandlerError("panic")
			d.logger.Error().
				Int64("chat_id", ev.ChatID).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
		}
	}()
	d.handler(d.ctx, ev)
}
