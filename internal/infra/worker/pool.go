package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"telegram-shop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var (
	ErrNilTask   = errors.New("nil task")
	ErrQueueFull = errors.New("worker queue full")
)

// Task is a unit of work executed by the pool.
type Task func(ctx context.Context) error

// Pool is a small fixed-size worker pool.
type Pool struct {
	name   string
	wg     sync.WaitGroup
	jobs   chan Task
	quit   chan struct{}
	once   sync.Once
	n      int
	logger *zerolog.Logger
}

func NewPool(name string, workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	l := logger.With().Str("component", "WorkerPool").Str("pool", name).Logger()
	return &Pool{
		name:   name,
		jobs:   make(chan Task, workers*4),
		quit:   make(chan struct{}),
		n:      workers,
		logger: &l,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					if err := task(ctx); err != nil {
						metrics.IncWorkerTask(p.name, "failed")
						p.logger.Debug().Err(err).Int("worker", id).Msg("task error")
						continue
					}
					metrics.IncWorkerTask(p.name, "ok")
				}
			}
		}(i)
	}
}

func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		// drop when saturated to avoid back-pressure on callers
		metrics.IncWorkerTask(p.name, "dropped")
		return ErrQueueFull
	}
}
