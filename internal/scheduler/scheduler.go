package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// CooldownChecker gates scheduled fires; a closed gate skips the whole tick.
type CooldownChecker interface {
	CanSend(now time.Time) (bool, string)
}

type Scheduler struct {
	interval time.Duration
	gate     CooldownChecker
	tickFn   func(context.Context)

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, gate CooldownChecker, tickFn func(context.Context)) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if gate == nil {
		return nil, errors.New("gate must not be nil")
	}
	if tickFn == nil {
		return nil, errors.New("tickFn must not be nil")
	}
	return &Scheduler{
		interval: interval,
		gate:     gate,
		tickFn:   tickFn,
		done:     make(chan struct{}),
	}, nil
}

// Start arms the recurring timer. The first fire happens one full interval
// after Start, never immediately. Calling Start on a running scheduler is a
// no-op that still reports success.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		slog.Info("scheduler already running")
		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("scheduler started", "interval", s.interval.String())

		for {
			select {
			case <-ctx.Done():
				slog.Info("scheduler stopping")
				return
			case <-ticker.C:
				s.safeTick(ctx, time.Now().UTC())
			}
		}
	}()

	return true
}

// Stop halts the timer and blocks until any in-flight tick has returned.
// Stopping an already stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	slog.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// safeTick runs one gated cycle. A panic from the gate or the callback is
// contained here and never kills the loop.
func (s *Scheduler) safeTick(ctx context.Context, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler tick panic recovered", "panic", r)
		}
	}()

	if ok, reason := s.gate.CanSend(now); !ok {
		slog.Info("scheduled send skipped by cooldown", "reason", reason)
		return
	}

	start := time.Now()
	s.tickFn(ctx)
	slog.Info("scheduler tick completed", "duration_ms", time.Since(start).Milliseconds())
}
