// Package scheduler runs named refresh tasks on fixed intervals.
//
// Every task gets its own loop goroutine. A failing run is logged and the
// loop keeps going; only Cancel or Stop end it. Runs of one task never
// overlap, runs of different tasks may.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/newthinker/pulse/internal/logger"
)

// Task is one refresh run.
type Task func(ctx context.Context) error

// Recorder receives the outcome of every run.
type Recorder interface {
	RecordPoll(name, status string, duration float64)
	SetRegionsActive(n int)
}

// Backoff stretches the delay after consecutive failures.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRecorder reports run outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// WithBackoff enables failure backoff.
func WithBackoff(b Backoff) Option {
	return func(s *Scheduler) { s.backoff = &b }
}

// WithRunOnStart runs every task once as soon as its loop starts.
func WithRunOnStart() Option {
	return func(s *Scheduler) { s.runOnStart = true }
}

type entry struct {
	name     string
	interval time.Duration
	task     Task
	cancel   context.CancelFunc
	done     chan struct{}
}

// Scheduler owns the refresh loops.
type Scheduler struct {
	logger     *zap.Logger
	recorder   Recorder
	backoff    *Backoff
	runOnStart bool

	mu      sync.Mutex
	entries map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates an idle scheduler.
func New(log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:  logger.OrNop(log),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule registers a task. A task added after Start begins immediately.
func (s *Scheduler) Schedule(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive", name)
	}
	if task == nil {
		return fmt.Errorf("task %q: nil task", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("task %q already scheduled", name)
	}
	e := &entry{name: name, interval: interval, task: task}
	s.entries[name] = e
	if s.ctx != nil {
		s.launch(e)
	}
	s.reportActive()
	return nil
}

// Start launches every registered task. Calling it twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.launch(e)
	}
	s.logger.Info("scheduler started", zap.Int("tasks", len(s.entries)))
}

// Cancel stops one task and waits for its loop to exit. A run in flight
// finishes first. It reports whether the task existed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	e, ok := s.entries[name]
	if ok {
		delete(s.entries, name)
		s.reportActive()
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
	s.logger.Debug("task cancelled", zap.String("task", name))
	return true
}

// Stop cancels every task and waits for all loops to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.entries = make(map[string]*entry)
	if s.cancel != nil {
		s.cancel()
	}
	s.reportActive()
	s.mu.Unlock()

	for _, e := range entries {
		if e.done != nil {
			<-e.done
		}
	}
	s.logger.Info("scheduler stopped")
}

// Names lists scheduled tasks.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// launch must be called with s.mu held.
func (s *Scheduler) launch(e *entry) {
	ctx, cancel := context.WithCancel(s.ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		s.loop(ctx, e)
	}()
}

// reportActive must be called with s.mu held.
func (s *Scheduler) reportActive() {
	if s.recorder != nil {
		s.recorder.SetRegionsActive(len(s.entries))
	}
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	var b *backoff.Backoff
	if s.backoff != nil {
		b = &backoff.Backoff{Min: s.backoff.Min, Max: s.backoff.Max, Factor: s.backoff.Factor}
	}

	delay := e.interval
	if s.runOnStart {
		delay = s.next(e, b, s.run(ctx, e))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		timer.Reset(s.next(e, b, s.run(ctx, e)))
	}
}

// next returns the delay before the following run. The interval is measured
// from the start of the previous run.
func (s *Scheduler) next(e *entry, b *backoff.Backoff, r result) time.Duration {
	delay := e.interval
	if b != nil {
		if r.err != nil {
			if d := b.Duration(); d > delay {
				delay = d
			}
		} else {
			b.Reset()
		}
	}
	delay -= r.elapsed
	if delay < 0 {
		delay = 0
	}
	return delay
}

type result struct {
	err     error
	elapsed time.Duration
}

func (s *Scheduler) run(ctx context.Context, e *entry) (r result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("panic: %v", p)
		}
		r.elapsed = time.Since(start)
		s.report(ctx, e, r)
	}()
	r.err = e.task(ctx)
	return r
}

func (s *Scheduler) report(ctx context.Context, e *entry, r result) {
	status := "success"
	switch {
	case r.err != nil && ctx.Err() != nil:
		status = "cancelled"
	case r.err != nil:
		status = "failed"
		s.logger.Error("refresh failed",
			zap.String("task", e.name),
			zap.Duration("elapsed", r.elapsed),
			zap.Error(r.err),
		)
	}
	if s.recorder != nil {
		s.recorder.RecordPoll(e.name, status, r.elapsed.Seconds())
	}
}
