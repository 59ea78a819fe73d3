// Package scheduler runs named periodic tasks that can be cancelled
// individually or all at once.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rewired-gh/tickerdesk/internal/logger"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// Hooks observe failure streaks. OnFailure fires on every failed run with the
// length of the current streak; OnRecovery fires on the first success after a
// streak with its length.
type Hooks struct {
	OnFailure  func(name string, err error, consecutive int)
	OnRecovery func(name string, failures int)
}

// Scheduler owns a set of periodic tasks bound to one parent context.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	hooks  Hooks

	mu    sync.Mutex
	tasks map[string]*Handle
}

func New(parent context.Context, hooks Hooks) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel, hooks: hooks, tasks: make(map[string]*Handle)}
}

// Status is a snapshot of a task's run history.
type Status struct {
	Runs                int
	ConsecutiveFailures int
	LastErr             error
	LastRun             time.Time
}

// Handle controls one scheduled task.
type Handle struct {
	name     string
	interval time.Duration
	fn       Task
	hooks    Hooks
	cancel   context.CancelFunc
	trigger  chan struct{}
	done     chan struct{}

	mu     sync.Mutex
	status Status
}

// Every runs fn now and then every interval until the scheduler or the
// returned handle is stopped. A task registered under an existing name
// replaces it.
func (s *Scheduler) Every(name string, interval time.Duration, fn Task) *Handle {
	s.mu.Lock()
	old := s.tasks[name]
	s.mu.Unlock()
	if old != nil {
		old.Stop()
	}

	ctx, cancel := context.WithCancel(s.ctx)
	h := &Handle{
		name:     name,
		interval: interval,
		fn:       fn,
		hooks:    s.hooks,
		cancel:   cancel,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.tasks[name] = h
	s.mu.Unlock()

	go h.loop(ctx)
	logger.Debug("Scheduled task %s every %v", name, interval)
	return h
}

// Task returns the handle registered under name.
func (s *Scheduler) Task(name string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.tasks[name]
	return h, ok
}

// Trigger requests an immediate run of the named task.
func (s *Scheduler) Trigger(name string) bool {
	h, ok := s.Task(name)
	if !ok {
		return false
	}
	h.Trigger()
	return true
}

// Stop cancels every task and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.tasks))
	for _, h := range s.tasks {
		handles = append(handles, h)
	}
	s.mu.Unlock()
	for _, h := range handles {
		<-h.done
	}
}

func (h *Handle) Name() string { return h.name }

// Trigger runs the task as soon as the current run, if any, finishes.
// Triggers arriving while one is already pending are merged.
func (h *Handle) Trigger() {
	select {
	case h.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the task and waits for it to exit.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *Handle) loop(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.run(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Task %s stopped", h.name)
			return
		case <-ticker.C:
			h.run(ctx)
		case <-h.trigger:
			h.run(ctx)
			ticker.Reset(h.interval)
		}
	}
}

func (h *Handle) run(ctx context.Context) {
	err := h.fn(ctx)
	if ctx.Err() != nil {
		return
	}

	h.mu.Lock()
	h.status.Runs++
	h.status.LastRun = time.Now()
	h.status.LastErr = err
	var failures, recovered int
	if err != nil {
		h.status.ConsecutiveFailures++
		failures = h.status.ConsecutiveFailures
	} else {
		recovered = h.status.ConsecutiveFailures
		h.status.ConsecutiveFailures = 0
	}
	h.mu.Unlock()

	if err != nil {
		logger.Warn("Task %s failed (%d in a row): %v", h.name, failures, err)
		if h.hooks.OnFailure != nil {
			h.hooks.OnFailure(h.name, err, failures)
		}
		return
	}
	if recovered > 0 {
		logger.Info("Task %s recovered after %d failures", h.name, recovered)
		if h.hooks.OnRecovery != nil {
			h.hooks.OnRecovery(h.name, recovered)
		}
	}
}
