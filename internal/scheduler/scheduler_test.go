package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEveryRunsImmediatelyThenOnInterval(t *testing.T) {
	s := New(context.Background(), Hooks{})
	defer s.Stop()

	var runs atomic.Int32
	s.Every("tick", 20*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	waitFor(t, func() bool { return runs.Load() >= 1 })
	waitFor(t, func() bool { return runs.Load() >= 3 })
}

func TestStopCancelsTask(t *testing.T) {
	s := New(context.Background(), Hooks{})
	defer s.Stop()

	var runs atomic.Int32
	h := s.Every("tick", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	waitFor(t, func() bool { return runs.Load() >= 1 })

	h.Stop()
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("task kept running after Stop: %d -> %d", after, runs.Load())
	}
}

func TestSchedulerStopCancelsInFlightRun(t *testing.T) {
	s := New(context.Background(), Hooks{})
	started := make(chan struct{})
	s.Every("slow", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestFailureAndRecoveryHooks(t *testing.T) {
	var mu sync.Mutex
	var streaks []int
	recovered := 0

	s := New(context.Background(), Hooks{
		OnFailure: func(name string, err error, consecutive int) {
			mu.Lock()
			defer mu.Unlock()
			streaks = append(streaks, consecutive)
		},
		OnRecovery: func(name string, failures int) {
			mu.Lock()
			defer mu.Unlock()
			recovered = failures
		},
	})
	defer s.Stop()

	var calls atomic.Int32
	h := s.Every("flaky", time.Hour, func(ctx context.Context) error {
		if calls.Add(1) <= 2 {
			return errors.New("backend down")
		}
		return nil
	})

	waitFor(t, func() bool { return h.Status().Runs == 1 })
	h.Trigger()
	waitFor(t, func() bool { return h.Status().Runs == 2 })
	if got := h.Status().ConsecutiveFailures; got != 2 {
		t.Errorf("consecutive failures = %d, want 2", got)
	}
	h.Trigger()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return recovered > 0
	})

	mu.Lock()
	defer mu.Unlock()
	if len(streaks) != 2 || streaks[0] != 1 || streaks[1] != 2 {
		t.Errorf("failure streaks = %v", streaks)
	}
	if recovered != 2 {
		t.Errorf("recovered after %d failures, want 2", recovered)
	}
	if h.Status().ConsecutiveFailures != 0 || h.Status().LastErr != nil {
		t.Errorf("status after recovery = %+v", h.Status())
	}
}

func TestEveryReplacesTaskWithSameName(t *testing.T) {
	s := New(context.Background(), Hooks{})
	defer s.Stop()

	var first, second atomic.Int32
	s.Every("job", 10*time.Millisecond, func(ctx context.Context) error { first.Add(1); return nil })
	waitFor(t, func() bool { return first.Load() >= 1 })
	s.Every("job", 10*time.Millisecond, func(ctx context.Context) error { second.Add(1); return nil })
	waitFor(t, func() bool { return second.Load() >= 1 })

	frozen := first.Load()
	time.Sleep(40 * time.Millisecond)
	if first.Load() != frozen {
		t.Error("replaced task is still running")
	}
	if !s.Trigger("job") || s.Trigger("missing") {
		t.Error("Trigger should find only registered tasks")
	}
}
