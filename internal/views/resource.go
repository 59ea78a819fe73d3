// Package views holds one view model per dashboard widget. Each widget fetches
// through api.Client, keeps a loading/error/content state, derives its
// presentation values and renders itself as a terminal block.
package views

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ViewState is the mutually exclusive render state of a widget.
type ViewState int

const (
	StateLoading ViewState = iota
	StateError
	StateContent
)

func (s ViewState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateContent:
		return "content"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by Load when a newer Load started before this one
// finished. Its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// FetchFunc retrieves a widget's data.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is a consistent copy of a Resource's state.
type Snapshot[T any] struct {
	State      ViewState
	Data       T
	Err        error
	Refreshing bool
	UpdatedAt  time.Time
}

// Stale reports whether content is shown but the latest refresh failed.
func (s Snapshot[T]) Stale() bool {
	return s.State == StateContent && s.Err != nil
}

// Resource holds one widget's fetched data. Each Load cancels the request it
// supersedes and only the most recently started Load may write state, so a
// slow stale response never overwrites a fresher one.
type Resource[T any] struct {
	mu        sync.Mutex
	fetch     FetchFunc[T]
	gen       uint64
	cancel    context.CancelFunc
	loading   bool
	hasData   bool
	data      T
	err       error
	updatedAt time.Time
	now       func() time.Time
}

func NewResource[T any](fetch FetchFunc[T]) *Resource[T] {
	return &Resource[T]{fetch: fetch, now: time.Now}
}

// Load fetches and, unless superseded, stores the result. A failed fetch keeps
// the previous data.
func (r *Resource[T]) Load(ctx context.Context) error {
	return r.LoadWith(ctx, r.fetch)
}

// LoadWith is Load with a one-off fetch, for actions like a forced refresh that
// replace the resource's data through a different call.
func (r *Resource[T]) LoadWith(ctx context.Context, fetch FetchFunc[T]) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.loading = true
	r.mu.Unlock()

	data, err := fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return ErrSuperseded
	}
	cancel()
	r.cancel = nil
	r.loading = false
	if err != nil {
		r.err = err
		return err
	}
	r.data = data
	r.hasData = true
	r.err = nil
	r.updatedAt = r.now()
	return nil
}

// Cancel aborts any in-flight Load and invalidates its result.
func (r *Resource[T]) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.loading = false
}

// Reset cancels in-flight work and forgets data, returning the resource to loading.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	var zero T
	r.data = zero
	r.hasData = false
	r.err = nil
	r.loading = false
	r.updatedAt = time.Time{}
}

func (r *Resource[T]) Snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot[T]{Data: r.data, Err: r.err, Refreshing: r.loading && r.hasData, UpdatedAt: r.updatedAt}
	switch {
	case r.hasData:
		s.State = StateContent
	case r.err != nil:
		s.State = StateError
	default:
		s.State = StateLoading
	}
	return s
}
