// Package marketstatus holds the process-wide market posture shown by the
// traffic light. The store is initialised from the backend once and mutated
// only through write-through calls, serialised so the last write wins.
package marketstatus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// ErrNotLoaded is returned by Get before Init or Set has succeeded.
var ErrNotLoaded = errors.New("market status not loaded")

// Listener is called with the new state after every successful change.
type Listener func(models.MarketStatusState)

// Store is the single source of the market posture for a process.
type Store struct {
	client api.Client

	initMu  sync.Mutex
	writeMu sync.Mutex

	mu        sync.RWMutex
	state     models.MarketStatusState
	loaded    bool
	listeners map[int]Listener
	nextID    int
}

func New(client api.Client) *Store {
	return &Store{client: client, listeners: make(map[int]Listener)}
}

// Init fetches the posture from the backend the first time it succeeds.
// Later calls return the held state without a request.
func (s *Store) Init(ctx context.Context) (models.MarketStatusState, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if state, err := s.Get(); err == nil {
		return state, nil
	}

	state, err := s.client.GetMarketStatus(ctx)
	if err != nil {
		return models.MarketStatusState{}, err
	}
	if !state.Status.Valid() {
		return models.MarketStatusState{}, fmt.Errorf("backend returned unknown market status %q", state.Status)
	}

	// Commit and notify in the same order as Set.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.loaded {
		// A Set landed while we were fetching; it is newer.
		current := s.state
		s.mu.Unlock()
		return current, nil
	}
	s.state = *state
	s.loaded = true
	s.mu.Unlock()

	logger.Debug("Market status initialised: %s", state.Status)
	s.notify(*state)
	return *state, nil
}

// Get returns the held posture.
func (s *Store) Get() (models.MarketStatusState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return models.MarketStatusState{}, ErrNotLoaded
	}
	return s.state, nil
}

// Set writes the posture through to the backend and, on success, replaces the
// held state. On failure the held state is unchanged.
func (s *Store) Set(ctx context.Context, status models.MarketStatus, note string) (models.MarketStatusState, error) {
	if !status.Valid() {
		return models.MarketStatusState{}, fmt.Errorf("unknown market status %q", status)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	state, err := s.client.UpdateMarketStatus(ctx, status, note)
	if err != nil {
		return models.MarketStatusState{}, err
	}
	next := *state
	if next.Status == "" {
		next.Status = status
		next.Note = note
	}

	s.mu.Lock()
	s.state = next
	s.loaded = true
	s.mu.Unlock()

	logger.Info("Market status set to %s (%s)", next.Status, next.Status.Label())
	s.notify(next)
	return next, nil
}

// Subscribe registers fn for changes and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(state models.MarketStatusState) {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(state)
	}
}
