package views

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rewired-gh/tickerdesk/internal/marketstatus"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// TrafficLight shows and changes the global market posture.
type TrafficLight struct {
	store *marketstatus.Store

	mu      sync.Mutex
	loadErr error
	toast   string
}

func NewTrafficLight(store *marketstatus.Store) *TrafficLight {
	return &TrafficLight{store: store}
}

func (t *TrafficLight) Title() string { return "Market" }

// Load initialises the shared store; it fetches only once per process.
func (t *TrafficLight) Load(ctx context.Context) error {
	_, err := t.store.Init(ctx)
	t.mu.Lock()
	t.loadErr = err
	t.mu.Unlock()
	return err
}

func (t *TrafficLight) Snapshot() Snapshot[models.MarketStatusState] {
	state, err := t.store.Get()
	if err == nil {
		return Snapshot[models.MarketStatusState]{State: StateContent, Data: state, UpdatedAt: state.UpdatedAt}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loadErr != nil {
		return Snapshot[models.MarketStatusState]{State: StateError, Err: t.loadErr}
	}
	return Snapshot[models.MarketStatusState]{State: StateLoading}
}

// Set writes status through the store. A failed write leaves the displayed
// status as it was and raises a toast.
func (t *TrafficLight) Set(ctx context.Context, status models.MarketStatus, note string) error {
	_, err := t.store.Set(ctx, status, note)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.toast = "Failed to update market status: " + err.Error()
		return err
	}
	t.toast = ""
	t.loadErr = nil
	return nil
}

// Cycle advances to the next posture, GREEN through RED and back.
func (t *TrafficLight) Cycle(ctx context.Context) error {
	state, err := t.store.Get()
	if err != nil {
		return err
	}
	return t.Set(ctx, NextMarketStatus(state.Status), "")
}

// NextMarketStatus steps through models.MarketStatuses, wrapping after RED.
func NextMarketStatus(s models.MarketStatus) models.MarketStatus {
	for i, v := range models.MarketStatuses {
		if v == s {
			return models.MarketStatuses[(i+1)%len(models.MarketStatuses)]
		}
	}
	return models.MarketStatuses[0]
}

// Toast returns the pending toast message, if any.
func (t *TrafficLight) Toast() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.toast
}

func (t *TrafficLight) DismissToast() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toast = ""
}

// Label is the badge text for the current posture, empty until loaded.
func (t *TrafficLight) Label() string {
	state, err := t.store.Get()
	if err != nil {
		return ""
	}
	return state.Status.Label()
}

// RenderBadge is the single-line header form.
func (t *TrafficLight) RenderBadge() string {
	state, err := t.store.Get()
	if err != nil {
		if errors.Is(err, marketstatus.ErrNotLoaded) && t.Snapshot().State == StateError {
			return errorStyle.Render("● market status unavailable")
		}
		return mutedStyle.Render("● ...")
	}
	tone := MarketTone(state.Status)
	return tone.Style().Render("●") + " " + tone.Badge(state.Status.Label())
}

func (t *TrafficLight) Render(width int) string {
	snap := t.Snapshot()
	if out, done := renderState(t.Title(), snap); done {
		return out
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title()) + "\n")
	for _, s := range models.MarketStatuses {
		lamp := mutedStyle.Render("○")
		if s == snap.Data.Status {
			lamp = MarketTone(s).Style().Render("●")
		}
		b.WriteString(lamp + " ")
	}
	b.WriteString(" " + t.RenderBadge())
	if snap.Data.Note != "" {
		b.WriteString("\n" + textStyle.Render(snap.Data.Note))
	}
	if !snap.Data.UpdatedAt.IsZero() {
		b.WriteString("\n" + mutedStyle.Render("updated "+humanAge(snap.Data.UpdatedAt)))
	}
	if toast := t.Toast(); toast != "" {
		b.WriteString("\n" + bannerStyle.Render(toast))
	}
	return b.String()
}
