// Package relay forwards unread backend notifications to an out-of-band
// notifier (Telegram) exactly once, recording what it sent in a ledger.
package relay

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/scheduler"
	"github.com/rewired-gh/tickerdesk/internal/storage"
)

// Notifier delivers relayed notifications and relay health messages.
type Notifier interface {
	Send(notes []models.Notification) error
	SendError(err error) error
	SendRecovery(failureCount int) error
}

// Ledger remembers which notifications were already relayed.
type Ledger interface {
	WasRelayed(id string) (bool, error)
	MarkRelayed(n models.Notification) error
	Recent(k int) ([]storage.Entry, error)
	// Prune trims old entries but never those whose id is in keep.
	Prune(keep []string) (int, error)
}

type Config struct {
	UserID       string
	MinSeverity  models.Severity
	PollInterval time.Duration
	// MaxBatch caps how many notifications go out in one message. Zero means 10.
	MaxBatch int
}

type Relay struct {
	client   api.Client
	ledger   Ledger
	notifier Notifier
	config   Config
}

// New wires a relay. notifier may be nil, in which case pending notifications
// are only logged and never marked relayed.
func New(client api.Client, ledger Ledger, notifier Notifier, config Config) *Relay {
	if config.MinSeverity == "" {
		config.MinSeverity = models.SeverityWarning
	}
	if config.MaxBatch <= 0 {
		config.MaxBatch = 10
	}
	return &Relay{client: client, ledger: ledger, notifier: notifier, config: config}
}

// Pending returns unread notifications at or above the severity floor that the
// ledger has not seen, oldest first.
func (r *Relay) Pending(ctx context.Context) ([]models.Notification, error) {
	out, _, err := r.pending(ctx)
	return out, err
}

// pending also returns the ids of every listed notification that passes the
// filters, relayed or not. The ledger must keep those.
func (r *Relay) pending(ctx context.Context) ([]models.Notification, []string, error) {
	list, err := r.client.ListNotifications(ctx, r.config.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var out []models.Notification
	var listed []string
	for _, n := range list.Notifications {
		if n.Read || n.ID == "" || !n.Severity.AtLeast(r.config.MinSeverity) {
			continue
		}
		listed = append(listed, n.ID)
		seen, err := r.ledger.WasRelayed(n.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check ledger: %w", err)
		}
		if !seen {
			out = append(out, n)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, listed, nil
}

// Poll runs one relay cycle and reports how many notifications were sent.
func (r *Relay) Poll(ctx context.Context) (int, error) {
	start := time.Now()
	logger.Debug("Starting relay cycle")

	pending, listed, err := r.pending(ctx)
	if err != nil {
		return 0, err
	}
	defer r.prune(listed)

	if len(pending) == 0 {
		logger.Debug("No notifications to relay")
		return 0, nil
	}
	if r.notifier == nil {
		logger.Info("%d notifications pending but no notifier is configured", len(pending))
		return 0, nil
	}

	sent := 0
	for i := 0; i < len(pending); i += r.config.MaxBatch {
		end := i + r.config.MaxBatch
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[i:end]
		if err := r.notifier.Send(batch); err != nil {
			return sent, fmt.Errorf("failed to send notifications: %w", err)
		}
		for _, n := range batch {
			if err := r.ledger.MarkRelayed(n); err != nil {
				logger.Warn("Failed to record relayed notification %s: %v", n.ID, err)
			}
		}
		sent += len(batch)
	}

	logger.Info("Relayed %d notifications in %v", sent, time.Since(start))
	return sent, nil
}

func (r *Relay) prune(listed []string) {
	if removed, err := r.ledger.Prune(listed); err != nil {
		logger.Warn("Failed to prune relay ledger: %v", err)
	} else if removed > 0 {
		logger.Debug("Pruned %d ledger entries", removed)
	}
}

// Task adapts Poll to the scheduler.
func (r *Relay) Task() scheduler.Task {
	return func(ctx context.Context) error {
		_, err := r.Poll(ctx)
		return err
	}
}

// Hooks reports the first failure of a run of consecutive failures and the
// eventual recovery through the notifier.
func (r *Relay) Hooks() scheduler.Hooks {
	return scheduler.Hooks{
		OnFailure: func(name string, err error, consecutive int) {
			logger.Error("Task %s failed (%d in a row): %v", name, consecutive, err)
			if consecutive != 1 || r.notifier == nil {
				return
			}
			if sendErr := r.notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification: %v", sendErr)
			}
		},
		OnRecovery: func(name string, failures int) {
			logger.Info("Task %s recovered after %d failures", name, failures)
			if r.notifier == nil {
				return
			}
			if sendErr := r.notifier.SendRecovery(failures); sendErr != nil {
				logger.Warn("Failed to send recovery notification: %v", sendErr)
			}
		},
	}
}
