package relay

import (
	"context"
	"fmt"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
	"github.com/rewired-gh/tickerdesk/internal/views"
)

// Commands answers the bot's read-only commands from the backend and the ledger.
type Commands struct {
	client        api.Client
	ledger        Ledger
	userID        string
	minConfidence float64
	limit         int
}

func NewCommands(client api.Client, ledger Ledger, userID string, minConfidence float64, limit int) *Commands {
	if minConfidence <= 0 {
		minConfidence = views.DefaultTopPicksMinConfidence
	}
	if limit <= 0 {
		limit = views.DefaultTopPicksLimit
	}
	return &Commands{
		client:        client,
		ledger:        ledger,
		userID:        userID,
		minConfidence: minConfidence,
		limit:         limit,
	}
}

// MarketStatus asks the backend on every call. The relay never sets the
// posture, so it has no local state that could be trusted.
func (c *Commands) MarketStatus(ctx context.Context) (*models.MarketStatusState, error) {
	state, err := c.client.GetMarketStatus(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Status.Valid() {
		return nil, fmt.Errorf("backend returned unknown market status %q", state.Status)
	}
	return state, nil
}

func (c *Commands) TopPicks(ctx context.Context) ([]models.Opportunity, error) {
	opps, err := c.client.ListOpportunities(ctx, api.OpportunityQuery{
		MinConfidence: c.minConfidence,
		Limit:         c.limit,
		UserID:        c.userID,
	})
	if err != nil {
		return nil, err
	}
	return views.SelectTopPicks(opps, c.minConfidence, c.limit), nil
}

func (c *Commands) RecentRelayed(limit int) ([]models.Notification, error) {
	entries, err := c.ledger.Recent(limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, len(entries))
	for i, e := range entries {
		out[i] = models.Notification{
			ID:        e.NotificationID,
			Severity:  e.Severity,
			Read:      true,
			Ticker:    e.Ticker,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		}
	}
	return out, nil
}
