package views

import "context"

// View is the contract every dashboard widget satisfies.
type View interface {
	Title() string
	Load(ctx context.Context) error
	Render(width int) string
}

var (
	_ View = (*ActionCenter)(nil)
	_ View = (*AnalysisView)(nil)
	_ View = (*PortfolioView)(nil)
	_ View = (*TickerTimeline)(nil)
	_ View = (*TopPicks)(nil)
	_ View = (*WatchlistRankingTable)(nil)
	_ View = (*TrafficLight)(nil)
	_ View = (*TranscriptImporter)(nil)
	_ View = (*NotificationBell)(nil)
	_ View = (*FamilyAuditWidget)(nil)
)
