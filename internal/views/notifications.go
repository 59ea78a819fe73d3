package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rewired-gh/tickerdesk/internal/api"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// NotificationBell tracks a user's notifications and the dropdown listing them.
type NotificationBell struct {
	client api.Client
	userID string
	res    *Resource[*models.NotificationList]

	mu   sync.Mutex
	open bool
}

func NewNotificationBell(client api.Client, userID string) *NotificationBell {
	n := &NotificationBell{client: client, userID: userID}
	n.res = NewResource(func(ctx context.Context) (*models.NotificationList, error) {
		return n.client.ListNotifications(ctx, n.userID)
	})
	return n
}

func (n *NotificationBell) Title() string { return "Notifications" }

func (n *NotificationBell) Load(ctx context.Context) error {
	return n.res.Load(ctx)
}

func (n *NotificationBell) Snapshot() Snapshot[*models.NotificationList] {
	return n.res.Snapshot()
}

// UnreadCount counts unread notifications in the latest listing.
func (n *NotificationBell) UnreadCount() int {
	snap := n.res.Snapshot()
	if snap.Data == nil {
		return 0
	}
	return CountUnread(snap.Data.Notifications)
}

func CountUnread(list []models.Notification) int {
	unread := 0
	for _, item := range list {
		if !item.Read {
			unread++
		}
	}
	return unread
}

// BadgeLabel is the count shown on the bell: empty at zero, capped at "9+".
func BadgeLabel(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > 9:
		return "9+"
	default:
		return fmt.Sprintf("%d", unread)
	}
}

func (n *NotificationBell) IsOpen() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.open
}

func (n *NotificationBell) Toggle() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = !n.open
}

func (n *NotificationBell) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = false
}

// DismissOnOutside closes the dropdown in response to any interaction outside
// it and reports whether it was open.
func (n *NotificationBell) DismissOnOutside() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	was := n.open
	n.open = false
	return was
}

// MarkAllRead acknowledges everything on the server, then refetches.
func (n *NotificationBell) MarkAllRead(ctx context.Context) error {
	if err := n.client.AcknowledgeAll(ctx, n.userID); err != nil {
		return err
	}
	return n.res.Load(ctx)
}

// MarkRead marks one notification read on the server, then refetches.
func (n *NotificationBell) MarkRead(ctx context.Context, id string) error {
	if err := n.client.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	return n.res.Load(ctx)
}

// RenderBadge is the compact header form of the bell.
func (n *NotificationBell) RenderBadge() string {
	label := BadgeLabel(n.UnreadCount())
	if label == "" {
		return mutedStyle.Render("🔔")
	}
	return "🔔" + ToneRed.Badge(label)
}

// Render draws the dropdown. It is empty while the dropdown is closed.
func (n *NotificationBell) Render(width int) string {
	if !n.IsOpen() {
		return ""
	}
	snap := n.res.Snapshot()
	if out, done := renderState(n.Title(), snap); done {
		return cardStyle.Render(out)
	}

	list := snap.Data.Notifications
	var b strings.Builder
	b.WriteString(titleStyle.Render(n.Title()))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d unread · a: mark all read", CountUnread(list))) + "\n")
	if len(list) == 0 {
		b.WriteString(mutedStyle.Render("You're all caught up"))
	}
	for _, item := range list {
		marker := "•"
		style := textStyle
		if item.Read {
			marker = " "
			style = mutedStyle
		}
		head := SeverityTone(item.Severity).Style().Render(fmt.Sprintf("%s %-8s", marker, item.Severity))
		if item.Ticker != "" {
			head += " " + tickerStyle.Render(item.Ticker)
		}
		b.WriteString(head + " " + style.Render(item.Message) + mutedStyle.Render(" · "+humanAge(item.CreatedAt)) + "\n")
	}

	style := cardStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(strings.TrimRight(b.String(), "\n") + staleLine(snap))
}
