// Package telegram relays dashboard notifications to a Telegram chat and
// answers a few read-only bot commands.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/models"
)

// CommandSource answers the bot's read-only commands.
type CommandSource interface {
	MarketStatus(ctx context.Context) (*models.MarketStatusState, error)
	TopPicks(ctx context.Context) ([]models.Opportunity, error)
	RecentRelayed(limit int) ([]models.Notification, error)
}

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands polls for bot commands in a goroutine until ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context, src CommandSource) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(ctx, src, update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(ctx context.Context, src CommandSource, msg *tgbotapi.Message) {
	reply := commandReply(ctx, src, msg.Command())
	if reply == "" {
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ParseMode = "MarkdownV2"
	if _, err := c.bot.Send(out); err != nil {
		logger.Warn("Failed to answer /%s: %v", msg.Command(), err)
	}
}

// commandReply builds the MarkdownV2 answer to a bot command, or "" to ignore it.
func commandReply(ctx context.Context, src CommandSource, command string) string {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	switch command {
	case "ping":
		return "Pong"
	case "status":
		state, err := src.MarketStatus(ctx)
		if err != nil {
			return "⚠️ " + escapeMarkdownV2(err.Error())
		}
		return formatMarketStatus(state)
	case "picks":
		picks, err := src.TopPicks(ctx)
		if err != nil {
			return "⚠️ " + escapeMarkdownV2(err.Error())
		}
		return formatPicks(picks)
	case "recent":
		notes, err := src.RecentRelayed(5)
		if err != nil {
			return "⚠️ " + escapeMarkdownV2(err.Error())
		}
		if len(notes) == 0 {
			return "Nothing relayed yet"
		}
		return formatMessage("🗂 *Recently relayed*", notes)
	}
	return ""
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError reports a failing relay poll.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(pollErr error) error {
	text := fmt.Sprintf("⚠️ *Dashboard relay error*\n`%s`", escapeMarkdownV2(pollErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery reports that polling works again after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Dashboard relay recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// Send delivers a batch of notifications as one message.
func (c *Client) Send(notes []models.Notification) error {
	return c.sendMarkdownV2(formatMessage("🔔 *Dashboard Alerts*", notes))
}

func severityEmoji(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "🚨"
	case models.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// formatMessage formats notifications into a Telegram MarkdownV2 message.
func formatMessage(title string, notes []models.Notification) string {
	var b strings.Builder
	b.WriteString(title + "\n\n")

	for i, n := range notes {
		head := fmt.Sprintf("%d\\. %s *%s*", i+1, severityEmoji(n.Severity), escapeMarkdownV2(string(n.Severity)))
		if n.Ticker != "" {
			head += " `" + escapeMarkdownV2(n.Ticker) + "`"
		}
		b.WriteString(head + "\n")
		b.WriteString("   " + escapeMarkdownV2(n.Message) + "\n")
		if !n.CreatedAt.IsZero() {
			b.WriteString("   📅 " + escapeMarkdownV2(n.CreatedAt.Format("2006-01-02 15:04")) + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMarketStatus(state *models.MarketStatusState) string {
	emoji := map[models.MarketStatus]string{
		models.MarketGreen:  "🟢",
		models.MarketYellow: "🟡",
		models.MarketOrange: "🟠",
		models.MarketRed:    "🔴",
	}[state.Status]
	text := fmt.Sprintf("%s *%s*", emoji, escapeMarkdownV2(state.Status.Label()))
	if state.Note != "" {
		text += "\n" + escapeMarkdownV2(state.Note)
	}
	return text
}

func formatPicks(picks []models.Opportunity) string {
	if len(picks) == 0 {
		return "No picks right now"
	}
	var b strings.Builder
	b.WriteString("🏆 *Top Picks*\n\n")
	for i, p := range picks {
		line := fmt.Sprintf("%d\\. *%s* %s %s", i+1,
			escapeMarkdownV2(p.Ticker),
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", p.BuyConfidence)),
			escapeMarkdownV2(p.SignalStrength.Label()))
		if !p.EntryPrice.IsZero() {
			line += escapeMarkdownV2(fmt.Sprintf(" entry %s target %s stop %s",
				p.EntryPrice.String(), p.TargetPrice.String(), p.StopLoss.String()))
		}
		if p.Blocked() {
			line += " 🚫 " + escapeMarkdownV2(p.BlockedReason)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
