// Package telegram sends upgrade opportunities via the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/kitarb/internal/models"
	"github.com/rewired-gh/kitarb/internal/pricing"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration

	mu     sync.Mutex
	latest string // last opportunities message, replayed by /top
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
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

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
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
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	if reply, ok := c.commandReply(msg); ok {
		c.bot.Send(reply) //nolint:errcheck
	}
}

// commandReply builds the answer to a bot command. /top only answers the
// configured chat.
func (c *Client) commandReply(msg *tgbotapi.Message) (tgbotapi.MessageConfig, bool) {
	var reply tgbotapi.MessageConfig
	switch msg.Command() {
	case "ping":
		reply = tgbotapi.NewMessage(msg.Chat.ID, "Pong")
	case "top":
		if msg.Chat.ID != c.chatID {
			return reply, false
		}
		c.mu.Lock()
		text := c.latest
		c.mu.Unlock()
		if text == "" {
			reply = tgbotapi.NewMessage(msg.Chat.ID, "No profitable upgrades yet")
		} else {
			reply = tgbotapi.NewMessage(msg.Chat.ID, text)
			reply.ParseMode = "MarkdownV2"
		}
	default:
		return reply, false
	}
	return reply, true
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

// SendError sends a run error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Analysis error*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Analysis recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// Send notifies about profitable upgrades. Records should already be ranked.
func (c *Client) Send(records []models.UpgradeRecord, keyPriceRef float64, at time.Time) error {
	text := formatMessage(records, keyPriceRef, at)
	c.mu.Lock()
	c.latest = text
	c.mu.Unlock()
	return c.sendMarkdownV2(text)
}

// formatMessage formats upgrade records into a Telegram MarkdownV2 message.
func formatMessage(records []models.UpgradeRecord, keyPriceRef float64, at time.Time) string {
	var b strings.Builder
	b.WriteString("💰 *Profitable Killstreak Upgrades*\n\n")
	fmt.Fprintf(&b, "📅 %s · 🔑 %s\n\n",
		escapeMarkdownV2(at.Format("2006-01-02 15:04:05")),
		escapeMarkdownV2(fmt.Sprintf("%.2f ref", pricing.Round2(keyPriceRef))))

	for i, r := range records {
		fmt.Fprintf(&b, "%d\\. *%s*\n", i+1, escapeMarkdownV2(r.BaseItemRef))
		fmt.Fprintf(&b, "   🛒 %s \\+ 🧰 %s → 🏷 %s\n",
			escapeMarkdownV2(fmt.Sprintf("%.2f", pricing.Round2(r.BasePrice.RefValue))),
			escapeMarkdownV2(fmt.Sprintf("%.2f", pricing.Round2(r.KitCost))),
			escapeMarkdownV2(fmt.Sprintf("%.2f ref", pricing.Round2(r.UpgradedPrice.RefValue))))
		fmt.Fprintf(&b, "   📈 *%s* \\(%s\\)\n\n",
			escapeMarkdownV2(fmt.Sprintf("%+.2f ref", pricing.Round2(r.ProfitRef))),
			escapeMarkdownV2(fmt.Sprintf("%.1f%%", r.ProfitPercent)))
	}

	return b.String()
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
