// Package notifier posts daily digests to a Telegram chat.
package notifier

import (
	"context"
	"fmt"
	"html"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deusflow/crednews/internal/logger"
	"github.com/deusflow/crednews/internal/retry"
	"github.com/deusflow/crednews/internal/storage"
)

// MaxMessageRunes keeps messages under Telegram's 4096 character limit.
const MaxMessageRunes = 4000

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	sender Sender
	chatID int64
	retry  retry.RetryConfig
	log    logger.Logger
}

// New connects to the bot API with token.
func New(token string, chatID int64, log logger.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return NewWithSender(bot, chatID, log), nil
}

// NewWithSender retries a failed send twice, waiting 2s and then 4s.
func NewWithSender(sender Sender, chatID int64, log logger.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		chatID: chatID,
		retry:  retry.RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second, Backoff: true},
		log:    log,
	}
}

// Publish sends the digest for d.
func (n *Notifier) Publish(ctx context.Context, d storage.DailySummary) error {
	msg := tgbotapi.NewMessage(n.chatID, Format(d))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	cfg := n.retry
	cfg.OnRetry = func(attempt int, err error) {
		n.log.Warn("Telegram send failed, retrying", logger.Int("attempt", attempt), logger.Error(err))
	}

	err := retry.WithRetry(ctx, cfg, func() error {
		_, err := n.sender.Send(msg)
		return err
	})
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	n.log.Info("Digest sent to Telegram", logger.String("date", d.Date))
	return nil
}

// Format renders d as Telegram HTML.
func Format(d storage.DailySummary) string {
	header := fmt.Sprintf("<b>📰 자격증명 뉴스 다이제스트 %s</b>\n기사 %d건 · 언론사 %d곳\n\n",
		html.EscapeString(d.Date), d.ArticleCount, d.SourceCount)

	body := []rune(html.EscapeString(d.Summary))
	room := MaxMessageRunes - len([]rune(header))
	if len(body) > room {
		body = append(body[:room-1], '…')
		body = trimBrokenEntity(body)
	}
	return header + string(body)
}

// trimBrokenEntity drops a trailing partial HTML entity such as "&am…".
func trimBrokenEntity(r []rune) []rune {
	last := len(r) - 1
	for i := last - 1; i >= 0 && i >= last-6; i-- {
		switch r[i] {
		case ';':
			return r
		case '&':
			return append(r[:i], '…')
		}
	}
	return r
}
