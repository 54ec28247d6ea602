// Package bot delivers due-review reminders through a Telegram bot.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/wordbook/pkg/models"
)

// Sender is the part of tgbotapi.BotAPI used to deliver messages
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends reminders to a single chat
type TelegramNotifier struct {
	api    Sender
	chatID int64
	logger *slog.Logger
}

// New authorizes the bot token against the Telegram API
func New(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "account", api.Self.UserName)
	return NewWithSender(api, chatID, logger), nil
}

// NewWithSender builds a notifier on top of an existing sender
func NewWithSender(api Sender, chatID int64, logger *slog.Logger) *TelegramNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger.With("component", "telegram")}
}

// NotifyDue implements scheduler.Notifier
func (n *TelegramNotifier) NotifyDue(ctx context.Context, stats models.Statistics) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, ReminderText(stats))
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("failed to send reminder", "chat_id", n.chatID, "error", err)
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	n.logger.Info("reminder sent", "chat_id", n.chatID, "due", stats.Due)
	return nil
}

// ReminderText renders the reminder message
func ReminderText(stats models.Statistics) string {
	wordForm := "words"
	if stats.Due == 1 {
		wordForm = "word"
	}
	return fmt.Sprintf("You have %d %s to review (%d saved, %d mastered). Run `wordbook study` to start.",
		stats.Due, wordForm, stats.Total, stats.Mastered)
}
