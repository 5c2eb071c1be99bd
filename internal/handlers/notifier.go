package handlers

import (
	"context"
	"fmt"

	"installment-tracker/internal/installments"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot is the part of the Telegram API the handlers use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ Bot = (*tgbotapi.BotAPI)(nil)

var notificationIcons = map[installments.NotificationKind]string{
	installments.NotifyCreated:   "✅",
	installments.NotifyAdvanced:  "📅",
	installments.NotifyCompleted: "🎉",
	installments.NotifyFailed:    "❌",
	installments.NotifyCleaned:   "🧹",
	installments.NotifySkipped:   "⏭️",
}

// Notifier posts scheduler notifications to the configured chat.
type Notifier struct {
	bot    Bot
	chatID int64
	logger zerolog.Logger
}

// NewNotifier creates a notifier sending to chatID.
func NewNotifier(bot Bot, chatID int64, logger zerolog.Logger) *Notifier {
	return &Notifier{bot: bot, chatID: chatID, logger: logger}
}

// Notify sends n as a chat message. Send failures are only logged.
func (n *Notifier) Notify(ctx context.Context, note installments.Notification) {
	icon, ok := notificationIcons[note.Kind]
	if !ok {
		icon = "ℹ️"
	}

	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf("%s %s\n%s", icon, note.Title, note.Description))
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Str("kind", string(note.Kind)).Msg("Failed to send notification")
	}
}
