package reminder

import (
	"context"
	"log/slog"

	apperrors "github.com/hrygo/remindme/internal/errors"
	"github.com/hrygo/remindme/plugin/telegram"
)

// MessageSender is the transport call used for deliveries.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
}

// TelegramNotifier delivers reminders as plain chat messages.
type TelegramNotifier struct {
	sender MessageSender
	logger *slog.Logger
}

// NewTelegramNotifier creates a notifier over a Telegram client.
func NewTelegramNotifier(sender MessageSender) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		logger: slog.Default(),
	}
}

// Send implements Notifier.
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	msg, err := n.sender.SendMessage(ctx, chatID, text, nil)
	if err != nil {
		return apperrors.DeliveryFailed("failed to deliver reminder", err).
			WithContext("chat_id", chatID)
	}
	n.logger.Debug("reminder delivered", "chat_id", chatID, "message_id", msg.MessageID)
	return nil
}
