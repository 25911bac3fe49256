package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

// chatSender is the part of the Bot API client used for operator messages.
type chatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard domain.Keyboard) error
}

// TelegramSender delivers operator notifications to a fixed Telegram chat
// through the bot's own API client.
type TelegramSender struct {
	client chatSender
	chatID int64
}

// NewTelegramSender creates a TelegramSender posting to chatID.
func NewTelegramSender(client chatSender, chatID int64) *TelegramSender {
	return &TelegramSender{client: client, chatID: chatID}
}

// Send posts the title in bold followed by the message, both HTML-escaped.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(title), html.EscapeString(message))
	if err := t.client.SendMessage(ctx, t.chatID, text, nil); err != nil {
		return fmt.Errorf("telegram ops: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
