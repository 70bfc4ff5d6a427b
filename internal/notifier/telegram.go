package notifier

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramNotifier delivers messages through the Telegram bot API.
type TelegramNotifier struct {
	client *resty.Client
	token  string
	chatID int64
	logger *zap.Logger
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a notifier for the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		client: resty.New().SetBaseURL(telegramBaseURL),
		token:  token,
		chatID: chatID,
		logger: logger,
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Notify sends the message to the configured chat. Failures are logged
// and swallowed.
func (n *TelegramNotifier) Notify(message string) {
	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{ChatID: n.chatID, Text: message}).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.token))
	if err != nil {
		n.logger.Warn("Failed to send Telegram notification", zap.Error(err))
		return
	}
	if resp.IsError() {
		n.logger.Warn("Telegram API rejected notification",
			zap.String("status", resp.Status()),
			zap.String("body", resp.String()))
	}
}
