package notifier

import (
	"fmt"
	"net/smtp"

	"buydips-go/internal/config"
	"go.uber.org/zap"
)

// EmailNotifier delivers messages over SMTP with STARTTLS. It is an
// alternative channel to Telegram; only one notifier is wired into the
// trading loop at a time.
type EmailNotifier struct {
	cfg    config.Email
	logger *zap.Logger
}

var _ Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier creates a notifier from the SMTP settings.
func NewEmailNotifier(cfg config.Email, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger}
}

// Notify sends the message as a plain-text mail. Failures are logged
// and swallowed.
func (n *EmailNotifier) Notify(message string) {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: buydips\r\n\r\n%s\r\n",
		n.cfg.Sender, n.cfg.Receiver, message)

	if err := smtp.SendMail(addr, auth, n.cfg.Sender, []string{n.cfg.Receiver}, []byte(body)); err != nil {
		n.logger.Warn("Failed to send email notification", zap.Error(err))
	}
}
