package notifier

import "go.uber.org/zap"

// ConsoleNotifier is the fallback channel used when no Telegram token is
// configured: messages only reach the process log.
type ConsoleNotifier struct {
	logger *zap.Logger
}

var _ Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(logger *zap.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) Notify(message string) {
	n.logger.Info("Notification", zap.String("message", message))
}
