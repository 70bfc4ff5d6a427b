package notifier

// Notifier pushes a human-readable message to the operator. Delivery is
// best-effort: implementations log failures and never surface them to
// the trading loop.
type Notifier interface {
	Notify(message string)
}
