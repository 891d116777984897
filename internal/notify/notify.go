// Package notify delivers user-facing toast-style feedback. The sink is
// fire-and-forget; no return value is consumed by callers.
package notify

import "log"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notifier is the sink the sync core pushes user-facing messages into.
type Notifier interface {
	Notify(message string, severity Severity)
}

// LogNotifier writes notifications to the process log. It stands in for the
// dashboard's toast channel when running headless.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(message string, severity Severity) {
	log.Printf("[NOTIFY %s] %s", severity, message)
}
