package notify

import "log"

// Notifier is the sink for user-facing warnings and errors. Transport
// failures in the core never surface as Go errors to the panel; they arrive
// here as transient notices instead.
type Notifier interface {
	Warn(conversationID, text string)
	Error(conversationID, text string)
}

// LogNotifier is the fallback sink when no panel is connected.
type LogNotifier struct{}

func (LogNotifier) Warn(conversationID, text string) {
	log.Printf("[notify] warn conv=%s: %s", conversationID, text)
}

func (LogNotifier) Error(conversationID, text string) {
	log.Printf("[notify] error conv=%s: %s", conversationID, text)
}
