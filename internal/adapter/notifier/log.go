package notifier

import (
	"context"
	"log"

	"mutuelle-backend/internal/domain/notify"
)

// LogNotifier is the fallback sink when redis is unavailable.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (LogNotifier) Notify(_ context.Context, recipientID string, kind notify.EventKind, payload map[string]any) error {
	log.Printf("notify %s -> %s %v", kind, recipientID, payload)
	return nil
}
