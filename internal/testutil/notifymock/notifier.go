package notifymock

import (
	"context"
	"sync"

	"mutuelle-backend/internal/domain/notify"
)

var _ notify.Notifier = (*Notifier)(nil)

// Event is one recorded delivery.
type Event struct {
	Recipient string
	Kind      notify.EventKind
	Payload   map[string]any
}

// Notifier records every Notify call; set Err to simulate delivery failure.
type Notifier struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func New() *Notifier { return &Notifier{} }

func (n *Notifier) Notify(_ context.Context, recipientID string, kind notify.EventKind, payload map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{Recipient: recipientID, Kind: kind, Payload: payload})
	return n.Err
}

func (n *Notifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Event, len(n.events))
	copy(out, n.events)
	return out
}

// Kinds returns the recorded event kinds in delivery order.
func (n *Notifier) Kinds() []notify.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.EventKind, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Kind)
	}
	return out
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}
