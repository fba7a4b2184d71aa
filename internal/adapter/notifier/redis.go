package notifier

import (
	"context"
	"encoding/json"
	"time"

	"mutuelle-backend/internal/domain/notify"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "mutuelle:notifications:"

// RedisNotifier publishes notification events on a per-member pub/sub
// channel; the notification service consumes and fans out from there.
type RedisNotifier struct{ rdb *redis.Client }

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier { return &RedisNotifier{rdb: rdb} }

type envelope struct {
	Kind      notify.EventKind `json:"kind"`
	Recipient string           `json:"recipient"`
	Payload   map[string]any   `json:"payload,omitempty"`
	At        time.Time        `json:"at"`
}

func (n *RedisNotifier) Notify(ctx context.Context, recipientID string, kind notify.EventKind, payload map[string]any) error {
	msg, err := json.Marshal(envelope{
		Kind:      kind,
		Recipient: recipientID,
		Payload:   payload,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channelPrefix+recipientID, msg).Err()
}
