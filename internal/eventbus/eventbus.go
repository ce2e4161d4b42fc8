// Package eventbus publishes match-lifecycle events to Redis so that
// out-of-process listeners (admin dashboards, analytics consumers) can
// observe pairing and settlement without touching the controller or session
// goroutines directly.
package eventbus

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the single Redis pub/sub channel match events are published on.
const Channel = "match_events"

// Bus publishes match-lifecycle events to Redis. A nil *Bus is valid and
// Publish becomes a no-op, so callers never need to nil-check before use.
type Bus struct {
	client *redis.Client
}

// New wraps an existing Redis client. Passing a nil client yields a Bus
// whose Publish calls are no-ops.
func New(client *redis.Client) *Bus {
	return &Bus{client: client}
}

// Event is the payload shape published on Channel.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
	Data      any       `json:"data,omitempty"`
}

// Publish fires e on Channel. Failures are logged, never propagated: the
// event bus is an observability side channel, not part of the match's
// correctness path.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if b == nil || b.client == nil {
		return
	}
	payload, err := json.Marshal(e)
	if err != nil {
		log.Printf("[EVENTBUS] failed to marshal %s event: %v", e.Type, err)
		return
	}
	if err := b.client.Publish(ctx, Channel, payload).Err(); err != nil {
		log.Printf("[EVENTBUS] failed to publish %s event: %v", e.Type, err)
	}
}
