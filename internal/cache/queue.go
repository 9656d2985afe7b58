package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// TreeEvent announces that a saved tree changed.
type TreeEvent struct {
	Collection string    `json:"collection"`
	Revision   int64     `json:"revision"`
	Reset      bool      `json:"reset,omitempty"`
	At         time.Time `json:"at"`
}

// EventQueue is the Redis list key for tree change events.
const EventQueue = "sectionvault:events:trees"

// Enqueue pushes an event onto the left of the list.
func Enqueue(ctx context.Context, r *Redis, queue string, ev TreeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, queue, data).Err()
}

// Dequeue blocks until an event is available or timeout expires. A timeout
// or a cancelled ctx returns (nil, nil) so callers can loop and check for
// shutdown.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*TreeEvent, error) {
	result, err := r.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	var ev TreeEvent
	if err := json.Unmarshal([]byte(result[1]), &ev); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &ev, nil
}
