package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher appends events to Redis streams.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish serializes the event and appends it to stream. Events for the
// same key land on the same stream, so a single consumer sees them in
// publish order.
func (p *Publisher) Publish(ctx context.Context, stream, eventType, key string, version int64, data any) error {
	event := Event{
		Type:      eventType,
		Key:       key,
		Version:   version,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishAsync dispatches Publish on its own goroutine with a detached
// timeout context. The caller's request cycle never waits on the broker;
// a failed publish is logged and dropped, since the store write already
// succeeded and the cache read-through path re-converges.
func (p *Publisher) PublishAsync(stream, eventType, key string, version int64, data any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Publish(ctx, stream, eventType, key, version, data); err != nil {
			log.Printf("Failed to publish %s event for %s: %v", eventType, key, err)
		}
	}()
}
