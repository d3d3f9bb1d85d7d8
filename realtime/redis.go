package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker fans events out through Redis pub/sub so every API replica
// sees every publish.
type RedisBroker struct {
	client *redis.Client
	prefix string
	buffer int
}

func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	return &RedisBroker{client: client, prefix: prefix, buffer: DefaultBuffer}
}

func (b *RedisBroker) channel(topic string) string {
	if b.prefix == "" {
		return topic
	}
	return b.prefix + ":" + topic
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload any) error {
	evt, err := newEvent(topic, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(topic), data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel(topic))
	// Wait for the subscription confirmation so publishes after return are seen
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	sub := newSubscription(topic, b.buffer)
	done := make(chan struct{})
	sub.stop = func() { close(done) }

	go func() {
		defer close(sub.events)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					logger.Warn(ctx, "Discarding malformed realtime event", zap.String("topic", topic), zap.Error(err))
					continue
				}
				select {
				case sub.events <- evt:
				default:
					logger.Warn(ctx, "Dropping realtime event for slow subscriber", zap.String("topic", topic))
				}
			}
		}
	}()

	return sub, nil
}

// Close is a no-op; the client is shared and closed by its owner.
func (b *RedisBroker) Close() error {
	return nil
}
