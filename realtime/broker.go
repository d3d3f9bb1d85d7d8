package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// EventType names the kind of row change carried by an Event.
type EventType string

const EventInsert EventType = "INSERT"

// Event is one change pushed to subscribers of a topic.
type Event struct {
	Topic     string          `json:"topic"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Broker fans published events out to topic subscribers.
type Broker interface {
	Publish(ctx context.Context, topic string, payload any) error
	// Subscribe registers interest in topic. The subscription ends when ctx
	// is done or Close is called, whichever happens first.
	Subscribe(ctx context.Context, topic string) (*Subscription, error)
	Close() error
}

// MessagesTopic is the topic carrying new messages of a conversation.
func MessagesTopic(conversationID uint) string {
	return fmt.Sprintf("messages:%d", conversationID)
}

// TrackingTopic is the topic carrying new tracking rows of an order.
func TrackingTopic(orderID uint) string {
	return fmt.Sprintf("tracking:%d", orderID)
}

// Subscription delivers events for one topic on a channel.
type Subscription struct {
	topic  string
	events chan Event
	once   sync.Once
	stop   func()
}

func newSubscription(topic string, buffer int) *Subscription {
	return &Subscription{
		topic:  topic,
		events: make(chan Event, buffer),
	}
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string {
	return s.topic
}

// Events yields events until the subscription ends, then is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

func newEvent(topic string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return Event{
		Topic:     topic,
		Type:      EventInsert,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

var (
	brokerInstance Broker = NewMemoryBroker(DefaultBuffer)
	brokerMu       sync.RWMutex
)

// GetBroker returns the process-wide broker.
func GetBroker() Broker {
	brokerMu.RLock()
	defer brokerMu.RUnlock()
	return brokerInstance
}

// SetBroker replaces the process-wide broker.
func SetBroker(b Broker) {
	brokerMu.Lock()
	brokerInstance = b
	brokerMu.Unlock()
}
