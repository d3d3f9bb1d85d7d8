package events

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	PaymentCaptured    = "payment.captured"
)

// OrderEvent is the message published for order lifecycle changes.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	CustomerID  uint      `json:"customer_id"`
	TailorID    uint      `json:"tailor_id"`
	ActorID     *uint     `json:"actor_id,omitempty"`
	Note        string    `json:"note,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Key partitions events so one order's events stay ordered.
func (e OrderEvent) Key() []byte {
	return []byte(strconv.FormatUint(uint64(e.OrderID), 10))
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, evt OrderEvent) error
	Close() error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
func (NopPublisher) Close() error                                      { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (r *RecordingPublisher) PublishOrderEvent(_ context.Context, evt OrderEvent) error {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
	return nil
}

func (r *RecordingPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *RecordingPublisher) Events() []OrderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OrderEvent, len(r.events))
	copy(out, r.events)
	return out
}

var (
	publisherInstance Publisher = NopPublisher{}
	publisherMu       sync.RWMutex
)

// GetPublisher returns the process-wide publisher.
func GetPublisher() Publisher {
	publisherMu.RLock()
	defer publisherMu.RUnlock()
	return publisherInstance
}

// SetPublisher replaces the process-wide publisher.
func SetPublisher(p Publisher) {
	publisherMu.Lock()
	publisherInstance = p
	publisherMu.Unlock()
}
