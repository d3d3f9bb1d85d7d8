package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to a Kafka topic keyed by order id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	logger.Log.Info("Kafka order event publisher initialized",
		zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := kafka.Message{
		Key:   evt.Key(),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to publish order event", err,
			zap.String("topic", p.topic), zap.Uint("order_id", evt.OrderID), zap.String("type", evt.Type))
		return fmt.Errorf("kafka publish: %w", err)
	}
	logger.Info(ctx, "Order event published",
		zap.String("topic", p.topic), zap.Uint("order_id", evt.OrderID), zap.String("type", evt.Type))
	return nil
}

func (p *KafkaPublisher) Close() error {
	logger.Log.Info("Closing Kafka order event publisher", zap.String("topic", p.topic))
	return p.writer.Close()
}
