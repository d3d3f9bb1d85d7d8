package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/kendall-kelly/tailorly-api/logger"
	"go.uber.org/zap"
)

// snsAPI is the subset of *sns.Client the publisher needs.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes order events to an SNS topic.
type SNSPublisher struct {
	client   snsAPI
	topicARN string
}

func NewSNSPublisher(cfg aws.Config, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: sns.NewFromConfig(cfg), topicARN: topicARN}
}

func (p *SNSPublisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	if p.topicARN == "" {
		return fmt.Errorf("empty topic ARN")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(data)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(evt.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", p.topicARN, err)
	}
	logger.Info(ctx, "Order event published to SNS",
		zap.Uint("order_id", evt.OrderID), zap.String("type", evt.Type), zap.Int("message_len", len(data)))
	return nil
}

func (p *SNSPublisher) Close() error { return nil }
