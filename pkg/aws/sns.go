package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// EventTypeAttribute carries Message.Type so subscribers can filter on it.
const EventTypeAttribute = "event_type"

// Message is one notification. GroupID and DedupID are only sent to FIFO
// topics.
type Message struct {
	Type    string
	GroupID string
	DedupID string
	Body    []byte
}

type SNSPublisher interface {
	Publish(ctx context.Context, topicArn string, msg Message) error
}

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg)}
}

func (s *SNSClient) Publish(ctx context.Context, topicArn string, msg Message) error {
	input, err := buildPublishInput(topicArn, msg)
	if err != nil {
		return err
	}
	if _, err := s.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish to %s: %w", topicArn, err)
	}
	return nil
}

func buildPublishInput(topicArn string, msg Message) (*sns.PublishInput, error) {
	if topicArn == "" {
		return nil, errors.New("sns: empty topic arn")
	}
	input := &sns.PublishInput{
		TopicArn: sdkaws.String(topicArn),
		Message:  sdkaws.String(string(msg.Body)),
	}
	if msg.Type != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			EventTypeAttribute: {DataType: sdkaws.String("String"), StringValue: sdkaws.String(msg.Type)},
		}
	}
	if strings.HasSuffix(topicArn, ".fifo") {
		if msg.GroupID == "" {
			return nil, fmt.Errorf("sns: fifo topic %s needs a message group id", topicArn)
		}
		input.MessageGroupId = sdkaws.String(msg.GroupID)
		if msg.DedupID != "" {
			input.MessageDeduplicationId = sdkaws.String(msg.DedupID)
		}
	}
	return input, nil
}
