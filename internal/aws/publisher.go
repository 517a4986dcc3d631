package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// TopicPublisher wraps an SNS client and a topic ARN.
type TopicPublisher struct {
	SNS      SNSAPI
	TopicARN string
}

// NewTopicPublisher returns a TopicPublisher bound to a topic ARN.
func NewTopicPublisher(snsClient SNSAPI, topicARN string) *TopicPublisher {
	return &TopicPublisher{
		SNS:      snsClient,
		TopicARN: topicARN,
	}
}

// Publish sends payload to the topic. attributes are sent as String message
// attributes so subscription filter policies can match on them.
// It returns the SNS message id.
func (p *TopicPublisher) Publish(ctx context.Context, payload []byte, attributes map[string]string) (string, error) {
	message := string(payload)
	input := &sns.PublishInput{
		TopicArn: &p.TopicARN,
		Message:  &message,
	}
	if len(attributes) > 0 {
		msgAttrs := make(map[string]snstypes.MessageAttributeValue, len(attributes))
		for k, v := range attributes {
			msgAttrs[k] = snstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: awsString(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	out, err := p.SNS.Publish(ctx, input)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.TopicARN, err)
	}
	if out.MessageId == nil {
		return "", nil
	}
	return *out.MessageId, nil
}

// QueuePublisher wraps an SQS client and a queue URL.
type QueuePublisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewQueuePublisher returns a QueuePublisher bound to a queue URL.
func NewQueuePublisher(sqsClient SQSAPI, queueURL string) *QueuePublisher {
	return &QueuePublisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendMessage sends messageBody to the queue.
// attributes map[string]string -> sent as MessageAttributes.
func (p *QueuePublisher) SendMessage(ctx context.Context, messageBody string, attributes map[string]string) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &messageBody,
	}
	if len(attributes) > 0 {
		msgAttrs := map[string]sqstypes.MessageAttributeValue{}
		for k, v := range attributes {
			// SQS rejects empty attribute values
			if v == "" {
				continue
			}
			msgAttrs[k] = sqstypes.MessageAttributeValue{
				DataType:    awsString("String"),
				StringValue: awsString(v),
			}
		}
		input.MessageAttributes = msgAttrs
	}

	_, err := p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// attributeKeys returns the keys of m in a stable order.
func attributeKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// awsString helper
func awsString(s string) *string { return &s }
