package bus

import (
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// FromSNSEvent converts a Lambda SNS batch into messages.
// Only String message attributes are kept.
func FromSNSEvent(ev events.SNSEvent) []Message {
	msgs := make([]Message, 0, len(ev.Records))
	for _, rec := range ev.Records {
		msgs = append(msgs, Message{
			ID:         rec.SNS.MessageID,
			Body:       rec.SNS.Message,
			Attributes: snsAttributes(rec.SNS.MessageAttributes),
		})
	}
	return msgs
}

// NewSNSEvent builds the Lambda event SNS would deliver for msgs.
// Used by the local runners to feed handlers without a topic.
func NewSNSEvent(topicARN string, msgs ...Message) events.SNSEvent {
	ev := events.SNSEvent{Records: make([]events.SNSEventRecord, 0, len(msgs))}
	for _, m := range msgs {
		attrs := make(map[string]interface{}, len(m.Attributes))
		for k, v := range m.Attributes {
			attrs[k] = map[string]interface{}{"Type": "String", "Value": v}
		}
		ev.Records = append(ev.Records, events.SNSEventRecord{
			EventSource:  "aws:sns",
			EventVersion: "1.0",
			SNS: events.SNSEntity{
				Type:              "Notification",
				MessageID:         m.ID,
				TopicArn:          topicARN,
				Message:           m.Body,
				MessageAttributes: attrs,
			},
		})
	}
	return ev
}

func snsAttributes(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		attr, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if typ, _ := attr["Type"].(string); typ != "" && typ != "String" {
			continue
		}
		switch val := attr["Value"].(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
