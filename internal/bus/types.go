package bus

import "context"

// AttrOrderStatus is the message attribute subscriptions filter on.
const AttrOrderStatus = "OrderStatus"

// Message is one delivered event: the raw payload plus its string attributes.
type Message struct {
	ID         string
	Body       string
	Attributes map[string]string
}

// Publisher publishes a payload with attributes and returns the message id.
type Publisher interface {
	Publish(ctx context.Context, payload []byte, attributes map[string]string) (string, error)
}

// Handler consumes a batch of delivered messages.
type Handler interface {
	HandleMessages(ctx context.Context, msgs []Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msgs []Message) error

func (f HandlerFunc) HandleMessages(ctx context.Context, msgs []Message) error {
	return f(ctx, msgs)
}

// FilterPolicy maps an attribute name to its allowed values.
// A message matches when every key is present with an allowed value;
// an empty policy matches every message.
type FilterPolicy map[string][]string

// Matches reports whether attrs satisfies the policy.
func (p FilterPolicy) Matches(attrs map[string]string) bool {
	for key, allowed := range p {
		v, ok := attrs[key]
		if !ok {
			return false
		}
		found := false
		for _, a := range allowed {
			if a == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
