package app

import (
	"fmt"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/config"
	"github.com/jhkiehna/pizza-tracker/internal/notify"
)

// Subscribers are the handlers a topology can route to.
type Subscribers struct {
	InsertOrder    bus.Handler
	NotifyCustomer bus.Handler
	Mailer         notify.Mailer
}

// BuildTopic creates an in-process topic with one subscription per entry
// of topo.
func BuildTopic(topo *config.Topology, subs Subscribers, opts ...bus.Option) (*bus.Topic, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}

	topic := bus.NewTopic(opts...)
	for _, s := range topo.Subscriptions {
		var h bus.Handler
		switch s.Protocol {
		case config.ProtocolLambda:
			switch s.Endpoint {
			case config.EndpointInsertOrder:
				h = subs.InsertOrder
			case config.EndpointNotifyCustomer:
				h = subs.NotifyCustomer
			}
		case config.ProtocolEmail:
			if subs.Mailer != nil {
				h = notify.NewEmailSubscriber(s.Endpoint, subs.Mailer)
			}
		}
		if h == nil {
			return nil, fmt.Errorf("subscription %q: no handler for %s endpoint %q", s.Name, s.Protocol, s.Endpoint)
		}
		if err := topic.Subscribe(s.Name, bus.FilterPolicy(s.FilterPolicy), h); err != nil {
			return nil, err
		}
	}
	return topic, nil
}
