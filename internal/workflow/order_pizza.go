package workflow

import (
	"context"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
	"github.com/jhkiehna/pizza-tracker/internal/observability"
	"github.com/jhkiehna/pizza-tracker/internal/orders"
	"github.com/jhkiehna/pizza-tracker/internal/validation"
)

// OrderPizzaName is the definition name of the order workflow.
const OrderPizzaName = "OrderPizza"

const (
	StateCheckFlavour      StateName = "CheckFlavour"
	StateWithPineapple     StateName = "WithPineapple"
	StatePublishRejected   StateName = "PublishRejected"
	StatePublishAccepted   StateName = "PublishAccepted"
	StatePineappleDetected StateName = "PineappleDetected"
	StateMakePizza         StateName = "MakePizza"
)

const (
	ErrorFailedToMakePizza = "Failed To Make Pizza"
	CausePineapple         = "They asked for Pineapple"
)

// NewOrderPizza builds the order workflow. Accepted and Rejected orders are
// published on pub with the OrderStatus attribute; metrics may be nil.
func NewOrderPizza(pub bus.Publisher, metrics *observability.Metrics) *Definition {
	v := validation.New()

	return &Definition{
		Name:    OrderPizzaName,
		StartAt: StateCheckFlavour,
		Decode:  decodeOrder(v),
		States: map[StateName]State{
			StateCheckFlavour: Task{
				Next: StateWithPineapple,
				Fn: func(_ context.Context, data *Data) error {
					analysis := orders.Analyse(data.Order.FlavourValue())
					data.PineappleAnalysis = &analysis
					return nil
				},
			},
			StateWithPineapple: Choice{
				Rules: []ChoiceRule{{
					Condition: func(data *Data) bool {
						return data.PineappleAnalysis != nil && data.PineappleAnalysis.ContainsPineapple
					},
					Next: StatePublishRejected,
				}},
				Default: StatePublishAccepted,
			},
			StatePublishRejected: Task{
				Next: StatePineappleDetected,
				Fn:   publishStatus(pub, metrics, orders.StatusRejected),
			},
			StatePublishAccepted: Task{
				Next: StateMakePizza,
				Fn:   publishStatus(pub, metrics, orders.StatusAccepted),
			},
			StatePineappleDetected: Fail{
				Error: ErrorFailedToMakePizza,
				Cause: CausePineapple,
			},
			StateMakePizza: Succeed{},
		},
	}
}

func decodeOrder(v *validatorv10.Validate) func([]byte) (*Data, error) {
	return func(input []byte) (*Data, error) {
		req, err := validation.DecodeOrder(input, v)
		if err != nil {
			return nil, err
		}
		raw := make([]byte, len(input))
		copy(raw, input)
		return &Data{Input: raw, Order: *req}, nil
	}
}

func publishStatus(pub bus.Publisher, metrics *observability.Metrics, status orders.Status) func(context.Context, *Data) error {
	return func(ctx context.Context, data *Data) error {
		id, err := pub.Publish(ctx, data.Input, map[string]string{
			bus.AttrOrderStatus: string(status),
		})
		if err != nil {
			return fmt.Errorf("publish %s order: %w", status, err)
		}
		data.Status = status
		data.MessageID = id
		if metrics != nil {
			metrics.EventsPublished.WithLabelValues(string(status)).Inc()
		}
		return nil
	}
}
