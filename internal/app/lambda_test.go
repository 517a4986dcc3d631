package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhkiehna/pizza-tracker/internal/bus"
)

func TestSNSHandler_DecodesEnvelope(t *testing.T) {
	var got []bus.Message
	h := &SNSHandler{Handler: bus.HandlerFunc(func(ctx context.Context, msgs []bus.Message) error {
		got = msgs
		return nil
	})}

	ev := bus.NewSNSEvent("arn:aws:sns:us-east-1:123456789012:orders",
		bus.Message{ID: "m-1", Body: `{"flavour":"Pepperoni"}`, Attributes: map[string]string{bus.AttrOrderStatus: "Accepted"}},
		bus.Message{ID: "m-2", Body: `{"flavour":"Hawaiian"}`, Attributes: map[string]string{bus.AttrOrderStatus: "Rejected"}},
	)
	require.NoError(t, h.Handle(context.Background(), ev))

	require.Len(t, got, 2)
	assert.Equal(t, "m-1", got[0].ID)
	assert.Equal(t, `{"flavour":"Pepperoni"}`, got[0].Body)
	assert.Equal(t, "Rejected", got[1].Attributes[bus.AttrOrderStatus])
}
