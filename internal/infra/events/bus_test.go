package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []Event
	err      error
}

func (h *recordingHandler) Handles() []string { return h.types }

func (h *recordingHandler) Handle(event Event) error {
	h.received = append(h.received, event)
	return h.err
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus(zap.NewNop())

	h1 := &recordingHandler{types: []string{"SubscriptionCreated"}}
	h2 := &recordingHandler{types: []string{"SubscriptionCreated"}, err: errors.New("handler broke")}
	h3 := &recordingHandler{types: []string{"SomethingElse"}}
	bus.Register(h1)
	bus.Register(h2)
	bus.Register(h3)

	event := NewBaseEvent("SubscriptionCreated", uuid.New(), "Billable")
	bus.Publish(event)

	assert.Len(t, h1.received, 1)
	assert.Equal(t, event.EventID(), h1.received[0].EventID())
	// A failing handler does not stop dispatch; it already ran.
	assert.Len(t, h2.received, 1)
	assert.Empty(t, h3.received)
}

func TestBus_PublishNoHandlers(t *testing.T) {
	bus := NewBus(zap.NewNop())
	assert.NotPanics(t, func() {
		bus.Publish(NewBaseEvent("SubscriptionCreated", uuid.New(), "Billable"))
	})
}
