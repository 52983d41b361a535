package actor

import (
	"testing"

	"github.com/buildtall-systems/orderflow/internal/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderActor_IgnoresEventsBeforeStart(t *testing.T) {
	a := NewOrderActor()
	var got []OrderSnapshot
	a.Subscribe(func(s OrderSnapshot) { got = append(got, s) })

	a.Send(fsm.ItemAdded("book", 1))

	assert.Empty(t, got)
	assert.False(t, a.Running())
	assert.Empty(t, a.Snapshot().Context.Items)
}

func TestOrderActor_PublishesAcceptedTransitions(t *testing.T) {
	a := NewOrderActor()
	var got []OrderSnapshot
	a.Subscribe(func(s OrderSnapshot) { got = append(got, s) })
	a.Start()

	a.Send(fsm.ItemAdded("book", 2))
	a.Send(fsm.OrderShipped())
	a.Send(fsm.OrderSubmitted())

	require.Len(t, got, 2, "ignored events must not publish")
	assert.Equal(t, fsm.StateIdle, got[0].Value)
	assert.Equal(t, 2, got[0].Context.Quantity("book"))
	assert.Equal(t, fsm.StateProcessing, got[1].Value)
	assert.Equal(t, got[1], a.Snapshot())
}

func TestOrderActor_QueuesEventsSentFromSubscribers(t *testing.T) {
	a := NewOrderActor()
	var order []string
	a.Subscribe(func(s OrderSnapshot) {
		order = append(order, "first:"+string(s.Value))
		if s.Value == fsm.StateProcessing {
			a.Send(fsm.PaymentReceived())
		}
	})
	a.Subscribe(func(s OrderSnapshot) {
		order = append(order, "second:"+string(s.Value))
	})
	a.Start()

	a.Send(fsm.OrderSubmitted())

	assert.Equal(t, []string{
		"first:processing",
		"second:processing",
		"first:shipping",
		"second:shipping",
	}, order)
	assert.Equal(t, fsm.StateShipping, a.Snapshot().Value)
}

func TestOrderActor_StopIsTerminal(t *testing.T) {
	a := NewOrderActor()
	calls := 0
	a.Subscribe(func(OrderSnapshot) { calls++ })
	a.Start()
	a.Send(fsm.ItemAdded("book", 1))

	a.Stop()
	a.Stop()
	a.Start()
	a.Send(fsm.ItemAdded("pen", 1))

	assert.Equal(t, 1, calls)
	assert.False(t, a.Running())
	assert.Equal(t, 0, a.Snapshot().Context.Quantity("pen"))
}

func TestOrderActor_Unsubscribe(t *testing.T) {
	a := NewOrderActor()
	var first, second int
	unsubscribe := a.Subscribe(func(OrderSnapshot) { first++ })
	a.Subscribe(func(OrderSnapshot) { second++ })
	a.Start()

	a.Send(fsm.ItemAdded("book", 1))
	unsubscribe()
	unsubscribe()
	a.Send(fsm.ItemAdded("book", 1))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
