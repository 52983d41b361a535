package actor

import (
	"github.com/buildtall-systems/orderflow/internal/fsm"
)

// OrderActor runs the order workflow.
type OrderActor = Actor[fsm.State, fsm.OrderContext, fsm.Event]

// OrderSnapshot is a published order snapshot.
type OrderSnapshot = Snapshot[fsm.State, fsm.OrderContext]

// NewOrderActor returns an unstarted actor for a new order.
func NewOrderActor() *OrderActor {
	machine := fsm.NewOrderMachine()
	state, oc := machine.Initial()
	return New[fsm.State, fsm.OrderContext, fsm.Event](OrderSnapshot{Value: state, Context: oc}, machine.Transition)
}
