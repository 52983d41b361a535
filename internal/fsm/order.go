package fsm

import (
	"context"
	"slices"
	"sync"

	"github.com/looplab/fsm"
)

// OrderMachine holds the order workflow's transition table.
//
// Cart events are declared as idle self-transitions so the table answers
// "is this event legal here" for every event; their context effects are
// applied without firing the underlying FSM.
type OrderMachine struct {
	fsm *fsm.FSM
	mu  sync.Mutex
}

func NewOrderMachine() *OrderMachine {
	om := &OrderMachine{}
	om.fsm = fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: string(EventItemAdded), Src: []string{string(StateIdle)}, Dst: string(StateIdle)},
			{Name: string(EventItemRemoved), Src: []string{string(StateIdle)}, Dst: string(StateIdle)},
			{Name: string(EventOrderSubmitted), Src: []string{string(StateIdle)}, Dst: string(StateProcessing)},
			{Name: string(EventPaymentReceived), Src: []string{string(StateProcessing)}, Dst: string(StateShipping)},
			{Name: string(EventOrderShipped), Src: []string{string(StateShipping)}, Dst: string(StateCompleted)},
		},
		fsm.Callbacks{},
	)
	return om
}

// Initial returns the state and context of a new order.
func (om *OrderMachine) Initial() (State, OrderContext) {
	return StateIdle, NewOrderContext()
}

// CanTransition reports whether event is accepted in currentState.
func (om *OrderMachine) CanTransition(currentState State, event EventType) bool {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.fsm.SetState(string(currentState))
	return om.fsm.Can(string(event))
}

// AvailableEvents lists the events accepted in currentState, in name order.
func (om *OrderMachine) AvailableEvents(currentState State) []EventType {
	om.mu.Lock()
	defer om.mu.Unlock()
	om.fsm.SetState(string(currentState))
	names := om.fsm.AvailableTransitions()
	events := make([]EventType, 0, len(names))
	for _, n := range names {
		events = append(events, EventType(n))
	}
	slices.Sort(events)
	return events
}

// Transition applies event to (currentState, oc). Events that are not legal
// in currentState are absorbed: the same state and context are returned and
// accepted is false. It never fails.
func (om *OrderMachine) Transition(ctx context.Context, currentState State, oc OrderContext, event Event) (next State, nextCtx OrderContext, accepted bool) {
	om.mu.Lock()
	defer om.mu.Unlock()

	om.fsm.SetState(string(currentState))
	if !om.fsm.Can(string(event.Type)) {
		return currentState, oc, false
	}

	switch event.Type {
	case EventItemAdded:
		return currentState, oc.withItemAdded(event), true
	case EventItemRemoved:
		return currentState, oc.withItemRemoved(event), true
	}

	if err := om.fsm.Event(ctx, string(event.Type)); err != nil {
		// Can already passed, so any error here is absorbed like an illegal event.
		return currentState, oc, false
	}
	next = State(om.fsm.Current())
	return next, oc.withStatus(statusByState[next]), true
}
