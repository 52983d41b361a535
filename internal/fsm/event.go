package fsm

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent indicates an event type outside the order workflow.
var ErrUnknownEvent = errors.New("unknown order event")

// ErrInvalidEvent indicates an event whose payload does not fit its type.
var ErrInvalidEvent = errors.New("invalid order event")

// Event is an order event. Item and Quantity are only meaningful for cart events.
type Event struct {
	Type     EventType `json:"type"`
	Item     string    `json:"item,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
}

// ItemAdded returns an ITEM_ADDED event.
func ItemAdded(item string, quantity int) Event {
	return Event{Type: EventItemAdded, Item: item, Quantity: quantity}
}

// ItemRemoved returns an ITEM_REMOVED event.
func ItemRemoved(item string) Event {
	return Event{Type: EventItemRemoved, Item: item}
}

func OrderSubmitted() Event  { return Event{Type: EventOrderSubmitted} }
func PaymentReceived() Event { return Event{Type: EventPaymentReceived} }
func OrderShipped() Event    { return Event{Type: EventOrderShipped} }

// IsCartEvent reports whether the event mutates the cart.
func (e Event) IsCartEvent() bool {
	return e.Type == EventItemAdded || e.Type == EventItemRemoved
}

// Validate checks the event shape. The machine never calls it; callers
// feeding untrusted input should reject events before sending them.
func (e Event) Validate() error {
	switch e.Type {
	case EventItemAdded:
		if e.Item == "" {
			return fmt.Errorf("%w: %s requires an item", ErrInvalidEvent, e.Type)
		}
		if e.Quantity < 0 {
			return fmt.Errorf("%w: %s quantity %d is negative", ErrInvalidEvent, e.Type, e.Quantity)
		}
	case EventItemRemoved:
		if e.Item == "" {
			return fmt.Errorf("%w: %s requires an item", ErrInvalidEvent, e.Type)
		}
	case EventOrderSubmitted, EventPaymentReceived, EventOrderShipped:
		if e.Item != "" || e.Quantity != 0 {
			return fmt.Errorf("%w: %s carries no payload", ErrInvalidEvent, e.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
	return nil
}

func (e Event) String() string {
	switch e.Type {
	case EventItemAdded:
		return fmt.Sprintf("%s(%s x%d)", e.Type, e.Item, e.Quantity)
	case EventItemRemoved:
		return fmt.Sprintf("%s(%s)", e.Type, e.Item)
	default:
		return string(e.Type)
	}
}
