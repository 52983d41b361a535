package fsm

// State is the discriminant of the order workflow.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateShipping   State = "shipping"
	StateCompleted  State = "completed"
)

// Status mirrors State inside the order context.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusCompleted  Status = "completed"
)

// EventType names an order event.
type EventType string

const (
	EventItemAdded       EventType = "ITEM_ADDED"
	EventItemRemoved     EventType = "ITEM_REMOVED"
	EventOrderSubmitted  EventType = "ORDER_SUBMITTED"
	EventPaymentReceived EventType = "PAYMENT_RECEIVED"
	EventOrderShipped    EventType = "ORDER_SHIPPED"
)

// statusByState holds the status each state writes on entry.
var statusByState = map[State]Status{
	StateIdle:       StatusPending,
	StateProcessing: StatusProcessing,
	StateShipping:   StatusShipping,
	StateCompleted:  StatusCompleted,
}
