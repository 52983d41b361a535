package fsm

import (
	"maps"
	"slices"
)

// OrderContext is the data carried alongside the order state. It is replaced,
// never mutated, on every accepted transition.
type OrderContext struct {
	Items  map[string]int `json:"items"`
	Total  int64          `json:"total"`
	Status Status         `json:"status"`
	Events []Event        `json:"events"`
}

// NewOrderContext returns the context of a freshly created order.
func NewOrderContext() OrderContext {
	return OrderContext{
		Items:  map[string]int{},
		Status: StatusPending,
		Events: []Event{},
	}
}

// withItemAdded upserts the item, summing quantities, and logs the event.
func (c OrderContext) withItemAdded(e Event) OrderContext {
	items := maps.Clone(c.Items)
	if items == nil {
		items = map[string]int{}
	}
	items[e.Item] += e.Quantity
	c.Items = items
	c.Events = appendEvent(c.Events, e)
	return c
}

// withItemRemoved drops the item if present. The event is logged either way.
func (c OrderContext) withItemRemoved(e Event) OrderContext {
	items := maps.Clone(c.Items)
	if items == nil {
		items = map[string]int{}
	}
	delete(items, e.Item)
	c.Items = items
	c.Events = appendEvent(c.Events, e)
	return c
}

func (c OrderContext) withStatus(s Status) OrderContext {
	c.Status = s
	return c
}

func appendEvent(events []Event, e Event) []Event {
	out := make([]Event, 0, len(events)+1)
	out = append(out, events...)
	return append(out, e)
}

// Quantity returns the quantity of item in the cart.
func (c OrderContext) Quantity(item string) int {
	return c.Items[item]
}

// ItemNames returns the cart's item identifiers in sorted order.
func (c OrderContext) ItemNames() []string {
	return slices.Sorted(maps.Keys(c.Items))
}
