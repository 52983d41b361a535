// Package order binds the order workflow machine to a reactive store.
package order

import (
	"github.com/buildtall-systems/orderflow/internal/actor"
	"github.com/buildtall-systems/orderflow/internal/fsm"
	"github.com/buildtall-systems/orderflow/internal/store"
)

// Store is a reactive store over an order workflow.
type Store = store.Store[fsm.State, fsm.OrderContext, fsm.Event]

// Context field names, usable with store.SelectMany.
const (
	FieldItems  = "items"
	FieldTotal  = "total"
	FieldStatus = "status"
	FieldEvents = "events"
)

var (
	Items = store.Field[fsm.OrderContext, map[string]int]{
		Name: FieldItems,
		Get:  func(c fsm.OrderContext) map[string]int { return c.Items },
	}
	Total = store.Field[fsm.OrderContext, int64]{
		Name: FieldTotal,
		Get:  func(c fsm.OrderContext) int64 { return c.Total },
	}
	Status = store.Field[fsm.OrderContext, fsm.Status]{
		Name: FieldStatus,
		Get:  func(c fsm.OrderContext) fsm.Status { return c.Status },
	}
	Events = store.Field[fsm.OrderContext, []fsm.Event]{
		Name: FieldEvents,
		Get:  func(c fsm.OrderContext) []fsm.Event { return c.Events },
	}
)

// NewStore returns an unstarted store over a fresh order.
func NewStore() *Store {
	return store.New[fsm.State, fsm.OrderContext, fsm.Event](
		actor.NewOrderActor(),
		store.WithFields[fsm.OrderContext](Items, Total, Status, Events),
	)
}
