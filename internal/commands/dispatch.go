package commands

import (
	"fmt"
	"strings"

	"github.com/buildtall-systems/orderflow/internal/fsm"
	"github.com/buildtall-systems/orderflow/internal/order"
	"github.com/buildtall-systems/orderflow/internal/store"
)

var orderSM = fsm.NewOrderMachine()

// Result holds the response from a command execution.
type Result struct {
	Message string
	Error   error
}

// Execute runs the command against the order store and returns a result.
// Event commands report whether the order changed; events the workflow
// ignores in its current state are not errors.
func Execute(s *order.Store, cmd *Command) Result {
	if cmd.IsEventCommand() {
		return sendEvent(s, cmd)
	}

	switch cmd.Name {
	case CmdStatus:
		return StatusCmd(s)

	case CmdCart:
		return CartCmd(s)

	case CmdHistory:
		return HistoryCmd(s)

	default:
		return HelpCmd()
	}
}

func sendEvent(s *order.Store, cmd *Command) Result {
	event, err := cmd.Event()
	if err != nil {
		return Result{Error: err}
	}

	before := s.Snapshot()
	s.Send(event)
	after := s.Snapshot()

	if store.Same(before, after) {
		return Result{Message: fmt.Sprintf("%s ignored while %s", event, after.Value)}
	}
	return Result{Message: fmt.Sprintf("%s accepted, order is %s", event, after.Value)}
}

// StatusCmd reports the workflow state, the status and the events the order
// accepts next.
func StatusCmd(s *order.Store) Result {
	snap := s.Snapshot()
	next := "none"
	if events := orderSM.AvailableEvents(snap.Value); len(events) > 0 {
		names := make([]string, len(events))
		for i, e := range events {
			names[i] = string(e)
		}
		next = strings.Join(names, ", ")
	}
	return Result{Message: fmt.Sprintf("Order is %s (status %s); next: %s", snap.Value, snap.Context.Status, next)}
}

// CartCmd lists the cart contents.
func CartCmd(s *order.Store) Result {
	oc := s.Snapshot().Context
	if len(oc.Items) == 0 {
		return Result{Message: "Cart is empty"}
	}

	var b strings.Builder
	b.WriteString("Cart:")
	for _, item := range oc.ItemNames() {
		fmt.Fprintf(&b, "\n  %s x%d", item, oc.Items[item])
	}
	return Result{Message: b.String()}
}

// HistoryCmd lists the logged cart events.
func HistoryCmd(s *order.Store) Result {
	events := s.Snapshot().Context.Events
	if len(events) == 0 {
		return Result{Message: "No cart events"}
	}

	var b strings.Builder
	b.WriteString("Cart events:")
	for i, e := range events {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, e)
	}
	return Result{Message: b.String()}
}

// HelpCmd lists the available commands.
func HelpCmd() Result {
	return Result{Message: `Available commands:
  add <item> <quantity>  add items to the cart
  remove <item>          remove an item from the cart
  submit                 submit the order
  pay                    record payment
  ship                   mark the order shipped
  status                 show the order state
  cart                   show the cart
  history                show cart events`}
}
