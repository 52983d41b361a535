package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/buildtall-systems/orderflow/internal/fsm"
)

// ErrInvalidCommand indicates a command that cannot be turned into an order event.
var ErrInvalidCommand = errors.New("invalid command")

// Command represents a parsed script line.
type Command struct {
	Name string   // Command name (lowercase)
	Args []string // Arguments after the command name
}

// Known command names
const (
	// Event commands
	CmdAdd    = "add"
	CmdRemove = "remove"
	CmdSubmit = "submit"
	CmdPay    = "pay"
	CmdShip   = "ship"

	// Query commands
	CmdStatus  = "status"
	CmdCart    = "cart"
	CmdHistory = "history"
	CmdHelp    = "help"
)

// Event type names are accepted as aliases, e.g. "item_added book 2".
var eventAliases = map[string]string{
	strings.ToLower(string(fsm.EventItemAdded)):       CmdAdd,
	strings.ToLower(string(fsm.EventItemRemoved)):     CmdRemove,
	strings.ToLower(string(fsm.EventOrderSubmitted)):  CmdSubmit,
	strings.ToLower(string(fsm.EventPaymentReceived)): CmdPay,
	strings.ToLower(string(fsm.EventOrderShipped)):    CmdShip,
}

// Parse extracts a command from a line.
// Returns nil if the line is empty, whitespace only or a # comment.
func Parse(content string) *Command {
	content = strings.TrimSpace(content)
	if content == "" || strings.HasPrefix(content, "#") {
		return nil
	}

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	if alias, ok := eventAliases[name]; ok {
		name = alias
	}

	return &Command{
		Name: name,
		Args: parts[1:],
	}
}

// IsEventCommand returns true if the command sends an order event.
func (c *Command) IsEventCommand() bool {
	switch c.Name {
	case CmdAdd, CmdRemove, CmdSubmit, CmdPay, CmdShip:
		return true
	default:
		return false
	}
}

// IsQueryCommand returns true if the command only reads the order.
func (c *Command) IsQueryCommand() bool {
	switch c.Name {
	case CmdStatus, CmdCart, CmdHistory, CmdHelp:
		return true
	default:
		return false
	}
}

// IsValid returns true if the command name is recognized.
func (c *Command) IsValid() bool {
	return c.IsEventCommand() || c.IsQueryCommand()
}

// Event converts an event command into a validated order event.
func (c *Command) Event() (fsm.Event, error) {
	var e fsm.Event
	switch c.Name {
	case CmdAdd:
		if len(c.Args) != 2 {
			return e, fmt.Errorf("%w: usage: add <item> <quantity>", ErrInvalidCommand)
		}
		qty, err := strconv.Atoi(c.Args[1])
		if err != nil {
			return e, fmt.Errorf("%w: quantity %q is not a number", ErrInvalidCommand, c.Args[1])
		}
		e = fsm.ItemAdded(c.Args[0], qty)
	case CmdRemove:
		if len(c.Args) != 1 {
			return e, fmt.Errorf("%w: usage: remove <item>", ErrInvalidCommand)
		}
		e = fsm.ItemRemoved(c.Args[0])
	case CmdSubmit, CmdPay, CmdShip:
		if len(c.Args) != 0 {
			return e, fmt.Errorf("%w: %s takes no arguments", ErrInvalidCommand, c.Name)
		}
		e = map[string]fsm.Event{
			CmdSubmit: fsm.OrderSubmitted(),
			CmdPay:    fsm.PaymentReceived(),
			CmdShip:   fsm.OrderShipped(),
		}[c.Name]
	default:
		return e, fmt.Errorf("%w: %s does not send an event", ErrInvalidCommand, c.Name)
	}

	if err := e.Validate(); err != nil {
		return fsm.Event{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return e, nil
}
