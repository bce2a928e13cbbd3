package domain

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Action is the kind of mutating ledger operation.
type Action int

const (
	// ActionNull represents no action or an undefined action.
	ActionNull Action = iota
	// ActionDeposit moves funds from the account into the ledger contract.
	ActionDeposit
	// ActionWithdraw moves funds out of the ledger contract back to the account.
	ActionWithdraw
	// ActionTransfer sends funds from the contract balance to another address.
	ActionTransfer
)

// Actions lists every user-triggerable action kind.
var Actions = []Action{ActionDeposit, ActionWithdraw, ActionTransfer}

func (a Action) String() string {
	switch a {
	case ActionDeposit:
		return "deposit"
	case ActionWithdraw:
		return "withdraw"
	case ActionTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalJSON renders the action by name so logs and streams stay readable.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed := ParseAction(name)
	if parsed == ActionNull {
		return errors.Errorf("unknown action %q", name)
	}
	*a = parsed
	return nil
}

// ParseAction maps the wire form used by the contract and the HTTP layer back
// to an Action. Returns ActionNull for unknown input.
func ParseAction(s string) Action {
	switch s {
	case "deposit":
		return ActionDeposit
	case "withdraw":
		return ActionWithdraw
	case "transfer":
		return ActionTransfer
	default:
		return ActionNull
	}
}
