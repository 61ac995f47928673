// Package conversation implements the per-chat state machine that gates
// accepting, repeating, cancelling and deleting reminders.
package conversation

import (
	"github.com/hrygo/remindme/plugin/notification"
)

// State is a closed sum type: Idle, Parsed or ParsedWithError.
type State interface {
	Name() string

	sealedState()
}

// Idle means nothing is pending.
type Idle struct{}

// Parsed holds a successful parse waiting for Accept.
type Parsed struct {
	OriginalText string
	Notification notification.Notification
}

// ParsedWithError holds text the interpreter could not convert.
type ParsedWithError struct {
	OriginalText string
}

func (Idle) Name() string            { return "idle" }
func (Parsed) Name() string          { return "parsed" }
func (ParsedWithError) Name() string { return "parsed_with_error" }

func (Idle) sealedState()            {}
func (Parsed) sealedState()          {}
func (ParsedWithError) sealedState() {}
