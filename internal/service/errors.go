package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy shared by every service. Handlers map these onto status
// codes; anything else is treated as an internal fault.
var (
	// ErrNotFound: the entity id does not resolve for the given owner.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the operation is illegal for the current lifecycle
	// state (starting a second timer, finishing a challenge twice, ...).
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: malformed input (missing time slots, bad date range).
	ErrValidation = errors.New("validation failed")
)

// ConflictingEvent is one colliding calendar entry, labeled for error
// reporting.
type ConflictingEvent struct {
	Label string
	Start time.Time
	End   time.Time
}

// ConflictError reports a scheduling overlap with the list of colliding
// events.
type ConflictError struct {
	Events []ConflictingEvent
}

func (e *ConflictError) Error() string {
	details := make([]string, len(e.Events))
	for i, ev := range e.Events {
		details[i] = fmt.Sprintf("%s from %s to %s",
			ev.Label, ev.Start.Format("15:04"), ev.End.Format("15:04"))
	}
	return fmt.Sprintf("time slot already taken by (%s)", strings.Join(details, ", "))
}
