package conversation

import (
	"fmt"
	"strings"
)

// Status is the routing state of a conversation.
type Status string

const (
	StatusAI      Status = "AI"
	StatusWaiting Status = "WAITING"
	StatusHuman   Status = "HUMAN"
	StatusClosed  Status = "CLOSED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusAI, StatusWaiting, StatusHuman, StatusClosed}

// ValidTransitions defines allowed status transitions.
var ValidTransitions = map[Status][]Status{
	StatusAI:      {StatusWaiting, StatusHuman, StatusClosed},
	StatusWaiting: {StatusHuman, StatusClosed},
	StatusHuman:   {StatusAI, StatusWaiting, StatusClosed},
	StatusClosed:  {},
}

// ParseStatus converts user input into a Status, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := ValidTransitions[s]
	return ok
}

// CanTransitionTo checks if a status can transition to another status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range ValidTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if the status has no outbound transitions.
func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

// Sources returns every status from which target is reachable in one step.
func Sources(target Status) []Status {
	var out []Status
	for _, from := range AllStatuses {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

func (s Status) String() string {
	return string(s)
}
