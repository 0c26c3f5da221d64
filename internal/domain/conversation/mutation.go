package conversation

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrNotFound is returned by repositories when a record is absent.
	ErrNotFound = errors.New("conversation not found")
	// ErrAlreadyExists is returned when a conversation already exists for a thread.
	ErrAlreadyExists = errors.New("conversation already exists for thread")
	// ErrPreconditionFailed is returned when a conditional write's guard did not hold.
	ErrPreconditionFailed = errors.New("conversation precondition failed")
	// ErrInvalidPageToken is returned when a page token cannot be decoded.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// Field names a mutable conversation header attribute.
type Field string

const (
	FieldStatus         Field = "status"
	FieldCurrentAgentID Field = "current_agent_id"
	FieldLastActive     Field = "last_active"
	FieldEndedAt        Field = "ended_at"
)

// Mutation is the set of header changes a transition applies in one write.
// Removed fields are deleted rather than nulled.
type Mutation struct {
	Set    map[Field]any
	Remove []Field
}

// PlanTransition computes the header mutation for moving to target.
// It is pure; legality against the current status is checked by the Guard.
func PlanTransition(target Status, agentID string, now time.Time) (Mutation, error) {
	if !target.Valid() {
		return Mutation{}, fmt.Errorf("unknown target status %q", target)
	}

	m := Mutation{Set: map[Field]any{
		FieldStatus:     target,
		FieldLastActive: now.UTC(),
	}}

	switch target {
	case StatusHuman:
		if agentID == "" {
			return Mutation{}, errors.New("agent id is required to assign a conversation")
		}
		m.Set[FieldCurrentAgentID] = agentID
	case StatusAI, StatusWaiting:
		m.Remove = []Field{FieldCurrentAgentID}
	case StatusClosed:
		m.Set[FieldEndedAt] = now.UTC()
		m.Remove = []Field{FieldCurrentAgentID}
	}

	return m, nil
}

// Status returns the target status of the mutation.
func (m Mutation) Status() Status {
	s, _ := m.Set[FieldStatus].(Status)
	return s
}

// LastActive returns the last_active value the mutation writes.
func (m Mutation) LastActive() time.Time {
	t, _ := m.Set[FieldLastActive].(time.Time)
	return t
}

// NotBefore returns a copy of m whose last_active is no earlier than t.
// Mutations that do not write last_active are returned unchanged.
func (m Mutation) NotBefore(t time.Time) Mutation {
	at := m.LastActive()
	if at.IsZero() || !t.After(at) {
		return m
	}
	set := make(map[Field]any, len(m.Set))
	for field, value := range m.Set {
		set[field] = value
	}
	set[FieldLastActive] = t.UTC()
	return Mutation{Set: set, Remove: m.Remove}
}

// Removes reports whether f is removed by the mutation.
func (m Mutation) Removes(f Field) bool {
	return slices.Contains(m.Remove, f)
}

// ApplyTo writes the mutation into c in place. last_active only moves forward.
func (m Mutation) ApplyTo(c *Conversation) {
	for field, value := range m.Set {
		switch field {
		case FieldStatus:
			c.Status = value.(Status)
		case FieldCurrentAgentID:
			c.CurrentAgentID = value.(string)
		case FieldLastActive:
			if at := value.(time.Time); at.After(c.LastActive) {
				c.LastActive = at
			}
		case FieldEndedAt:
			ended := value.(time.Time)
			c.EndedAt = &ended
		}
	}
	for _, field := range m.Remove {
		switch field {
		case FieldCurrentAgentID:
			c.CurrentAgentID = ""
		case FieldEndedAt:
			c.EndedAt = nil
		}
	}
}

// Guard is the precondition of a conditional header write.
// The current status must be in From. When Owner is set and the
// conversation is HUMAN, current_agent_id must equal Owner.
type Guard struct {
	From  []Status
	Owner string
}

// Allows evaluates the guard against c.
func (g Guard) Allows(c *Conversation) bool {
	if c == nil || !slices.Contains(g.From, c.Status) {
		return false
	}
	if g.Owner != "" && c.Status == StatusHuman && c.CurrentAgentID != g.Owner {
		return false
	}
	return true
}

// restrict narrows From to statuses that can legally reach target.
func (g Guard) restrict(target Status) Guard {
	sources := Sources(target)
	if len(g.From) == 0 {
		return Guard{From: sources, Owner: g.Owner}
	}
	var from []Status
	for _, s := range g.From {
		if slices.Contains(sources, s) {
			from = append(from, s)
		}
	}
	return Guard{From: from, Owner: g.Owner}
}
