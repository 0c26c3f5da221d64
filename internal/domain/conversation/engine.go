package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"doubtit/support-api/internal/utils/platformerrors"
)

// Engine applies status transitions as single conditional writes.
type Engine struct {
	repo    Repository
	now     func() time.Time
	timeout time.Duration
	log     zerolog.Logger
}

// NewEngine constructs the transition engine.
func NewEngine(repo Repository, cfg StoreConfig, log zerolog.Logger) *Engine {
	return &Engine{
		repo:    repo,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "transition-engine").Logger(),
	}
}

// WithClock overrides the time source; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// SetStatus moves current to target. The write only lands if guard still
// holds against the stored header, narrowed to statuses that can reach
// target at all; otherwise it fails with INVALID_TRANSITION wrapping
// ErrPreconditionFailed. current is the caller's last observed header.
func (e *Engine) SetStatus(ctx context.Context, current *Conversation, target Status, agentID string, guard Guard) (*Conversation, error) {
	now := e.now()
	if current.LastActive.After(now) {
		now = current.LastActive
	}

	mutation, err := PlanTransition(target, agentID, now)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeBadRequest,
			err.Error(), err, "2d7a5f1b-4c86-4e90-b3d2-6f8e1a7c5b39")
	}

	guard = guard.restrict(target)
	if !guard.Allows(current) {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition,
			"cannot move conversation from "+current.Status.String()+" to "+target.String(), ErrPreconditionFailed,
			"8c3e6a2f-1d57-4b09-9e4a-5f2c8b7d3e16", map[string]any{"conversation_id": current.ID})
	}

	ctx, cancel := boundedContext(ctx, e.timeout)
	defer cancel()

	updated, err := e.repo.ApplyMutation(ctx, current.ID, mutation, guard)
	if err != nil {
		e.log.Debug().Err(err).Str("conversation_id", current.ID).Str("from", current.Status.String()).
			Str("to", target.String()).Msg("transition rejected")
		return nil, mapRepositoryError(ctx, err, "apply transition")
	}

	e.log.Info().
		Str("conversation_id", current.ID).
		Str("from", current.Status.String()).
		Str("to", target.String()).
		Str("agent_id", updated.CurrentAgentID).
		Msg("conversation status changed")

	return updated, nil
}
