package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"doubtit/support-api/internal/domain/channel"
	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/utils/platformerrors"
)

// User-facing notices sent after agent actions.
const (
	JoinedNotice   = "A human agent has joined. You're now chatting with a human."
	ClosedNotice   = "This conversation is now closed. If you need anything else, just message again!"
	HandBackNotice = "You're back with the Doubt-It assistant. Type \"agent\" any time to reach a human again."
)

// Service implements the actions a human agent can take on a conversation.
type Service struct {
	store     *conversation.Store
	engine    *conversation.Engine
	messenger channel.Messenger
	log       zerolog.Logger
}

// NewService wires the agent actions.
func NewService(store *conversation.Store, engine *conversation.Engine, messenger channel.Messenger, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		messenger: messenger,
		log:       log.With().Str("component", "agent-service").Logger(),
	}
}

// Claim hands an AI or WAITING conversation to agentID.
func (s *Service) Claim(ctx context.Context, conversationID, agentID string) (*conversation.Conversation, error) {
	conv, err := s.store.GetHeader(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != conversation.StatusAI && conv.Status != conversation.StatusWaiting {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition,
			"conversation cannot be claimed while "+conv.Status.String(), nil,
			"b5e1d7a3-9c42-4f6b-8e20-3a7d5c1f9b84", map[string]any{"conversation_id": conv.ID})
	}

	updated, err := s.engine.SetStatus(ctx, conv, conversation.StatusHuman, agentID, conversation.Guard{
		From: []conversation.Status{conversation.StatusAI, conversation.StatusWaiting},
	})
	if err != nil {
		return nil, err
	}

	s.recordSystem(ctx, updated.ID, fmt.Sprintf("Agent %s took over the chat.", agentID))
	s.notify(ctx, updated, JoinedNotice)
	return updated, nil
}

// SendMessage delivers text to the user on behalf of the owning agent and
// stores it. Nothing is stored when delivery fails.
func (s *Service) SendMessage(ctx context.Context, conversationID, agentID, text string) (*conversation.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeBadRequest,
			"text is required", nil, "3c8f5a1e-7d26-4b94-a0e3-6f1b9d4c2e57")
	}

	conv, err := s.store.GetHeader(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != conversation.StatusHuman || conv.CurrentAgentID != agentID {
		return nil, forbidden(ctx, conv, "only the assigned agent can message this conversation")
	}

	channelID, err := s.messenger.SendText(ctx, conv.ThreadID, text)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUpstreamUnavailable,
			"failed to deliver agent message", err, "d2a6e9c4-1f58-4b37-9e0a-5c8b3d7f1a62")
	}

	msg, err := s.store.AppendMessage(ctx, conv.ID, conversation.SenderAgent, text, channelID)
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", conv.ID).Str("channel_message_id", channelID).
			Msg("agent message delivered but not stored")
		return nil, err
	}
	return msg, nil
}

// Close ends a conversation. A HUMAN conversation can only be closed by
// its owner.
func (s *Service) Close(ctx context.Context, conversationID, agentID string) (*conversation.Conversation, error) {
	conv, err := s.store.GetHeader(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := checkClosable(ctx, conv, agentID); err != nil {
		return nil, err
	}

	updated, err := s.engine.SetStatus(ctx, conv, conversation.StatusClosed, agentID, conversation.Guard{
		From:  []conversation.Status{conversation.StatusAI, conversation.StatusWaiting, conversation.StatusHuman},
		Owner: agentID,
	})
	if err != nil {
		// The header moved under us; report against what is stored now.
		if fresh, lookupErr := s.store.GetHeader(ctx, conversationID); lookupErr == nil {
			if rejected := checkClosable(ctx, fresh, agentID); rejected != nil {
				return nil, rejected
			}
		}
		return nil, err
	}

	s.recordSystem(ctx, updated.ID, fmt.Sprintf("Conversation closed by %s.", agentID))
	s.notify(ctx, updated, ClosedNotice)
	return updated, nil
}

// Release puts a HUMAN conversation back in the waiting queue.
func (s *Service) Release(ctx context.Context, conversationID, agentID string) (*conversation.Conversation, error) {
	updated, err := s.fromOwned(ctx, conversationID, agentID, conversation.StatusWaiting)
	if err != nil {
		return nil, err
	}
	s.recordSystem(ctx, updated.ID, fmt.Sprintf("Agent %s released the chat back to the queue.", agentID))
	return updated, nil
}

// HandBack returns a HUMAN conversation to the assistant.
func (s *Service) HandBack(ctx context.Context, conversationID, agentID string) (*conversation.Conversation, error) {
	updated, err := s.fromOwned(ctx, conversationID, agentID, conversation.StatusAI)
	if err != nil {
		return nil, err
	}
	s.recordSystem(ctx, updated.ID, fmt.Sprintf("Agent %s handed the chat back to the assistant.", agentID))
	s.notify(ctx, updated, HandBackNotice)
	return updated, nil
}

func (s *Service) fromOwned(ctx context.Context, conversationID, agentID string, target conversation.Status) (*conversation.Conversation, error) {
	conv, err := s.store.GetHeader(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != conversation.StatusHuman {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition,
			"conversation is not assigned to an agent", nil,
			"7e4b2d9f-6a13-4c85-b1f7-0d9e3a6c5b28", map[string]any{"conversation_id": conv.ID})
	}
	if conv.CurrentAgentID != agentID {
		return nil, forbidden(ctx, conv, "conversation is assigned to another agent")
	}

	return s.engine.SetStatus(ctx, conv, target, "", conversation.Guard{
		From:  []conversation.Status{conversation.StatusHuman},
		Owner: agentID,
	})
}

func checkClosable(ctx context.Context, conv *conversation.Conversation, agentID string) error {
	switch {
	case conv.Status == conversation.StatusClosed:
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition,
			"conversation is already closed", nil,
			"a9c3f7e1-2b64-4d08-95e7-1f6a8c4d2b93", map[string]any{"conversation_id": conv.ID})
	case conv.Status == conversation.StatusHuman && conv.CurrentAgentID != "" && conv.CurrentAgentID != agentID:
		return forbidden(ctx, conv, "conversation is assigned to another agent")
	}
	return nil
}

func forbidden(ctx context.Context, conv *conversation.Conversation, message string) error {
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
		message, nil, "f1d8b4a6-3e97-4c52-8a0d-7b2e5f9c1d36",
		map[string]any{"conversation_id": conv.ID, "current_agent_id": conv.CurrentAgentID})
}

// recordSystem appends an audit line. The transition already happened, so
// a failure here is logged only.
func (s *Service) recordSystem(ctx context.Context, conversationID, text string) {
	if _, err := s.store.AppendMessage(ctx, conversationID, conversation.SenderSystem, text, ""); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("failed to record system message")
	}
}

func (s *Service) notify(ctx context.Context, conv *conversation.Conversation, text string) {
	if _, err := s.messenger.SendText(ctx, conv.ThreadID, text); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("failed to notify user")
	}
}
