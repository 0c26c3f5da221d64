package inbound

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"doubtit/support-api/internal/domain/channel"
	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/domain/llm"
	"doubtit/support-api/internal/utils/platformerrors"
	"doubtit/support-api/internal/utils/redact"
)

// Replies sent to end users by the inbound flow.
const (
	HumanRequestAck = "Got it. Connecting you to a human agent…"
	ClosedNotice    = "This conversation has been closed, so a human agent can't join it. I'm still here if you have another question!"
	WelcomeReply    = "Welcome to Doubt-It! How can I assist you today?"
	FallbackReply   = "Sorry, I'm having trouble generating a response right now. Please try again later, or type \"agent\" to reach a human."
)

// Outcome labels what the inbound flow did with a message.
type Outcome string

const (
	OutcomeAIReply        Outcome = "ai_reply"
	OutcomeFallbackReply  Outcome = "fallback_reply"
	OutcomeHumanRequested Outcome = "human_requested"
	OutcomeAwaitingHuman  Outcome = "awaiting_human"
	OutcomeClosedNotice   Outcome = "closed_notice"
	OutcomeWelcome        Outcome = "welcome"
	OutcomeSuperseded     Outcome = "superseded"
	OutcomeIgnored        Outcome = "ignored"
	OutcomeFailed         Outcome = "failed"
)

// Service routes inbound user messages between the assistant and humans.
type Service struct {
	store     *conversation.Store
	engine    *conversation.Engine
	messenger channel.Messenger
	responder llm.Responder
	redactor  *redact.Redactor
	log       zerolog.Logger
}

// NewService wires the inbound flow.
func NewService(
	store *conversation.Store,
	engine *conversation.Engine,
	messenger channel.Messenger,
	responder llm.Responder,
	redactor *redact.Redactor,
	log zerolog.Logger,
) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		messenger: messenger,
		responder: responder,
		redactor:  redactor,
		log:       log.With().Str("component", "inbound-service").Logger(),
	}
}

// HandleInboundMessage persists msg and decides who answers it. The user
// message is stored before anything else is attempted. A returned error is
// for logging and metrics only; transports must still acknowledge receipt.
func (s *Service) HandleInboundMessage(ctx context.Context, msg channel.InboundMessage) (Outcome, error) {
	log := s.log.With().
		Str("thread", s.redactor.ID(msg.ThreadID)).
		Int64("update_id", msg.UpdateID).
		Logger()

	conv, err := s.resolveConversation(ctx, msg)
	if err != nil {
		return OutcomeFailed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "resolve conversation")
	}
	log = log.With().Str("conversation_id", conv.ID).Logger()

	if _, err := s.store.AppendMessage(ctx, conv.ID, conversation.SenderUser, msg.Text, msg.ChannelMessageID); err != nil {
		return OutcomeFailed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "store user message")
	}
	log.Debug().Str("status", conv.Status.String()).Str("text", s.redactor.Text(msg.Text)).Msg("user message stored")

	text := strings.TrimSpace(msg.Text)
	switch {
	case IsHumanRequest(text):
		return s.requestHuman(ctx, log, conv)
	case conv.Status == conversation.StatusWaiting || conv.Status == conversation.StatusHuman:
		return OutcomeAwaitingHuman, nil
	case text == "":
		return OutcomeIgnored, nil
	case IsStartCommand(text):
		if err := s.deliver(ctx, conv, WelcomeReply); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeWelcome, nil
	default:
		return s.replyWithAssistant(ctx, log, conv, text)
	}
}

func (s *Service) resolveConversation(ctx context.Context, msg channel.InboundMessage) (*conversation.Conversation, error) {
	conv, err := s.store.FindByThreadID(ctx, msg.ThreadID)
	if err == nil {
		return conv, nil
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, err
	}

	conv, err = s.store.CreateConversation(ctx, msg.ThreadID, msg.SenderName)
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeAlreadyExists) {
		// Lost a creation race with a concurrent first message; use the winner.
		return s.store.FindByThreadID(ctx, msg.ThreadID)
	}
	return conv, err
}

func (s *Service) requestHuman(ctx context.Context, log zerolog.Logger, conv *conversation.Conversation) (Outcome, error) {
	switch conv.Status {
	case conversation.StatusClosed:
		if err := s.deliver(ctx, conv, ClosedNotice); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeClosedNotice, nil
	case conversation.StatusAI:
		_, err := s.engine.SetStatus(ctx, conv, conversation.StatusWaiting, "",
			conversation.Guard{From: []conversation.Status{conversation.StatusAI}})
		if err != nil && !s.alreadyWithHumans(ctx, conv.ID) {
			return OutcomeFailed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "queue conversation for a human")
		}
		log.Info().Msg("user asked for a human agent")
	}

	if err := s.deliver(ctx, conv, HumanRequestAck); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeHumanRequested, nil
}

// alreadyWithHumans reports whether a concurrent writer already moved the
// conversation to WAITING or HUMAN, which satisfies a human request.
func (s *Service) alreadyWithHumans(ctx context.Context, id string) bool {
	fresh, err := s.store.GetHeader(ctx, id)
	if err != nil {
		return false
	}
	return fresh.Status == conversation.StatusWaiting || fresh.Status == conversation.StatusHuman
}

func (s *Service) replyWithAssistant(ctx context.Context, log zerolog.Logger, conv *conversation.Conversation, text string) (Outcome, error) {
	outcome := OutcomeAIReply
	reply, err := s.responder.GenerateReply(ctx, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		log.Warn().Err(err).Msg("assistant reply unavailable; using fallback")
		reply = FallbackReply
		outcome = OutcomeFallbackReply
	}

	// An agent may have claimed the conversation while the reply was generated.
	if s.alreadyWithHumans(ctx, conv.ID) {
		log.Info().Msg("discarding assistant reply; conversation is with a human")
		return OutcomeSuperseded, nil
	}

	if _, err := s.store.AppendMessage(ctx, conv.ID, conversation.SenderAI, reply, ""); err != nil {
		return OutcomeFailed, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "store assistant reply")
	}
	if err := s.deliver(ctx, conv, reply); err != nil {
		return OutcomeFailed, err
	}
	return outcome, nil
}

func (s *Service) deliver(ctx context.Context, conv *conversation.Conversation, text string) error {
	if _, err := s.messenger.SendText(ctx, conv.ThreadID, text); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUpstreamUnavailable,
			"deliver reply to channel", err, "a3f7c1e9-6d24-4b58-8e0a-9c5b2d7f4e13")
	}
	return nil
}
