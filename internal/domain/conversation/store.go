package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/utils/platformerrors"
)

const (
	// DefaultPageSize applies when callers pass a non-positive limit.
	DefaultPageSize = 20
	// MaxPageSize caps any single page.
	MaxPageSize = 100
)

// StoreConfig bounds every repository call.
type StoreConfig struct {
	Timeout time.Duration
}

// Store exposes the conversation persistence contract on top of a Repository.
type Store struct {
	repo    Repository
	keys    *KeyGenerator
	now     func() time.Time
	timeout time.Duration
	log     zerolog.Logger
}

// NewStore constructs the conversation store.
func NewStore(repo Repository, cfg StoreConfig, log zerolog.Logger) *Store {
	return &Store{
		repo:    repo,
		keys:    NewKeyGenerator(),
		now:     func() time.Time { return time.Now().UTC() },
		timeout: cfg.Timeout,
		log:     log.With().Str("component", "conversation-store").Logger(),
	}
}

// WithClock overrides the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// CreateConversation creates a new AI-routed conversation for threadID.
func (s *Store) CreateConversation(ctx context.Context, threadID, displayName string) (*Conversation, error) {
	if threadID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeBadRequest,
			"thread id is required", nil, "4f0e9a52-71d3-4c55-9a1e-0c5d2f6b8e11")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.FindByThreadID(ctx, threadID); err == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeAlreadyExists,
			"conversation already exists for thread", ErrAlreadyExists, "9d3b7c21-5e48-4f0a-b6c2-7a1e8d4f3b90")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, s.mapError(ctx, err, "lookup conversation by thread")
	}

	now := s.now()
	conv := &Conversation{
		ID:         uuid.NewString(),
		ThreadID:   threadID,
		UserName:   displayName,
		Status:     StatusAI,
		StartedAt:  now,
		LastActive: now,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, s.mapError(ctx, err, "create conversation")
	}

	s.log.Info().Str("conversation_id", conv.ID).Str("thread_id", threadID).Msg("conversation created")
	return conv, nil
}

// GetConversation loads a conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, s.mapError(ctx, err, "get conversation")
	}
	return conv, nil
}

// GetHeader loads only the header record of a conversation.
func (s *Store) GetHeader(ctx context.Context, id string) (*Conversation, error) {
	return s.GetConversation(ctx, id)
}

// FindByThreadID resolves the conversation owning a channel thread.
func (s *Store) FindByThreadID(ctx context.Context, threadID string) (*Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	conv, err := s.repo.FindByThreadID(ctx, threadID)
	if err != nil {
		return nil, s.mapError(ctx, err, "find conversation by thread")
	}
	return conv, nil
}

// AppendMessage writes a message and then bumps the parent's last_active.
// A failed bump is logged and leaves the message in place.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, sender SenderType, content, channelMessageID string) (*Message, error) {
	if !sender.Valid() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeBadRequest,
			"unknown sender type", nil, "0b6f4d8e-2c17-4a93-8e5d-1f7a3c9b2d64")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	parent, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, s.mapError(ctx, err, "load conversation for append")
	}

	at := s.now()
	if parent.LastActive.After(at) {
		at = parent.LastActive
	}

	msg := &Message{
		ID:               s.keys.Next(at),
		ConversationID:   conversationID,
		SenderType:       sender,
		Content:          content,
		ChannelMessageID: channelMessageID,
		CreatedAt:        at,
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, s.mapError(ctx, err, "insert message")
	}

	if err := s.repo.TouchConversation(ctx, conversationID, at); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", conversationID).Str("message_id", msg.ID).
			Msg("message stored but last_active bump failed")
	}

	return msg, nil
}

// ListByStatus pages conversations in status, most recently active first.
func (s *Store) ListByStatus(ctx context.Context, status Status, limit int, pageToken string) (Page[*Conversation], error) {
	if !status.Valid() {
		return Page[*Conversation]{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeBadRequest,
			"unknown status", nil, "6a2c9e17-3b5d-4f81-a0e4-8d7c1b5f9a23")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	page, err := s.repo.ListByStatus(ctx, status, ClampLimit(limit, DefaultPageSize), pageToken)
	if err != nil {
		return Page[*Conversation]{}, s.mapError(ctx, err, "list conversations by status")
	}
	return page, nil
}

// ListMessages pages a conversation's messages, newest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int, pageToken string) (Page[*Message], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	page, err := s.repo.ListMessages(ctx, conversationID, ClampLimit(limit, DefaultPageSize), pageToken)
	if err != nil {
		return Page[*Message]{}, s.mapError(ctx, err, "list messages")
	}
	return page, nil
}

// CountByStatus counts conversations in status active since the given time.
func (s *Store) CountByStatus(ctx context.Context, status Status, since time.Time) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.repo.CountByStatus(ctx, status, since)
	if err != nil {
		return 0, s.mapError(ctx, err, "count conversations")
	}
	return n, nil
}

// ClampLimit applies def to non-positive limits and caps at MaxPageSize.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return boundedContext(ctx, s.timeout)
}

func (s *Store) mapError(ctx context.Context, err error, message string) error {
	return mapRepositoryError(ctx, err, message)
}

func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func mapRepositoryError(ctx context.Context, err error, message string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"conversation not found", err, "c7e2a4f9-8b13-4d6e-9f05-3a8b6d1c7e42")
	case errors.Is(err, ErrAlreadyExists):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeAlreadyExists,
			"conversation already exists for thread", err, "9d3b7c21-5e48-4f0a-b6c2-7a1e8d4f3b90")
	case errors.Is(err, ErrInvalidPageToken):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeBadRequest,
			"invalid page token", err, "1e5d8b3a-6f29-4c07-b4a1-9c2e7f5d0b86")
	case errors.Is(err, ErrPreconditionFailed):
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidTransition,
			"conversation changed concurrently", err, "e4a91c6d-0b72-4e38-8d5f-2b6a9c3e1f07")
	default:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUpstreamUnavailable,
			message, err, "5b8f2e7c-9a14-4d3b-a6e0-7c1d4b9f2a58")
	}
}
