package conversation

import (
	"context"
	"time"
)

// Repository persists conversation headers and their messages.
//
// Implementations return ErrNotFound, ErrAlreadyExists, ErrPreconditionFailed
// and ErrInvalidPageToken for the conditions they name; any other error is
// treated as the backing store being unavailable.
type Repository interface {
	// CreateConversation inserts a header if no conversation owns the thread yet.
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	// FindByThreadID returns the conversation for a thread. If more than one
	// exists, the earliest created wins.
	FindByThreadID(ctx context.Context, threadID string) (*Conversation, error)
	// InsertMessage writes a message; it fails with ErrNotFound when the parent is absent.
	InsertMessage(ctx context.Context, msg *Message) error
	// TouchConversation moves last_active forward to at; older values are ignored.
	TouchConversation(ctx context.Context, id string, at time.Time) error
	// ApplyMutation applies m if guard holds and returns the updated header.
	ApplyMutation(ctx context.Context, id string, m Mutation, guard Guard) (*Conversation, error)
	ListByStatus(ctx context.Context, status Status, limit int, pageToken string) (Page[*Conversation], error)
	ListMessages(ctx context.Context, conversationID string, limit int, pageToken string) (Page[*Message], error)
	// CountByStatus counts conversations in status whose last_active is at or after since.
	// A zero since counts all of them.
	CountByStatus(ctx context.Context, status Status, since time.Time) (int, error)
}
