package conversation

import "time"

// SenderType identifies who authored a message.
type SenderType string

const (
	SenderUser   SenderType = "USER"
	SenderAI     SenderType = "AI"
	SenderAgent  SenderType = "AGENT"
	SenderSystem SenderType = "SYSTEM"
)

// Valid reports whether s is a known sender type.
func (s SenderType) Valid() bool {
	switch s {
	case SenderUser, SenderAI, SenderAgent, SenderSystem:
		return true
	}
	return false
}

// Conversation is the header record of one end-user chat thread.
type Conversation struct {
	ID             string     `json:"id"`
	ThreadID       string     `json:"thread_id"`
	UserName       string     `json:"user_name"`
	Status         Status     `json:"status"`
	CurrentAgentID string     `json:"current_agent_id,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	LastActive     time.Time  `json:"last_active"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// Clone returns a deep copy.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	if c.EndedAt != nil {
		ended := *c.EndedAt
		out.EndedAt = &ended
	}
	return &out
}

// Message is an immutable entry in a conversation's log. ID is a ULID and
// doubles as the sort key within the conversation.
type Message struct {
	ID               string     `json:"id"`
	ConversationID   string     `json:"conversation_id"`
	SenderType       SenderType `json:"sender_type"`
	Content          string     `json:"content"`
	ChannelMessageID string     `json:"channel_message_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Page is one slice of a paginated listing. NextPageToken is empty on the last page.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}
