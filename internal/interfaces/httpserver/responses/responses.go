package responses

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/domain/dashboard"
	"doubtit/support-api/internal/infrastructure/telegram"
	"doubtit/support-api/internal/utils/platformerrors"
)

// HandleError writes err using the platform error body.
func HandleError(c *gin.Context, err error, log zerolog.Logger) {
	platformerrors.WriteError(c, err, log)
}

// OKResponse acknowledges an action.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ConversationResponse is a conversation header.
type ConversationResponse struct {
	ID             string     `json:"id"`
	ThreadID       string     `json:"thread_id"`
	UserName       string     `json:"user_name"`
	Status         string     `json:"status"`
	CurrentAgentID *string    `json:"current_agent_id"`
	StartedAt      time.Time  `json:"started_at"`
	LastActive     time.Time  `json:"last_active"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
}

// MessageResponse is one stored message.
type MessageResponse struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversation_id"`
	SenderType       string    `json:"sender_type"`
	Content          string    `json:"content"`
	ChannelMessageID string    `json:"channel_message_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ConversationListResponse is one page of conversations.
type ConversationListResponse struct {
	Items         []ConversationResponse `json:"items"`
	NextPageToken string                 `json:"nextPageToken,omitempty"`
}

// ConversationDetailResponse is a header with one page of messages.
type ConversationDetailResponse struct {
	Header        ConversationResponse `json:"header"`
	Messages      []MessageResponse    `json:"messages"`
	NextPageToken string               `json:"nextPageToken,omitempty"`
}

// WebhookSetupResponse reports the webhook registration.
type WebhookSetupResponse struct {
	Success bool                  `json:"success"`
	Webhook *telegram.WebhookInfo `json:"webhook"`
}

// StatsResponse is the dashboard snapshot.
type StatsResponse = dashboard.Stats

// NewConversationResponse maps a header.
func NewConversationResponse(c *conversation.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:         c.ID,
		ThreadID:   c.ThreadID,
		UserName:   c.UserName,
		Status:     c.Status.String(),
		StartedAt:  c.StartedAt,
		LastActive: c.LastActive,
		EndedAt:    c.EndedAt,
	}
	if c.CurrentAgentID != "" {
		agent := c.CurrentAgentID
		resp.CurrentAgentID = &agent
	}
	return resp
}

// NewMessageResponse maps a message.
func NewMessageResponse(m *conversation.Message) MessageResponse {
	return MessageResponse{
		ID:               m.ID,
		ConversationID:   m.ConversationID,
		SenderType:       string(m.SenderType),
		Content:          m.Content,
		ChannelMessageID: m.ChannelMessageID,
		CreatedAt:        m.CreatedAt,
	}
}

// NewConversationListResponse maps a page of headers.
func NewConversationListResponse(page conversation.Page[*conversation.Conversation]) ConversationListResponse {
	items := make([]ConversationResponse, 0, len(page.Items))
	for _, c := range page.Items {
		items = append(items, NewConversationResponse(c))
	}
	return ConversationListResponse{Items: items, NextPageToken: page.NextPageToken}
}

// NewConversationDetailResponse maps a detail view.
func NewConversationDetailResponse(d *dashboard.ConversationDetail) ConversationDetailResponse {
	messages := make([]MessageResponse, 0, len(d.Messages))
	for _, m := range d.Messages {
		messages = append(messages, NewMessageResponse(m))
	}
	return ConversationDetailResponse{
		Header:        NewConversationResponse(d.Header),
		Messages:      messages,
		NextPageToken: d.NextPageToken,
	}
}
