package telegram

import (
	"strconv"
	"strings"

	"doubtit/support-api/internal/domain/channel"
)

// Update is the subset of a Bot API update the service consumes.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// User is the sender of a message.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat identifies the conversation thread on Telegram.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// WebhookInfo mirrors getWebhookInfo.
type WebhookInfo struct {
	URL                  string   `json:"url"`
	HasCustomCertificate bool     `json:"has_custom_certificate"`
	PendingUpdateCount   int      `json:"pending_update_count"`
	LastErrorDate        int64    `json:"last_error_date,omitempty"`
	LastErrorMessage     string   `json:"last_error_message,omitempty"`
	MaxConnections       int      `json:"max_connections,omitempty"`
	AllowedUpdates       []string `json:"allowed_updates,omitempty"`
}

// ToInbound converts an update into a channel message. ok is false for
// updates that carry no chat message, such as edits or callbacks.
func (u Update) ToInbound() (channel.InboundMessage, bool) {
	if u.Message == nil {
		return channel.InboundMessage{}, false
	}
	return channel.InboundMessage{
		UpdateID:         u.UpdateID,
		ThreadID:         strconv.FormatInt(u.Message.Chat.ID, 10),
		SenderName:       u.Message.From.DisplayName(),
		Text:             u.Message.Text,
		ChannelMessageID: strconv.FormatInt(u.Message.MessageID, 10),
	}, true
}

// DisplayName prefers the username and falls back to the full name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(strings.Join([]string{u.FirstName, u.LastName}, " "))
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type setWebhookRequest struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}
