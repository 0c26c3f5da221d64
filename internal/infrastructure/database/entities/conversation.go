package entities

import "time"

// Conversation is the persisted conversation header.
type Conversation struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	ThreadID       string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_conversation_thread"`
	UserName       string    `gorm:"type:varchar(255);not null;default:''"`
	Status         string    `gorm:"type:varchar(16);not null;index:idx_conversation_status_active,priority:1"`
	CurrentAgentID *string   `gorm:"type:varchar(255)"`
	StartedAt      time.Time `gorm:"not null"`
	LastActive     time.Time `gorm:"not null;index:idx_conversation_status_active,priority:2,sort:desc"`
	EndedAt        *time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message is one persisted chat log entry, keyed by conversation and ULID.
type Message struct {
	ConversationID   string       `gorm:"type:uuid;primaryKey"`
	ID               string       `gorm:"type:char(26);primaryKey"`
	SenderType       string       `gorm:"type:varchar(16);not null"`
	Content          string       `gorm:"type:text;not null"`
	ChannelMessageID *string      `gorm:"type:varchar(64)"`
	CreatedAt        time.Time    `gorm:"not null"`
	Conversation     Conversation `gorm:"foreignKey:ConversationID;references:ID;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}
