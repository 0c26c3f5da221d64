// Package channel describes the chat transport end users talk through.
package channel

import "context"

// InboundMessage is a user message received from the channel.
type InboundMessage struct {
	UpdateID         int64
	ThreadID         string
	SenderName       string
	Text             string
	ChannelMessageID string
}

// Messenger delivers text to a channel thread.
type Messenger interface {
	// SendText delivers text and returns the channel-native id of the sent message.
	SendText(ctx context.Context, threadID, text string) (string, error)
}
