// Package llm describes the AI reply capability.
package llm

import "context"

// Responder generates an assistant reply for an end-user message.
type Responder interface {
	GenerateReply(ctx context.Context, userText string) (string, error)
}
