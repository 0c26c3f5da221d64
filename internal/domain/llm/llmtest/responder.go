// Package llmtest provides a scripted Responder for tests.
package llmtest

import (
	"context"
	"sync"
)

// Responder returns Reply or Err and records prompts. When Hook is set it
// runs before returning, which lets tests interleave concurrent writers.
type Responder struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Hook    func(ctx context.Context)
	prompts []string
}

// GenerateReply implements llm.Responder.
func (r *Responder) GenerateReply(ctx context.Context, userText string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, userText)
	hook := r.Hook
	r.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	if r.Err != nil {
		return "", r.Err
	}
	return r.Reply, nil
}

// Calls returns how many replies were requested.
func (r *Responder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prompts)
}

// Prompts returns the user texts passed so far.
func (r *Responder) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}
