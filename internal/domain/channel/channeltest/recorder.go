// Package channeltest provides an in-memory Messenger for tests.
package channeltest

import (
	"context"
	"strconv"
	"sync"
)

// Sent is one delivered message.
type Sent struct {
	ThreadID string
	Text     string
}

// Recorder records every delivery. Set Err to make deliveries fail.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	sent []Sent
}

// SendText implements channel.Messenger.
func (r *Recorder) SendText(ctx context.Context, threadID, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	r.sent = append(r.sent, Sent{ThreadID: threadID, Text: text})
	return strconv.Itoa(len(r.sent)), nil
}

// Sent returns a copy of the deliveries so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Texts returns the delivered texts in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, s.Text)
	}
	return out
}
