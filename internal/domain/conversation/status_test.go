package conversation_test

import (
	"testing"

	"doubtit/support-api/internal/domain/conversation"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from conversation.Status
		to   conversation.Status
		want bool
	}{
		{conversation.StatusAI, conversation.StatusWaiting, true},
		{conversation.StatusAI, conversation.StatusHuman, true},
		{conversation.StatusAI, conversation.StatusClosed, true},
		{conversation.StatusAI, conversation.StatusAI, false},
		{conversation.StatusWaiting, conversation.StatusHuman, true},
		{conversation.StatusWaiting, conversation.StatusClosed, true},
		{conversation.StatusWaiting, conversation.StatusAI, false},
		{conversation.StatusHuman, conversation.StatusAI, true},
		{conversation.StatusHuman, conversation.StatusWaiting, true},
		{conversation.StatusHuman, conversation.StatusClosed, true},
		{conversation.StatusHuman, conversation.StatusHuman, false},
		{conversation.StatusClosed, conversation.StatusAI, false},
		{conversation.StatusClosed, conversation.StatusClosed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSources(t *testing.T) {
	got := conversation.Sources(conversation.StatusHuman)
	if len(got) != 2 || got[0] != conversation.StatusAI || got[1] != conversation.StatusWaiting {
		t.Errorf("Sources(HUMAN) = %v", got)
	}
	if got := conversation.Sources(conversation.StatusClosed); len(got) != 3 {
		t.Errorf("Sources(CLOSED) = %v", got)
	}
	for _, s := range conversation.Sources(conversation.StatusClosed) {
		if s == conversation.StatusClosed {
			t.Errorf("CLOSED must not be a source of CLOSED")
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := conversation.ParseStatus(" waiting "); err != nil || s != conversation.StatusWaiting {
		t.Errorf("ParseStatus(waiting) = %v, %v", s, err)
	}
	if _, err := conversation.ParseStatus("PENDING"); err == nil {
		t.Errorf("expected error for unknown status")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range conversation.AllStatuses {
		if got := s.IsTerminal(); got != (s == conversation.StatusClosed) {
			t.Errorf("%s.IsTerminal() = %v", s, got)
		}
	}
}
