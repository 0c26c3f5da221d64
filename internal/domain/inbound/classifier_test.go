package inbound

import "testing"

func TestIsHumanRequest(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"agent", true},
		{"Agent please", true},
		{"AGENT", true},
		{"/agent", true},
		{"help", true},
		{"/help", true},
		{"/help@DoubtItBot", true},
		{"  help me out", true},
		{"help!", true},
		{"agents are great", false},
		{"helpful tip", false},
		{"I need an agent", false},
		{"//agent", false},
		{"", false},
		{"/start", false},
	}

	for _, tt := range tests {
		if got := IsHumanRequest(tt.text); got != tt.want {
			t.Errorf("IsHumanRequest(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsStartCommand(t *testing.T) {
	if !IsStartCommand("/start") || !IsStartCommand("/START payload") {
		t.Errorf("expected /start to match")
	}
	if IsStartCommand("start") || IsStartCommand("/started") {
		t.Errorf("unexpected match")
	}
}
