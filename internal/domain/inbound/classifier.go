package inbound

import (
	"regexp"
	"strings"
)

var (
	humanRequestPattern = regexp.MustCompile(`(?i)^/?(agent|help)\b`)
	startCommandPattern = regexp.MustCompile(`(?i)^/start\b`)
)

// IsHumanRequest reports whether text asks for a human agent, e.g. "agent",
// "/help" or "Agent please".
func IsHumanRequest(text string) bool {
	return humanRequestPattern.MatchString(strings.TrimSpace(text))
}

// IsStartCommand reports whether text is the channel's start command.
func IsStartCommand(text string) bool {
	return startCommandPattern.MatchString(strings.TrimSpace(text))
}
