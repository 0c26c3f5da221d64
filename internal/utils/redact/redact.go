package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Level controls how much end-user content reaches the logs.
type Level string

const (
	// LevelNone drops content entirely.
	LevelNone Level = "none"
	// LevelHashed keeps content but replaces detected PII with salted hashes.
	LevelHashed Level = "hashed"
	// LevelFull logs content unchanged.
	LevelFull Level = "full"
)

const previewLimit = 120

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern  = regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	cardPattern   = regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)
	secretPattern = regexp.MustCompile(`\b(?:sk|pk|ghp|xox[abp])[-_][A-Za-z0-9_-]{10,}\b|\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`)
)

// Redactor sanitizes user text and identifiers before logging.
type Redactor struct {
	level Level
	salt  string
}

// New creates a Redactor. Unknown levels behave like LevelHashed.
func New(level Level, salt string) *Redactor {
	switch level {
	case LevelNone, LevelHashed, LevelFull:
	default:
		level = LevelHashed
	}
	return &Redactor{level: level, salt: salt}
}

// Text returns a log-safe, length-bounded preview of user content.
func (r *Redactor) Text(input string) string {
	switch r.level {
	case LevelNone:
		return "[REDACTED]"
	case LevelFull:
		return truncate(input)
	}

	out := cardPattern.ReplaceAllString(input, "[CARD]")
	out = secretPattern.ReplaceAllString(out, "[SECRET]")
	out = emailPattern.ReplaceAllStringFunc(out, func(m string) string { return "[EMAIL:" + r.hash(m) + "]" })
	out = phonePattern.ReplaceAllStringFunc(out, func(m string) string { return "[PHONE:" + r.hash(m) + "]" })
	return truncate(out)
}

// ID hashes an end-user identifier unless full logging is enabled.
func (r *Redactor) ID(id string) string {
	if id == "" || r.level == LevelFull {
		return id
	}
	if r.level == LevelNone {
		return "[REDACTED]"
	}
	return r.hash(id)
}

func (r *Redactor) hash(data string) string {
	sum := sha256.Sum256([]byte(data + r.salt))
	return hex.EncodeToString(sum[:])[:8]
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		if n == previewLimit {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString("…")
	return b.String()
}
