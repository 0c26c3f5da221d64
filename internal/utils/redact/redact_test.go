package redact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextHashesPII(t *testing.T) {
	r := New(LevelHashed, "salt")

	out := r.Text("mail me at jane.doe@example.com or call 555-123-4567")
	assert.NotContains(t, out, "jane.doe@example.com")
	assert.NotContains(t, out, "555-123-4567")
	assert.Contains(t, out, "[EMAIL:")
	assert.Contains(t, out, "[PHONE:")

	assert.Equal(t, r.Text("jane.doe@example.com"), r.Text("jane.doe@example.com"))
}

func TestTextMasksCardsAndSecrets(t *testing.T) {
	r := New(LevelHashed, "salt")
	out := r.Text("card 4111 1111 1111 1111 key sk-abcdefghijklmnop")
	assert.Contains(t, out, "[CARD]")
	assert.Contains(t, out, "[SECRET]")
	assert.NotContains(t, out, "4111")
}

func TestLevels(t *testing.T) {
	assert.Equal(t, "[REDACTED]", New(LevelNone, "").Text("hello"))
	assert.Equal(t, "hello a@b.io", New(LevelFull, "").Text("hello a@b.io"))
	assert.Equal(t, "42", New(LevelFull, "").ID("42"))
	assert.Len(t, New(Level("bogus"), "s").ID("42"), 8)
}

func TestTextTruncates(t *testing.T) {
	out := New(LevelFull, "").Text(strings.Repeat("é", 500))
	assert.Equal(t, previewLimit+1, len([]rune(out)))
	assert.True(t, strings.HasSuffix(out, "…"))
}
