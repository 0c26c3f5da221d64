package conversation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	domain "doubtit/support-api/internal/domain/conversation"
)

// keysetCursor is the position after the last item of a page ordered by
// (last_active desc, id desc), or by id desc for messages.
type keysetCursor struct {
	At string `json:"t,omitempty"`
	ID string `json:"i"`
}

func (c keysetCursor) time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.At)
}

func encodePageToken(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodePageToken(token string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPageToken, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPageToken, err)
	}
	return nil
}

func conversationCursor(c *domain.Conversation) keysetCursor {
	return keysetCursor{At: c.LastActive.UTC().Format(time.RFC3339Nano), ID: c.ID}
}

func decodeConversationCursor(token string) (keysetCursor, time.Time, error) {
	var cur keysetCursor
	if err := decodePageToken(token, &cur); err != nil {
		return cur, time.Time{}, err
	}
	at, err := cur.time()
	if err != nil || cur.ID == "" {
		return cur, time.Time{}, fmt.Errorf("%w: malformed conversation cursor", domain.ErrInvalidPageToken)
	}
	return cur, at, nil
}

func decodeMessageCursor(token string) (string, error) {
	var cur keysetCursor
	if err := decodePageToken(token, &cur); err != nil {
		return "", err
	}
	if cur.ID == "" {
		return "", fmt.Errorf("%w: malformed message cursor", domain.ErrInvalidPageToken)
	}
	return cur.ID, nil
}
