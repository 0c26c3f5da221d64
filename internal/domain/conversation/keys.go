package conversation

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// KeyGenerator issues strictly increasing message ids. Within one
// millisecond the monotonic entropy source breaks ties, and the timestamp
// never moves backwards even if the wall clock does.
type KeyGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	lastMS  uint64
}

// NewKeyGenerator creates a generator seeded from crypto/rand.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a new id not earlier than t.
func (g *KeyGenerator) Next(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(t)
	if ms < g.lastMS {
		ms = g.lastMS
	}

	id, err := ulid.New(ms, g.entropy)
	if errors.Is(err, ulid.ErrMonotonicOverflow) {
		ms++
		id = ulid.MustNew(ms, g.entropy)
	} else if err != nil {
		panic(err)
	}

	g.lastMS = ms
	return id.String()
}
