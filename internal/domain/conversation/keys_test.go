package conversation_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doubtit/support-api/internal/domain/conversation"
)

func TestKeyGeneratorMonotonicWithinMillisecond(t *testing.T) {
	gen := conversation.NewKeyGenerator()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	prev := gen.Next(at)
	for i := 0; i < 1000; i++ {
		next := gen.Next(at)
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestKeyGeneratorIgnoresBackwardsClock(t *testing.T) {
	gen := conversation.NewKeyGenerator()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	later := gen.Next(at)
	earlier := gen.Next(at.Add(-time.Minute))
	assert.Greater(t, earlier, later)
}

func TestKeyGeneratorConcurrentUnique(t *testing.T) {
	gen := conversation.NewKeyGenerator()
	at := time.Now()

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := gen.Next(at)
				mu.Lock()
				seen[key] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}
