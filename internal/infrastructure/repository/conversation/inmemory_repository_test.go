package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "doubtit/support-api/internal/domain/conversation"
)

func seedConversation(t *testing.T, repo *InMemoryRepository, id, thread string, status domain.Status, lastActive time.Time) *domain.Conversation {
	t.Helper()
	conv := &domain.Conversation{
		ID:         id,
		ThreadID:   thread,
		UserName:   "user-" + thread,
		Status:     status,
		StartedAt:  lastActive,
		LastActive: lastActive,
	}
	if status == domain.StatusHuman {
		conv.CurrentAgentID = "agent-1"
	}
	require.NoError(t, repo.CreateConversation(context.Background(), conv))
	return conv
}

func TestInMemoryCreateRejectsDuplicateThread(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedConversation(t, repo, "c1", "T1", domain.StatusAI, base)

	err := repo.CreateConversation(context.Background(), &domain.Conversation{ID: "c2", ThreadID: "T1", Status: domain.StatusAI})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestInMemoryConcurrentCreateSingleWinner(t *testing.T) {
	repo := NewInMemoryRepository()

	var wg sync.WaitGroup
	results := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- repo.CreateConversation(context.Background(), &domain.Conversation{
				ID: fmt.Sprintf("c%d", i), ThreadID: "T-race", Status: domain.StatusAI,
			})
		}(i)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestInMemoryInsertMessageRequiresParent(t *testing.T) {
	repo := NewInMemoryRepository()
	err := repo.InsertMessage(context.Background(), &domain.Message{ID: "01A", ConversationID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInMemoryListMessagesOrdersBySortKey(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedConversation(t, repo, "c1", "T1", domain.StatusAI, base)

	// inserted out of order on purpose
	for _, id := range []string{"01C", "01A", "01E", "01B", "01D"} {
		require.NoError(t, repo.InsertMessage(context.Background(), &domain.Message{ID: id, ConversationID: "c1", SenderType: domain.SenderUser}))
	}

	first, err := repo.ListMessages(context.Background(), "c1", 2, "")
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "01E", first.Items[0].ID)
	assert.Equal(t, "01D", first.Items[1].ID)
	require.NotEmpty(t, first.NextPageToken)

	second, err := repo.ListMessages(context.Background(), "c1", 2, first.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"01C", "01B"}, messageIDs(second.Items))

	third, err := repo.ListMessages(context.Background(), "c1", 2, second.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"01A"}, messageIDs(third.Items))
	assert.Empty(t, third.NextPageToken)
}

func TestInMemoryListByStatusPaginates(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedConversation(t, repo, "a", "T1", domain.StatusWaiting, base.Add(1*time.Minute))
	seedConversation(t, repo, "b", "T2", domain.StatusWaiting, base.Add(3*time.Minute))
	seedConversation(t, repo, "c", "T3", domain.StatusWaiting, base.Add(3*time.Minute))
	seedConversation(t, repo, "d", "T4", domain.StatusWaiting, base.Add(2*time.Minute))
	seedConversation(t, repo, "e", "T5", domain.StatusAI, base.Add(9*time.Minute))

	var seen []string
	token := ""
	for {
		page, err := repo.ListByStatus(context.Background(), domain.StatusWaiting, 2, token)
		require.NoError(t, err)
		for _, c := range page.Items {
			seen = append(seen, c.ID)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, seen)
}

func TestInMemoryListByStatusRejectsBadToken(t *testing.T) {
	repo := NewInMemoryRepository()
	_, err := repo.ListByStatus(context.Background(), domain.StatusAI, 10, "%%%")
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestInMemoryTouchNeverMovesBackwards(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedConversation(t, repo, "c1", "T1", domain.StatusAI, base)

	require.NoError(t, repo.TouchConversation(context.Background(), "c1", base.Add(-time.Hour)))
	conv, err := repo.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, conv.LastActive.Equal(base))

	require.NoError(t, repo.TouchConversation(context.Background(), "c1", base.Add(time.Minute)))
	conv, err = repo.GetConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, conv.LastActive.Equal(base.Add(time.Minute)))
}

func TestInMemoryApplyMutationGuard(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedConversation(t, repo, "c1", "T1", domain.StatusHuman, base)

	m, err := domain.PlanTransition(domain.StatusClosed, "", base.Add(time.Minute))
	require.NoError(t, err)

	_, err = repo.ApplyMutation(context.Background(), "c1", m, domain.Guard{
		From:  []domain.Status{domain.StatusAI, domain.StatusWaiting, domain.StatusHuman},
		Owner: "agent-7",
	})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)

	updated, err := repo.ApplyMutation(context.Background(), "c1", m, domain.Guard{
		From:  []domain.Status{domain.StatusAI, domain.StatusWaiting, domain.StatusHuman},
		Owner: "agent-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, updated.Status)
	assert.Empty(t, updated.CurrentAgentID)
	require.NotNil(t, updated.EndedAt)

	_, err = repo.ApplyMutation(context.Background(), "missing", m, domain.Guard{From: []domain.Status{domain.StatusAI}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInMemoryCountByStatus(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	seedConversation(t, repo, "a", "T1", domain.StatusClosed, base.Add(-48*time.Hour))
	seedConversation(t, repo, "b", "T2", domain.StatusClosed, base.Add(-time.Hour))
	seedConversation(t, repo, "c", "T3", domain.StatusAI, base)

	all, err := repo.CountByStatus(context.Background(), domain.StatusClosed, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, all)

	recent, err := repo.CountByStatus(context.Background(), domain.StatusClosed, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, recent)
}

func messageIDs(msgs []*domain.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
