package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"doubtit/support-api/internal/domain/conversation"
)

const (
	// DefaultMessageLimit is the detail view page size.
	DefaultMessageLimit = 50
	// TopAgentLimit caps the leaderboard.
	TopAgentLimit = 5
	// RecentWaitingLimit caps the waiting preview list.
	RecentWaitingLimit = 10
	// openSampleSize bounds how many HUMAN conversations feed the leaderboard.
	openSampleSize = 200
)

// ConversationDetail is a header with one page of its messages.
type ConversationDetail struct {
	Header        *conversation.Conversation
	Messages      []*conversation.Message
	NextPageToken string
}

// AgentLoad is the number of open conversations owned by an agent.
type AgentLoad struct {
	Agent string `json:"agent"`
	Count int    `json:"count"`
}

// WaitingSummary is a compact entry of the waiting queue.
type WaitingSummary struct {
	ID         string    `json:"id"`
	UserName   string    `json:"user_name"`
	LastActive time.Time `json:"last_active"`
}

// Stats is a point-in-time snapshot of the support queue.
type Stats struct {
	WaitingNow    int              `json:"waitingNow"`
	OpenNow       int              `json:"openNow"`
	AINow         int              `json:"aiNow"`
	Closed24h     int              `json:"closed24h"`
	TopAgents     []AgentLoad      `json:"topAgents"`
	RecentWaiting []WaitingSummary `json:"recentWaiting"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// Service serves the read-only agent dashboard.
type Service struct {
	store *conversation.Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewService constructs the dashboard service.
func NewService(store *conversation.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   log.With().Str("component", "dashboard-service").Logger(),
	}
}

// ListConversations pages conversations in status, WAITING when empty.
func (s *Service) ListConversations(ctx context.Context, status conversation.Status, limit int, pageToken string) (conversation.Page[*conversation.Conversation], error) {
	if status == "" {
		status = conversation.StatusWaiting
	}
	return s.store.ListByStatus(ctx, status, conversation.ClampLimit(limit, conversation.DefaultPageSize), pageToken)
}

// GetConversationDetail loads the header and a page of messages together.
func (s *Service) GetConversationDetail(ctx context.Context, id string, limit int, pageToken string) (*ConversationDetail, error) {
	var (
		header *conversation.Conversation
		page   conversation.Page[*conversation.Message]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		header, err = s.store.GetHeader(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = s.store.ListMessages(gctx, id, conversation.ClampLimit(limit, DefaultMessageLimit), pageToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ConversationDetail{
		Header:        header,
		Messages:      page.Items,
		NextPageToken: page.NextPageToken,
	}, nil
}

// Stats aggregates queue counts, agent load and the newest waiting users.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	stats := &Stats{GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, status conversation.Status, since time.Time) {
		g.Go(func() error {
			n, err := s.store.CountByStatus(gctx, status, since)
			*dst = n
			return err
		})
	}
	count(&stats.WaitingNow, conversation.StatusWaiting, time.Time{})
	count(&stats.OpenNow, conversation.StatusHuman, time.Time{})
	count(&stats.AINow, conversation.StatusAI, time.Time{})
	count(&stats.Closed24h, conversation.StatusClosed, now.Add(-24*time.Hour))

	g.Go(func() error {
		top, err := s.topAgents(gctx)
		stats.TopAgents = top
		return err
	})
	g.Go(func() error {
		page, err := s.store.ListByStatus(gctx, conversation.StatusWaiting, RecentWaitingLimit, "")
		if err != nil {
			return err
		}
		stats.RecentWaiting = make([]WaitingSummary, 0, len(page.Items))
		for _, c := range page.Items {
			stats.RecentWaiting = append(stats.RecentWaiting, WaitingSummary{ID: c.ID, UserName: c.UserName, LastActive: c.LastActive})
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("failed to compute dashboard stats")
		return nil, err
	}
	return stats, nil
}

func (s *Service) topAgents(ctx context.Context) ([]AgentLoad, error) {
	byAgent := map[string]int{}
	token := ""
	for seen := 0; seen < openSampleSize; {
		page, err := s.store.ListByStatus(ctx, conversation.StatusHuman, min(conversation.MaxPageSize, openSampleSize-seen), token)
		if err != nil {
			return nil, err
		}
		for _, c := range page.Items {
			if c.CurrentAgentID != "" {
				byAgent[c.CurrentAgentID]++
			}
		}
		seen += len(page.Items)
		if page.NextPageToken == "" || len(page.Items) == 0 {
			break
		}
		token = page.NextPageToken
	}

	top := make([]AgentLoad, 0, len(byAgent))
	for agent, n := range byAgent {
		top = append(top, AgentLoad{Agent: agent, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Agent < top[j].Agent
	})
	if len(top) > TopAgentLimit {
		top = top[:TopAgentLimit]
	}
	return top, nil
}
