package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "doubtit/support-api/internal/domain/conversation"
)

// InMemoryRepository is a thread-safe repository for local runs and tests.
type InMemoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
	byThread      map[string]string
	messages      map[string][]*domain.Message
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		conversations: make(map[string]*domain.Conversation),
		byThread:      make(map[string]string),
		messages:      make(map[string][]*domain.Message),
	}
}

// CreateConversation inserts conv unless its thread is already owned.
func (r *InMemoryRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byThread[conv.ThreadID]; taken {
		return domain.ErrAlreadyExists
	}
	if _, taken := r.conversations[conv.ID]; taken {
		return domain.ErrAlreadyExists
	}
	r.conversations[conv.ID] = conv.Clone()
	r.byThread[conv.ThreadID] = conv.ID
	return nil
}

func (r *InMemoryRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return conv.Clone(), nil
}

func (r *InMemoryRepository) FindByThreadID(ctx context.Context, threadID string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byThread[threadID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.conversations[id].Clone(), nil
}

func (r *InMemoryRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[msg.ConversationID]; !ok {
		return domain.ErrNotFound
	}

	stored := *msg
	list := r.messages[msg.ConversationID]
	idx := sort.Search(len(list), func(i int) bool { return list[i].ID >= stored.ID })
	if idx < len(list) && list[idx].ID == stored.ID {
		return domain.ErrAlreadyExists
	}
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = &stored
	r.messages[msg.ConversationID] = list
	return nil
}

func (r *InMemoryRepository) TouchConversation(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	if at.After(conv.LastActive) {
		conv.LastActive = at
	}
	return nil
}

func (r *InMemoryRepository) ApplyMutation(ctx context.Context, id string, m domain.Mutation, guard domain.Guard) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !guard.Allows(conv) {
		return nil, domain.ErrPreconditionFailed
	}
	m.ApplyTo(conv)
	return conv.Clone(), nil
}

func (r *InMemoryRepository) ListByStatus(ctx context.Context, status domain.Status, limit int, pageToken string) (domain.Page[*domain.Conversation], error) {
	var (
		afterID string
		afterAt time.Time
		paged   bool
	)
	if pageToken != "" {
		cur, at, err := decodeConversationCursor(pageToken)
		if err != nil {
			return domain.Page[*domain.Conversation]{}, err
		}
		afterID, afterAt, paged = cur.ID, at, true
	}

	r.mu.RLock()
	matches := make([]*domain.Conversation, 0)
	for _, conv := range r.conversations {
		if conv.Status == status {
			matches = append(matches, conv.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return newerThan(matches[i], matches[j].LastActive, matches[j].ID)
	})

	if paged {
		start := sort.Search(len(matches), func(i int) bool {
			return olderThan(matches[i], afterAt, afterID)
		})
		matches = matches[start:]
	}

	page := domain.Page[*domain.Conversation]{Items: matches}
	if len(matches) > limit {
		page.Items = matches[:limit]
		token, err := encodePageToken(conversationCursor(page.Items[limit-1]))
		if err != nil {
			return domain.Page[*domain.Conversation]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func (r *InMemoryRepository) ListMessages(ctx context.Context, conversationID string, limit int, pageToken string) (domain.Page[*domain.Message], error) {
	before := ""
	if pageToken != "" {
		id, err := decodeMessageCursor(pageToken)
		if err != nil {
			return domain.Page[*domain.Message]{}, err
		}
		before = id
	}

	r.mu.RLock()
	list := r.messages[conversationID]
	items := make([]*domain.Message, 0, limit)
	more := false
	for i := len(list) - 1; i >= 0; i-- {
		if before != "" && list[i].ID >= before {
			continue
		}
		if len(items) == limit {
			more = true
			break
		}
		msg := *list[i]
		items = append(items, &msg)
	}
	r.mu.RUnlock()

	page := domain.Page[*domain.Message]{Items: items}
	if more {
		token, err := encodePageToken(keysetCursor{ID: items[len(items)-1].ID})
		if err != nil {
			return domain.Page[*domain.Message]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func (r *InMemoryRepository) CountByStatus(ctx context.Context, status domain.Status, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, conv := range r.conversations {
		if conv.Status == status && !conv.LastActive.Before(since) {
			count++
		}
	}
	return count, nil
}

// newerThan orders by last_active desc, then id desc.
func newerThan(c *domain.Conversation, at time.Time, id string) bool {
	if !c.LastActive.Equal(at) {
		return c.LastActive.After(at)
	}
	return c.ID > id
}

func olderThan(c *domain.Conversation, at time.Time, id string) bool {
	if !c.LastActive.Equal(at) {
		return c.LastActive.Before(at)
	}
	return c.ID < id
}
