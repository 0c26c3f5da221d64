package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "doubtit/support-api/internal/domain/conversation"
	"doubtit/support-api/internal/infrastructure/database/entities"
)

// PostgresRepository persists conversations via PostgreSQL using GORM.
type PostgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository creates a repository backed by the provided DB.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateConversation relies on the unique thread index to reject a second
// conversation for the same thread.
func (r *PostgresRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	record := conversationRecord(conv)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var record entities.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	return conversationFromRecord(record), nil
}

func (r *PostgresRepository) FindByThreadID(ctx context.Context, threadID string) (*domain.Conversation, error) {
	var record entities.Conversation
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Order("started_at ASC").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select conversation by thread: %w", err)
	}
	return conversationFromRecord(record), nil
}

func (r *PostgresRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	record := entities.Message{
		ConversationID:   msg.ConversationID,
		ID:               msg.ID,
		SenderType:       string(msg.SenderType),
		Content:          msg.Content,
		ChannelMessageID: optionalString(msg.ChannelMessageID),
		CreatedAt:        msg.CreatedAt,
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAlreadyExists
	default:
		return fmt.Errorf("insert message: %w", err)
	}
}

func (r *PostgresRepository) TouchConversation(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&entities.Conversation{}).
		Where("id = ? AND last_active < ?", id, at).
		Update("last_active", at).Error
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// ApplyMutation is a single UPDATE guarded by the expected status and owner.
// last_active is never moved backwards.
func (r *PostgresRepository) ApplyMutation(ctx context.Context, id string, m domain.Mutation, guard domain.Guard) (*domain.Conversation, error) {
	if len(guard.From) == 0 {
		return nil, domain.ErrPreconditionFailed
	}

	updates := make(map[string]any, len(m.Set)+len(m.Remove))
	for field, value := range m.Set {
		switch v := value.(type) {
		case domain.Status:
			value = string(v)
		case time.Time:
			if field == domain.FieldLastActive {
				value = gorm.Expr("GREATEST(last_active, ?)", v)
			}
		}
		updates[string(field)] = value
	}
	for _, field := range m.Remove {
		updates[string(field)] = nil
	}

	from := make([]string, 0, len(guard.From))
	for _, s := range guard.From {
		from = append(from, string(s))
	}

	var record entities.Conversation
	tx := r.db.WithContext(ctx).Model(&record).Clauses(clause.Returning{}).
		Where("id = ? AND status IN ?", id, from)
	if guard.Owner != "" {
		tx = tx.Where("(status <> ? OR current_agent_id = ?)", string(domain.StatusHuman), guard.Owner)
	}
	res := tx.Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update conversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetConversation(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrPreconditionFailed
	}
	return conversationFromRecord(record), nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status domain.Status, limit int, pageToken string) (domain.Page[*domain.Conversation], error) {
	q := r.db.WithContext(ctx).Where("status = ?", string(status))
	if pageToken != "" {
		cur, at, err := decodeConversationCursor(pageToken)
		if err != nil {
			return domain.Page[*domain.Conversation]{}, err
		}
		q = q.Where("(last_active, id) < (?, ?)", at, cur.ID)
	}

	var records []entities.Conversation
	if err := q.Order("last_active DESC, id DESC").Limit(limit + 1).Find(&records).Error; err != nil {
		return domain.Page[*domain.Conversation]{}, fmt.Errorf("list conversations: %w", err)
	}

	page := domain.Page[*domain.Conversation]{Items: make([]*domain.Conversation, 0, len(records))}
	for i, record := range records {
		if i == limit {
			break
		}
		page.Items = append(page.Items, conversationFromRecord(record))
	}
	if len(records) > limit {
		token, err := encodePageToken(conversationCursor(page.Items[limit-1]))
		if err != nil {
			return domain.Page[*domain.Conversation]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func (r *PostgresRepository) ListMessages(ctx context.Context, conversationID string, limit int, pageToken string) (domain.Page[*domain.Message], error) {
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if pageToken != "" {
		before, err := decodeMessageCursor(pageToken)
		if err != nil {
			return domain.Page[*domain.Message]{}, err
		}
		q = q.Where("id < ?", before)
	}

	var records []entities.Message
	if err := q.Order("id DESC").Limit(limit + 1).Find(&records).Error; err != nil {
		return domain.Page[*domain.Message]{}, fmt.Errorf("list messages: %w", err)
	}

	page := domain.Page[*domain.Message]{Items: make([]*domain.Message, 0, len(records))}
	for i, record := range records {
		if i == limit {
			break
		}
		page.Items = append(page.Items, &domain.Message{
			ID:               record.ID,
			ConversationID:   record.ConversationID,
			SenderType:       domain.SenderType(record.SenderType),
			Content:          record.Content,
			ChannelMessageID: derefString(record.ChannelMessageID),
			CreatedAt:        record.CreatedAt.UTC(),
		})
	}
	if len(records) > limit {
		token, err := encodePageToken(keysetCursor{ID: page.Items[limit-1].ID})
		if err != nil {
			return domain.Page[*domain.Message]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, status domain.Status, since time.Time) (int, error) {
	q := r.db.WithContext(ctx).Model(&entities.Conversation{}).Where("status = ?", string(status))
	if !since.IsZero() {
		q = q.Where("last_active >= ?", since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	return int(count), nil
}

func conversationRecord(c *domain.Conversation) entities.Conversation {
	return entities.Conversation{
		ID:             c.ID,
		ThreadID:       c.ThreadID,
		UserName:       c.UserName,
		Status:         string(c.Status),
		CurrentAgentID: optionalString(c.CurrentAgentID),
		StartedAt:      c.StartedAt,
		LastActive:     c.LastActive,
		EndedAt:        c.EndedAt,
	}
}

func conversationFromRecord(r entities.Conversation) *domain.Conversation {
	conv := &domain.Conversation{
		ID:             r.ID,
		ThreadID:       r.ThreadID,
		UserName:       r.UserName,
		Status:         domain.Status(r.Status),
		CurrentAgentID: derefString(r.CurrentAgentID),
		StartedAt:      r.StartedAt.UTC(),
		LastActive:     r.LastActive.UTC(),
	}
	if r.EndedAt != nil {
		ended := r.EndedAt.UTC()
		conv.EndedAt = &ended
	}
	return conv
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
