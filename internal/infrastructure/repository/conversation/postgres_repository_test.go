package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "doubtit/support-api/internal/domain/conversation"
)

var conversationColumns = []string{
	"id", "thread_id", "user_name", "status", "current_agent_id", "started_at", "last_active", "ended_at",
}

func newPostgresRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewPostgresRepository(db), mock
}

func TestPostgresApplyMutationKeepsLastActiveForward(t *testing.T) {
	repo, mock := newPostgresRepository(t)
	planned := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)
	stored := planned.Add(9 * time.Second)

	mock.ExpectQuery(`UPDATE "conversations" SET .*"last_active"=GREATEST\(last_active, \$\d+\).* WHERE \(id = \$\d+ AND status IN \(\$\d+,\$\d+\)\) AND \(\(status <> \$\d+ OR current_agent_id = \$\d+\)\) RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(conversationColumns).
			AddRow("c1", "42", "Ann", "HUMAN", "agent-42", planned, stored, nil))

	m, err := domain.PlanTransition(domain.StatusHuman, "agent-42", planned)
	require.NoError(t, err)
	updated, err := repo.ApplyMutation(context.Background(), "c1", m, domain.Guard{
		From:  []domain.Status{domain.StatusAI, domain.StatusWaiting},
		Owner: "agent-42",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHuman, updated.Status)
	assert.Equal(t, "agent-42", updated.CurrentAgentID)
	assert.Equal(t, stored, updated.LastActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresApplyMutationNoRowsAffected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := domain.PlanTransition(domain.StatusClosed, "", now)
	require.NoError(t, err)
	guard := domain.Guard{From: []domain.Status{domain.StatusAI}}

	repo, mock := newPostgresRepository(t)
	mock.ExpectQuery(`UPDATE "conversations" SET .* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(conversationColumns))
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(conversationColumns).
			AddRow("c1", "42", "Ann", "CLOSED", nil, now, now, now))

	_, err = repo.ApplyMutation(context.Background(), "c1", m, guard)
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())

	repo, mock = newPostgresRepository(t)
	mock.ExpectQuery(`UPDATE "conversations" SET .* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(conversationColumns))
	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(conversationColumns))

	_, err = repo.ApplyMutation(context.Background(), "missing", m, guard)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.ApplyMutation(context.Background(), "c1", m, domain.Guard{})
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

func TestPostgresListByStatusKeyset(t *testing.T) {
	repo, mock := newPostgresRepository(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := encodePageToken(conversationCursor(&domain.Conversation{ID: "c9", LastActive: base.Add(time.Hour)}))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "conversations" WHERE status = \$1 AND \(last_active, id\) < \(\$2, \$3\) ORDER BY last_active DESC, id DESC LIMIT \$4`).
		WillReturnRows(sqlmock.NewRows(conversationColumns).
			AddRow("c3", "3", "C", "WAITING", nil, base, base.Add(3*time.Minute), nil).
			AddRow("c2", "2", "B", "WAITING", nil, base, base.Add(2*time.Minute), nil).
			AddRow("c1", "1", "A", "WAITING", nil, base, base.Add(time.Minute), nil))

	page, err := repo.ListByStatus(context.Background(), domain.StatusWaiting, 2, token)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c3", page.Items[0].ID)
	assert.Equal(t, "c2", page.Items[1].ID)
	require.NotEmpty(t, page.NextPageToken)

	cur, at, err := decodeConversationCursor(page.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "c2", cur.ID)
	assert.True(t, at.Equal(base.Add(2*time.Minute)))
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.ListByStatus(context.Background(), domain.StatusWaiting, 2, "%%%")
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestPostgresTouchIsForwardOnly(t *testing.T) {
	repo, mock := newPostgresRepository(t)

	mock.ExpectExec(`UPDATE "conversations" SET "last_active"=\$1 WHERE id = \$2 AND last_active < \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.TouchConversation(context.Background(), "c1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
