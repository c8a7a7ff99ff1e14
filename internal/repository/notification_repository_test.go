package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDeliveriesIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	// Two of three recipients already hold a delivery row; the conflict
	// clause swallows them and only the new row counts.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (notification_id, user_id) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.InsertDeliveries(context.Background(), "n-1", []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDeliveriesEmptyAudience(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	inserted, err := repo.InsertDeliveries(context.Background(), "n-1", nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestMarkReadGuardsOnUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	readAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notification_deliveries SET is_read = TRUE, read_at = $3\nWHERE notification_id = $1 AND user_id = $2 AND is_read = FALSE")).
		WithArgs("n-1", "u-1", readAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.MarkRead(context.Background(), "n-1", "u-1", readAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// Second call matches zero rows because the guard filters read rows out.
	mock.ExpectExec(regexp.QuoteMeta("is_read = FALSE")).
		WithArgs("n-1", "u-1", readAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err = repo.MarkRead(context.Background(), "n-1", "u-1", readAt)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCountAppliesLiveness(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("d.is_read = FALSE AND n.is_published = TRUE AND (n.expires_at IS NULL OR n.expires_at > $2)")).
		WithArgs("u-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UnreadCount(context.Background(), "u-1", now)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadFeedOrdersByCreation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	columns := []string{
		"id", "title", "body", "category", "priority", "payload", "is_published", "expires_at", "sent_count", "created_by", "created_at", "updated_at",
		"delivery_id", "is_read", "read_at", "received_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow("n-2", "Newer", "b", "GENERAL", "NORMAL", []byte("{}"), true, nil, 10, "admin", now, now, "d-2", false, nil, now).
		AddRow("n-1", "Older", "b", "GENERAL", "NORMAL", []byte("{}"), true, nil, 10, "admin", now.Add(-time.Hour), now, "d-1", false, nil, now)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY n.created_at DESC")).
		WithArgs("u-1", now).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("u-1", now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	items, total, err := repo.UnreadFeed(context.Background(), "u-1", now, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "n-2", items[0].ID)
	assert.Equal(t, "d-2", items[0].DeliveryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationDeleteCascades(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notification_deliveries WHERE notification_id = $1")).
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE id = $1")).
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := repo.Delete(context.Background(), "n-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationDeleteExpiredSweepsDependentsFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notification_deliveries WHERE notification_id IN")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications n WHERE NOT (n.is_published = TRUE AND (n.expires_at IS NULL OR n.expires_at > $1))")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	deleted, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
