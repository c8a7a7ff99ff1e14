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

func TestEventListActiveUsesLivenessWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	asOf := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	columns := []string{"id", "title", "description", "event_date", "start_time", "end_time", "location", "organizer", "is_published", "expires_at", "created_by", "created_at", "updated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("e-1", "Tech fest", "desc", asOf.AddDate(0, 0, 2), nil, nil, nil, nil, true, nil, "admin", asOf, asOf)

	mock.ExpectQuery(regexp.QuoteMeta("e.is_published = TRUE AND (e.event_date >= $1 OR COALESCE(e.expires_at, e.event_date + INTERVAL '7 days') > $2)")).
		WithArgs(day, asOf).
		WillReturnRows(rows)

	events, err := repo.ListActive(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e-1", events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteReportsAffected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestEventDeleteExpiredInvertsLiveness(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events e WHERE NOT (e.is_published = TRUE AND (e.event_date >= $1 OR COALESCE(e.expires_at, e.event_date + INTERVAL '7 days') > $2))")).
		WithArgs(now, now).
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
