package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

type stubSweeper struct {
	deleted int64
	err     error
	calls   int
}

func (s *stubSweeper) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	// Everything expired is gone after the first pass.
	if s.calls > 1 {
		return 0, nil
	}
	return s.deleted, nil
}

func TestCleanupSweepReportsPerKind(t *testing.T) {
	notifications := &stubSweeper{deleted: 3}
	events := &stubSweeper{deleted: 2}
	opportunities := &stubSweeper{deleted: 1}
	svc := NewCleanupService(notifications, events, opportunities, nil, nil, zap.NewNop(), time.Hour, false)

	result, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result[sweepKindNotification])
	assert.Equal(t, int64(2), result[models.ContentKindEvent])
	assert.Equal(t, int64(1), result[models.ContentKindOpportunity])
}

func TestCleanupSweepIsolatesKindFailure(t *testing.T) {
	notifications := &stubSweeper{err: errors.New("deadlock")}
	events := &stubSweeper{deleted: 2}
	opportunities := &stubSweeper{deleted: 1}
	svc := NewCleanupService(notifications, events, opportunities, nil, nil, zap.NewNop(), time.Hour, false)

	result, err := svc.Sweep(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(0), result[sweepKindNotification])
	assert.Equal(t, int64(2), result[models.ContentKindEvent])
	assert.Equal(t, int64(1), result[models.ContentKindOpportunity])
	assert.Equal(t, 1, events.calls)
	assert.Equal(t, 1, opportunities.calls)
}

func TestCleanupSecondSweepDeletesNothing(t *testing.T) {
	notifications := &stubSweeper{deleted: 4}
	events := &stubSweeper{deleted: 4}
	opportunities := &stubSweeper{deleted: 4}
	svc := NewCleanupService(notifications, events, opportunities, nil, nil, zap.NewNop(), time.Hour, false)

	first, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), first[models.ContentKindEvent])

	second, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	for kind, deleted := range second {
		assert.Zerof(t, deleted, "kind %s must delete nothing on the second pass", kind)
	}
}

func TestForceSweepRecordsAudit(t *testing.T) {
	audit := &mockAudit{}
	svc := NewCleanupService(&stubSweeper{}, &stubSweeper{}, &stubSweeper{}, audit, nil, zap.NewNop(), time.Hour, false)

	_, err := svc.ForceSweep(context.Background(), "admin-1", "10.0.0.1", "curl")
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionForcedCleanup, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "admin-1", *audit.logs[0].UserID)
}
