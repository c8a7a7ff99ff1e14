package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

type mockEventRepo struct {
	stored     map[string]*models.Event
	deleteRows int64
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{stored: make(map[string]*models.Event)}
}

func (m *mockEventRepo) Create(ctx context.Context, e *models.Event) error {
	e.ID = "event-1"
	m.stored[e.ID] = e
	return nil
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := m.stored[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	return nil, 0, nil
}

func (m *mockEventRepo) Update(ctx context.Context, e *models.Event) error {
	m.stored[e.ID] = e
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteRows, nil
}

func validEventRequest() EventRequest {
	return EventRequest{
		Title:       "Tech fest",
		Description: "Annual campus technology festival.",
		EventDate:   time.Now().UTC().AddDate(0, 1, 0),
		Published:   true,
		CreatedBy:   "admin-1",
	}
}

func TestEventCreate(t *testing.T) {
	repo := newMockEventRepo()
	audit := &mockAudit{}
	svc := NewEventService(repo, audit, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), validEventRequest())
	require.NoError(t, err)
	assert.Equal(t, "event-1", created.ID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEventWrite, audit.logs[0].Action)
}

func TestEventCreateRejectsInvertedTimes(t *testing.T) {
	svc := NewEventService(newMockEventRepo(), nil, nil, zap.NewNop())

	req := validEventRequest()
	start := req.EventDate.Add(4 * time.Hour)
	end := req.EventDate.Add(2 * time.Hour)
	req.StartTime = &start
	req.EndTime = &end

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestEventCreateRejectsExpiryBeforeDate(t *testing.T) {
	svc := NewEventService(newMockEventRepo(), nil, nil, zap.NewNop())

	req := validEventRequest()
	expires := req.EventDate.Add(-24 * time.Hour)
	req.ExpiresAt = &expires

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestEventUpdateMissing(t *testing.T) {
	svc := NewEventService(newMockEventRepo(), nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", validEventRequest())
	require.Error(t, err)
}
