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
	"github.com/noah-isme/campus-hub-api/internal/notify"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type mockNotificationRepo struct {
	created       *models.Notification
	createErr     error
	deliveryCalls [][]string
	deliveryErrOn int
	inserted      int64
	sentCountSet  int64
	deleteRows    int64
	markReadRows  int64
	deliveryFound bool
	unread        int
	feedItems     []models.InboxItem
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = "notif-1"
	n.CreatedAt = time.Now().UTC()
	m.created = n
	return nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	if m.created != nil && m.created.ID == id {
		return m.created, nil
	}
	return nil, errors.New("not found")
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	return nil, 0, nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteRows, nil
}

func (m *mockNotificationRepo) InsertDeliveries(ctx context.Context, notificationID string, userIDs []string) (int64, error) {
	call := len(m.deliveryCalls)
	m.deliveryCalls = append(m.deliveryCalls, userIDs)
	if m.deliveryErrOn > 0 && call == m.deliveryErrOn-1 {
		return 0, errors.New("chunk failed")
	}
	m.inserted += int64(len(userIDs))
	return int64(len(userIDs)), nil
}

func (m *mockNotificationRepo) AddSentCount(ctx context.Context, id string, delta int64) error {
	m.sentCountSet += delta
	return nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) (int64, error) {
	return m.markReadRows, nil
}

func (m *mockNotificationRepo) DeliveryExists(ctx context.Context, notificationID, userID string) (bool, error) {
	return m.deliveryFound, nil
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID string, now time.Time) (int, error) {
	return m.unread, nil
}

func (m *mockNotificationRepo) UnreadFeed(ctx context.Context, userID string, now time.Time, page, size int) ([]models.InboxItem, int, error) {
	return m.feedItems, len(m.feedItems), nil
}

type mockResolver struct {
	recipients  []string
	validateErr error
	resolveErr  error
}

func (m *mockResolver) Validate(spec models.AudienceSpec) error { return m.validateErr }

func (m *mockResolver) Resolve(ctx context.Context, spec models.AudienceSpec) ([]string, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.recipients, nil
}

type mockPush struct {
	messages []notify.Message
}

func (m *mockPush) Enqueue(msg notify.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

type mockAudit struct {
	logs []*models.AuditLog
}

func (m *mockAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func validPublishRequest() PublishNotificationRequest {
	return PublishNotificationRequest{
		Title:     "Exam timetable",
		Body:      "Semester exams start May 2nd.",
		Category:  "EXAM",
		Priority:  "HIGH",
		Audience:  models.AudienceSpec{All: true},
		CreatedBy: "admin-1",
	}
}

func TestNotificationPublishFanOut(t *testing.T) {
	repo := &mockNotificationRepo{}
	resolver := &mockResolver{recipients: []string{"u1", "u2", "u3"}}
	push := &mockPush{}
	audit := &mockAudit{}
	svc := NewNotificationService(repo, resolver, push, audit, nil, nil, zap.NewNop(), 2)

	result, err := svc.Publish(context.Background(), validPublishRequest())
	require.NoError(t, err)
	assert.Equal(t, "notif-1", result.NotificationID)
	assert.Equal(t, 3, result.DeliveredCount)

	// chunk size 2 over 3 recipients
	require.Len(t, repo.deliveryCalls, 2)
	assert.Len(t, repo.deliveryCalls[0], 2)
	assert.Len(t, repo.deliveryCalls[1], 1)
	assert.Equal(t, int64(3), repo.sentCountSet)

	require.Len(t, push.messages, 1)
	assert.Equal(t, 3, push.messages[0].Recipients)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionNotificationPublish, audit.logs[0].Action)
}

func TestNotificationPublishInvalidAudienceWritesNothing(t *testing.T) {
	repo := &mockNotificationRepo{}
	resolver := &mockResolver{validateErr: appErrors.Clone(appErrors.ErrInvalidAudience, "audience targeting is empty")}
	svc := NewNotificationService(repo, resolver, nil, nil, nil, nil, zap.NewNop(), 0)

	req := validPublishRequest()
	req.Audience = models.AudienceSpec{}
	_, err := svc.Publish(context.Background(), req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidAudience.Code, appErr.Code)
	assert.Nil(t, repo.created, "no notification row may exist after an invalid audience")
}

func TestNotificationPublishSkipsFailedChunk(t *testing.T) {
	repo := &mockNotificationRepo{deliveryErrOn: 1}
	resolver := &mockResolver{recipients: []string{"u1", "u2", "u3"}}
	svc := NewNotificationService(repo, resolver, nil, nil, nil, nil, zap.NewNop(), 2)

	result, err := svc.Publish(context.Background(), validPublishRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeliveredCount)
	require.Len(t, repo.deliveryCalls, 2)
}

func TestNotificationPublishRejectsPastExpiry(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, &mockResolver{}, nil, nil, nil, nil, zap.NewNop(), 0)
	req := validPublishRequest()
	past := time.Now().UTC().Add(-time.Hour)
	req.ExpiresAt = &past

	_, err := svc.Publish(context.Background(), req)
	require.Error(t, err)
}

func TestNotificationMarkRead(t *testing.T) {
	t.Run("first read succeeds", func(t *testing.T) {
		repo := &mockNotificationRepo{markReadRows: 1}
		svc := NewNotificationService(repo, &mockResolver{}, nil, nil, nil, nil, zap.NewNop(), 0)
		assert.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))
	})

	t.Run("second read is a no-op", func(t *testing.T) {
		repo := &mockNotificationRepo{markReadRows: 0, deliveryFound: true}
		svc := NewNotificationService(repo, &mockResolver{}, nil, nil, nil, nil, zap.NewNop(), 0)
		assert.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))
	})

	t.Run("missing delivery is not found", func(t *testing.T) {
		repo := &mockNotificationRepo{markReadRows: 0, deliveryFound: false}
		svc := NewNotificationService(repo, &mockResolver{}, nil, nil, nil, nil, zap.NewNop(), 0)
		err := svc.MarkRead(context.Background(), "n1", "u1")
		require.Error(t, err)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	})
}

func TestNotificationDelete(t *testing.T) {
	t.Run("existing row", func(t *testing.T) {
		repo := &mockNotificationRepo{deleteRows: 1}
		audit := &mockAudit{}
		svc := NewNotificationService(repo, &mockResolver{}, nil, audit, nil, nil, zap.NewNop(), 0)
		require.NoError(t, svc.Delete(context.Background(), "n1", "admin", "", ""))
		require.Len(t, audit.logs, 1)
		assert.Equal(t, models.AuditActionNotificationDelete, audit.logs[0].Action)
	})

	t.Run("missing row", func(t *testing.T) {
		repo := &mockNotificationRepo{deleteRows: 0}
		svc := NewNotificationService(repo, &mockResolver{}, nil, nil, nil, nil, zap.NewNop(), 0)
		err := svc.Delete(context.Background(), "n1", "admin", "", "")
		require.Error(t, err)
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	})
}

func TestNotificationUnreadFeedNeverNil(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockResolver{}, nil, nil, nil, nil, zap.NewNop(), 0)
	items, pagination, err := svc.UnreadFeed(context.Background(), "u1", 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
}
