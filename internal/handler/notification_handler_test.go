package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-hub-api/internal/middleware"
	"github.com/noah-isme/campus-hub-api/internal/models"
	"github.com/noah-isme/campus-hub-api/internal/service"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type notificationServiceMock struct {
	publishResp *models.FanOutResult
	publishErr  error
	lastPublish service.PublishNotificationRequest
	markReadErr error
	unread      int
	deleteErr   error
}

func (m *notificationServiceMock) Publish(ctx context.Context, req service.PublishNotificationRequest) (*models.FanOutResult, error) {
	m.lastPublish = req
	return m.publishResp, m.publishErr
}

func (m *notificationServiceMock) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	return nil, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *notificationServiceMock) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	return m.deleteErr
}

func (m *notificationServiceMock) MarkRead(ctx context.Context, notificationID, userID string) error {
	return m.markReadErr
}

func (m *notificationServiceMock) UnreadCount(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

func (m *notificationServiceMock) UnreadFeed(ctx context.Context, userID string, page, size int) ([]models.InboxItem, *models.Pagination, error) {
	return []models.InboxItem{}, &models.Pagination{Page: page, PageSize: size}, nil
}

type exporterMock struct {
	rendering *service.ExportRendering
	err       error
}

func (m *exporterMock) RenderRegister(ctx context.Context, format string) (*service.ExportRendering, error) {
	return m.rendering, m.err
}

func testContextWithClaims(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "actor-1", Role: models.RoleAdmin})
	return c, w
}

func TestNotificationHandlerCreate(t *testing.T) {
	mockSvc := &notificationServiceMock{publishResp: &models.FanOutResult{NotificationID: "n-1", DeliveredCount: 12}}
	h := NewNotificationHandler(mockSvc, &exporterMock{})

	payload, _ := json.Marshal(map[string]interface{}{
		"title":    "Exam schedule",
		"body":     "Published",
		"category": "EXAM",
		"priority": "HIGH",
		"audience": map[string]interface{}{"all": true},
	})
	c, w := testContextWithClaims(t, http.MethodPost, "/notifications", payload)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "actor-1", mockSvc.lastPublish.CreatedBy)
	assert.Contains(t, w.Body.String(), "n-1")
}

func TestNotificationHandlerCreateInvalidAudience(t *testing.T) {
	mockSvc := &notificationServiceMock{publishErr: appErrors.Clone(appErrors.ErrInvalidAudience, "audience targeting is empty")}
	h := NewNotificationHandler(mockSvc, &exporterMock{})

	payload, _ := json.Marshal(map[string]interface{}{
		"title": "x", "body": "y", "category": "GENERAL", "priority": "NORMAL",
		"audience": map[string]interface{}{},
	})
	c, w := testContextWithClaims(t, http.MethodPost, "/notifications", payload)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrInvalidAudience.Code)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := NewNotificationHandler(&notificationServiceMock{}, &exporterMock{})
		c, w := testContextWithClaims(t, http.MethodPost, "/me/notifications/n-1/read", nil)
		c.Params = gin.Params{{Key: "id", Value: "n-1"}}
		h.MarkRead(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not delivered", func(t *testing.T) {
		mockSvc := &notificationServiceMock{markReadErr: appErrors.Clone(appErrors.ErrNotFound, "notification not found for recipient")}
		h := NewNotificationHandler(mockSvc, &exporterMock{})
		c, w := testContextWithClaims(t, http.MethodPost, "/me/notifications/n-1/read", nil)
		c.Params = gin.Params{{Key: "id", Value: "n-1"}}
		h.MarkRead(c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNotificationHandlerMyCount(t *testing.T) {
	h := NewNotificationHandler(&notificationServiceMock{unread: 7}, &exporterMock{})
	c, w := testContextWithClaims(t, http.MethodGet, "/me/notifications/count", nil)
	h.MyCount(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "7")
}

func TestNotificationHandlerExport(t *testing.T) {
	exporter := &exporterMock{rendering: &service.ExportRendering{
		Payload:     []byte("ID,Title\n"),
		ContentType: "text/csv",
		Filename:    "notification-register.csv",
	}}
	h := NewNotificationHandler(&notificationServiceMock{}, exporter)
	c, w := testContextWithClaims(t, http.MethodGet, "/notifications/export?format=csv", nil)
	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notification-register.csv")
}
