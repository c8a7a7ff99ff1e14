package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

type feedServiceMock struct {
	items    []models.ActiveContentItem
	err      error
	lastKind string
}

func (m *feedServiceMock) ActiveFeed(ctx context.Context, kind string, asOf time.Time) ([]models.ActiveContentItem, error) {
	m.lastKind = kind
	return m.items, m.err
}

func TestFeedHandlerActive(t *testing.T) {
	mockSvc := &feedServiceMock{items: []models.ActiveContentItem{
		{ID: "e-1", Kind: models.ContentKindEvent, Title: "Tech fest"},
	}}
	h := NewFeedHandler(mockSvc)

	c, w := testContextWithClaims(t, http.MethodGet, "/feed?kind=event", nil)
	h.Active(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.ContentKindEvent), mockSvc.lastKind)
	assert.Contains(t, w.Body.String(), "Tech fest")
}

func TestFeedHandlerDefaultsToAll(t *testing.T) {
	mockSvc := &feedServiceMock{}
	h := NewFeedHandler(mockSvc)

	c, w := testContextWithClaims(t, http.MethodGet, "/feed", nil)
	h.Active(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "all", mockSvc.lastKind)
}

func TestFeedHandlerRejectsUnknownKind(t *testing.T) {
	h := NewFeedHandler(&feedServiceMock{})

	c, w := testContextWithClaims(t, http.MethodGet, "/feed?kind=news", nil)
	h.Active(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
