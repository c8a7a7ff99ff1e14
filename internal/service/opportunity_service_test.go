package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type mockOpportunityRepo struct {
	stored     map[string]*models.Opportunity
	bookmarks  map[string]bool
	deleteRows int64
}

func newMockOpportunityRepo() *mockOpportunityRepo {
	return &mockOpportunityRepo{stored: make(map[string]*models.Opportunity), bookmarks: make(map[string]bool)}
}

func (m *mockOpportunityRepo) Create(ctx context.Context, o *models.Opportunity) error {
	o.ID = "opp-1"
	m.stored[o.ID] = o
	return nil
}

func (m *mockOpportunityRepo) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	if o, ok := m.stored[id]; ok {
		return o, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOpportunityRepo) List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, int, error) {
	return nil, 0, nil
}

func (m *mockOpportunityRepo) Update(ctx context.Context, o *models.Opportunity) error {
	m.stored[o.ID] = o
	return nil
}

func (m *mockOpportunityRepo) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteRows, nil
}

func (m *mockOpportunityRepo) AddBookmark(ctx context.Context, userID, opportunityID string) error {
	m.bookmarks[userID+"/"+opportunityID] = true
	return nil
}

func (m *mockOpportunityRepo) RemoveBookmark(ctx context.Context, userID, opportunityID string) error {
	delete(m.bookmarks, userID+"/"+opportunityID)
	return nil
}

func (m *mockOpportunityRepo) ListBookmarked(ctx context.Context, userID string) ([]models.Opportunity, error) {
	return nil, nil
}

func validOpportunityRequest() OpportunityRequest {
	url := "https://careers.example.com/intern"
	return OpportunityRequest{
		Title:       "Summer internship",
		Description: "Twelve weeks, stipend included.",
		Kind:        "INTERNSHIP",
		ApplyURL:    &url,
		Published:   true,
		CreatedBy:   "admin-1",
	}
}

func TestOpportunityCreate(t *testing.T) {
	repo := newMockOpportunityRepo()
	audit := &mockAudit{}
	svc := NewOpportunityService(repo, audit, nil, zap.NewNop())

	created, err := svc.Create(context.Background(), validOpportunityRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OpportunityKindInternship, created.Kind)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionOpportunityWrite, audit.logs[0].Action)
}

func TestOpportunityCreateRequiresApplicationPath(t *testing.T) {
	svc := NewOpportunityService(newMockOpportunityRepo(), nil, nil, zap.NewNop())

	req := validOpportunityRequest()
	req.ApplyURL = nil
	req.Instructions = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestOpportunityCreateRejectsUnknownKind(t *testing.T) {
	svc := NewOpportunityService(newMockOpportunityRepo(), nil, nil, zap.NewNop())

	req := validOpportunityRequest()
	req.Kind = "VOLUNTEERING"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestOpportunityBookmarkChecksExistence(t *testing.T) {
	repo := newMockOpportunityRepo()
	svc := NewOpportunityService(repo, nil, nil, zap.NewNop())

	err := svc.Bookmark(context.Background(), "u-1", "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	created, err := svc.Create(context.Background(), validOpportunityRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Bookmark(context.Background(), "u-1", created.ID))
	assert.True(t, repo.bookmarks["u-1/"+created.ID])

	// repeating either direction stays a no-op
	require.NoError(t, svc.Bookmark(context.Background(), "u-1", created.ID))
	require.NoError(t, svc.Unbookmark(context.Background(), "u-1", created.ID))
	require.NoError(t, svc.Unbookmark(context.Background(), "u-1", created.ID))
	assert.False(t, repo.bookmarks["u-1/"+created.ID])
}

func TestOpportunityDeleteMissing(t *testing.T) {
	repo := newMockOpportunityRepo()
	svc := NewOpportunityService(repo, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing", OpportunityRequest{})
	require.Error(t, err)
}
