package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type taxonomyServiceMock struct {
	snapshot   *models.TaxonomySnapshot
	setErr     error
	lastKind   models.TaxonomyKind
	lastActive bool
}

func (m *taxonomyServiceMock) ListActive(ctx context.Context) (*models.TaxonomySnapshot, error) {
	return m.snapshot, nil
}

func (m *taxonomyServiceMock) SetActive(ctx context.Context, kind models.TaxonomyKind, id string, active bool, actorID, ip, userAgent string) error {
	m.lastKind = kind
	m.lastActive = active
	return m.setErr
}

func TestTaxonomyHandlerListActive(t *testing.T) {
	mockSvc := &taxonomyServiceMock{snapshot: &models.TaxonomySnapshot{
		Branches:  []models.Branch{{ID: "b-1", Code: "CSE", Name: "Computer Science", IsActive: true}},
		Years:     []models.AcademicYear{},
		Semesters: []models.Semester{},
	}}
	h := NewTaxonomyHandler(mockSvc)

	c, w := testContextWithClaims(t, http.MethodGet, "/taxonomy", nil)
	h.ListActive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CSE")
}

func TestTaxonomyHandlerSetActive(t *testing.T) {
	mockSvc := &taxonomyServiceMock{}
	h := NewTaxonomyHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"active": false})
	c, w := testContextWithClaims(t, http.MethodPut, "/admin/taxonomy/branch/b-1/active", payload)
	c.Params = gin.Params{{Key: "kind", Value: "branch"}, {Key: "id", Value: "b-1"}}
	h.SetActive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TaxonomyKindBranch, mockSvc.lastKind)
	assert.False(t, mockSvc.lastActive)
}

func TestTaxonomyHandlerSetActiveMissingBody(t *testing.T) {
	h := NewTaxonomyHandler(&taxonomyServiceMock{})

	payload, _ := json.Marshal(map[string]interface{}{})
	c, w := testContextWithClaims(t, http.MethodPut, "/admin/taxonomy/branch/b-1/active", payload)
	c.Params = gin.Params{{Key: "kind", Value: "branch"}, {Key: "id", Value: "b-1"}}
	h.SetActive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaxonomyHandlerSetActiveUnknownEntry(t *testing.T) {
	mockSvc := &taxonomyServiceMock{setErr: appErrors.Clone(appErrors.ErrNotFound, "taxonomy entry not found")}
	h := NewTaxonomyHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"active": true})
	c, w := testContextWithClaims(t, http.MethodPut, "/admin/taxonomy/year/missing/active", payload)
	c.Params = gin.Params{{Key: "kind", Value: "year"}, {Key: "id", Value: "missing"}}
	h.SetActive(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
