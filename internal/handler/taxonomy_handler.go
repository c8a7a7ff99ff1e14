package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
	"github.com/noah-isme/campus-hub-api/pkg/response"
)

type taxonomyService interface {
	ListActive(ctx context.Context) (*models.TaxonomySnapshot, error)
	SetActive(ctx context.Context, kind models.TaxonomyKind, id string, active bool, actorID, ip, userAgent string) error
}

// TaxonomyHandler exposes the registration hierarchy endpoints.
type TaxonomyHandler struct {
	service taxonomyService
}

// NewTaxonomyHandler constructs a taxonomy handler.
func NewTaxonomyHandler(svc taxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{service: svc}
}

// ListActive godoc
// @Summary Active registration hierarchy
// @Description Current active branches, years and semesters
// @Tags Taxonomy
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /taxonomy [get]
func (h *TaxonomyHandler) ListActive(c *gin.Context) {
	snapshot, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive godoc
// @Summary Toggle a hierarchy entry
// @Tags Taxonomy
// @Accept json
// @Produce json
// @Param kind path string true "branch, year or semester"
// @Param id path string true "Entry ID"
// @Param payload body setActiveRequest true "Activation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/taxonomy/{kind}/{id}/active [put]
func (h *TaxonomyHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	var actorID string
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	kind := models.TaxonomyKind(c.Param("kind"))
	if err := h.service.SetActive(c.Request.Context(), kind, c.Param("id"), *req.Active, actorID, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"kind": kind, "id": c.Param("id"), "active": *req.Active}, nil)
}
