package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-hub-api/internal/models"
	"github.com/noah-isme/campus-hub-api/internal/service"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
	"github.com/noah-isme/campus-hub-api/pkg/response"
)

type opportunityService interface {
	Create(ctx context.Context, req service.OpportunityRequest) (*models.Opportunity, error)
	Get(ctx context.Context, id string) (*models.Opportunity, error)
	List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, *models.Pagination, error)
	Update(ctx context.Context, id string, req service.OpportunityRequest) (*models.Opportunity, error)
	Delete(ctx context.Context, id string, req service.OpportunityRequest) error
	Bookmark(ctx context.Context, userID, opportunityID string) error
	Unbookmark(ctx context.Context, userID, opportunityID string) error
	Bookmarks(ctx context.Context, userID string) ([]models.Opportunity, error)
}

// OpportunityHandler exposes opportunity and bookmark endpoints.
type OpportunityHandler struct {
	service opportunityService
}

// NewOpportunityHandler constructs an opportunity handler.
func NewOpportunityHandler(svc opportunityService) *OpportunityHandler {
	return &OpportunityHandler{service: svc}
}

// List godoc
// @Summary List opportunities
// @Tags Opportunities
// @Produce json
// @Param kind query string false "Filter by kind"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /opportunities [get]
func (h *OpportunityHandler) List(c *gin.Context) {
	var filter models.OpportunityFilter
	if kind := c.Query("kind"); kind != "" {
		value := models.OpportunityKind(kind)
		filter.Kind = &value
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	opportunities, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opportunities, pagination)
}

// Get godoc
// @Summary Get an opportunity
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) Get(c *gin.Context) {
	opportunity, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opportunity, nil)
}

// Create godoc
// @Summary Create an opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param payload body service.OpportunityRequest true "Opportunity payload"
// @Success 201 {object} response.Envelope
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(c *gin.Context) {
	var req service.OpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.stampActor(c, &req)
	opportunity, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, opportunity)
}

// Update godoc
// @Summary Update an opportunity
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param payload body service.OpportunityRequest true "Opportunity payload"
// @Success 200 {object} response.Envelope
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) Update(c *gin.Context) {
	var req service.OpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	h.stampActor(c, &req)
	opportunity, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opportunity, nil)
}

// Delete godoc
// @Summary Delete an opportunity
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 204 {object} nil
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(c *gin.Context) {
	var req service.OpportunityRequest
	h.stampActor(c, &req)
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Bookmark godoc
// @Summary Bookmark an opportunity
// @Description Idempotent: bookmarking twice is a no-op
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} response.Envelope
// @Router /opportunities/{id}/bookmark [put]
func (h *OpportunityHandler) Bookmark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Bookmark(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "bookmarked"}, nil)
}

// Unbookmark godoc
// @Summary Remove an opportunity bookmark
// @Description Idempotent: removing an absent bookmark is a no-op
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 204 {object} nil
// @Router /opportunities/{id}/bookmark [delete]
func (h *OpportunityHandler) Unbookmark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Unbookmark(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyBookmarks godoc
// @Summary List the caller's bookmarked opportunities
// @Tags Opportunities
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/bookmarks [get]
func (h *OpportunityHandler) MyBookmarks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	opportunities, err := h.service.Bookmarks(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opportunities, nil)
}

func (h *OpportunityHandler) stampActor(c *gin.Context, req *service.OpportunityRequest) {
	if claims := claimsFromContext(c); claims != nil {
		req.CreatedBy = claims.UserID
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")
}
