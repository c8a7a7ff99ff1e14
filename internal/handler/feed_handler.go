package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
	"github.com/noah-isme/campus-hub-api/pkg/response"
)

type feedService interface {
	ActiveFeed(ctx context.Context, kind string, asOf time.Time) ([]models.ActiveContentItem, error)
}

// FeedHandler exposes the unified active-content feed.
type FeedHandler struct {
	service feedService
}

// NewFeedHandler constructs a feed handler.
func NewFeedHandler(svc feedService) *FeedHandler {
	return &FeedHandler{service: svc}
}

// Active godoc
// @Summary Unified active-content feed
// @Description Live events and opportunities merged into one ordered feed
// @Tags Feed
// @Produce json
// @Param kind query string false "event, opportunity or all" default(all)
// @Success 200 {object} response.Envelope
// @Router /feed [get]
func (h *FeedHandler) Active(c *gin.Context) {
	kind := strings.ToUpper(c.DefaultQuery("kind", "all"))
	switch kind {
	case "ALL":
		kind = "all"
	case string(models.ContentKindEvent), string(models.ContentKindOpportunity):
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be event, opportunity or all"))
		return
	}

	items, err := h.service.ActiveFeed(c.Request.Context(), kind, time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
