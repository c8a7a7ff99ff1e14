package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-hub-api/internal/service"
	"github.com/noah-isme/campus-hub-api/pkg/response"
)

type cleanupService interface {
	ForceSweep(ctx context.Context, actorID, ip, userAgent string) (service.SweepResult, error)
}

// CleanupHandler exposes the manual sweep trigger.
type CleanupHandler struct {
	service cleanupService
}

// NewCleanupHandler constructs a cleanup handler.
func NewCleanupHandler(svc cleanupService) *CleanupHandler {
	return &CleanupHandler{service: svc}
}

// Force godoc
// @Summary Run the cleanup sweeper now
// @Description Removes expired content immediately and reports deletions per kind
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/cleanup [post]
func (h *CleanupHandler) Force(c *gin.Context) {
	var actorID string
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	result, err := h.service.ForceSweep(c.Request.Context(), actorID, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": result}, nil)
}
