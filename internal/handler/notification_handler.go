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

type notificationService interface {
	Publish(ctx context.Context, req service.PublishNotificationRequest) (*models.FanOutResult, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error)
	Delete(ctx context.Context, id, actorID, ip, userAgent string) error
	MarkRead(ctx context.Context, notificationID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	UnreadFeed(ctx context.Context, userID string, page, size int) ([]models.InboxItem, *models.Pagination, error)
}

type registerExporter interface {
	RenderRegister(ctx context.Context, format string) (*service.ExportRendering, error)
}

// NotificationHandler exposes notification authoring and recipient
// endpoints.
type NotificationHandler struct {
	service notificationService
	export  registerExporter
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(svc notificationService, export registerExporter) *NotificationHandler {
	return &NotificationHandler{service: svc, export: export}
}

// Create godoc
// @Summary Publish a notification
// @Description Create a notification and fan it out to the resolved audience
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.PublishNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req service.PublishNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil {
		req.CreatedBy = claims.UserID
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	result, err := h.service.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List notifications
// @Description Administrative register including expired notifications
// @Tags Notifications
// @Produce json
// @Param category query string false "Filter by category"
// @Param priority query string false "Filter by priority"
// @Param search query string false "Title/body search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var filter models.NotificationFilter
	if category := c.Query("category"); category != "" {
		value := models.NotificationCategory(category)
		filter.Category = &value
	}
	if priority := c.Query("priority"); priority != "" {
		value := models.NotificationPriority(priority)
		filter.Priority = &value
	}
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Export godoc
// @Summary Export the notification register
// @Tags Notifications
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {string} string "rendered export"
// @Router /notifications/export [get]
func (h *NotificationHandler) Export(c *gin.Context) {
	rendering, err := h.export.RenderRegister(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+rendering.Filename)
	c.Data(http.StatusOK, rendering.ContentType, rendering.Payload)
}

// Delete godoc
// @Summary Retract a notification
// @Description Remove a notification and all of its delivery rows
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} nil
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	var actorID string
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.UserID
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorID, c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyFeed godoc
// @Summary List the caller's unread notifications
// @Tags Notifications
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /me/notifications [get]
func (h *NotificationHandler) MyFeed(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, pagination, err := h.service.UnreadFeed(c.Request.Context(), claims.UserID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// MyCount godoc
// @Summary Count the caller's unread notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/notifications/count [get]
func (h *NotificationHandler) MyCount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Description Idempotent: marking an already-read notification is a no-op
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "read"}, nil)
}
