package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	"github.com/noah-isme/campus-hub-api/internal/notify"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	Delete(ctx context.Context, id string) (int64, error)
	InsertDeliveries(ctx context.Context, notificationID string, userIDs []string) (int64, error)
	AddSentCount(ctx context.Context, id string, delta int64) error
	MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) (int64, error)
	DeliveryExists(ctx context.Context, notificationID, userID string) (bool, error)
	UnreadCount(ctx context.Context, userID string, now time.Time) (int, error)
	UnreadFeed(ctx context.Context, userID string, now time.Time, page, size int) ([]models.InboxItem, int, error)
}

type audienceResolver interface {
	Validate(spec models.AudienceSpec) error
	Resolve(ctx context.Context, spec models.AudienceSpec) ([]string, error)
}

type pushEnqueuer interface {
	Enqueue(msg notify.Message) error
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type publishRecorder interface {
	RecordPublish(deliveries int64)
}

// NotificationService owns the publish fan-out and per-recipient read state.
type NotificationService struct {
	repo      notificationRepository
	audience  audienceResolver
	push      pushEnqueuer
	audit     auditRecorder
	metrics   publishRecorder
	validator *validator.Validate
	logger    *zap.Logger
	chunkSize int
}

// NewNotificationService constructs the service. Push, audit and metrics are
// optional collaborators; chunkSize bounds one fan-out insert statement.
func NewNotificationService(repo notificationRepository, audience audienceResolver, push pushEnqueuer, audit auditRecorder, metrics publishRecorder, validate *validator.Validate, logger *zap.Logger, chunkSize int) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	svc := &NotificationService{
		repo:      repo,
		audience:  audience,
		push:      push,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		chunkSize: chunkSize,
	}
	svc.validator.RegisterValidation("notification_category", func(fl validator.FieldLevel) bool {
		switch models.NotificationCategory(strings.ToUpper(fl.Field().String())) {
		case models.NotificationCategoryGeneral, models.NotificationCategoryAcademic, models.NotificationCategoryExam, models.NotificationCategoryPlacement:
			return true
		default:
			return false
		}
	})
	svc.validator.RegisterValidation("notification_priority", func(fl validator.FieldLevel) bool {
		switch models.NotificationPriority(strings.ToUpper(fl.Field().String())) {
		case models.NotificationPriorityLow, models.NotificationPriorityNormal, models.NotificationPriorityHigh:
			return true
		default:
			return false
		}
	})
	return svc
}

// PublishNotificationRequest describes the authoring payload.
type PublishNotificationRequest struct {
	Title     string                     `json:"title" validate:"required"`
	Body      string                     `json:"body" validate:"required"`
	Category  string                     `json:"category" validate:"required,notification_category"`
	Priority  string                     `json:"priority" validate:"required,notification_priority"`
	Audience  models.AudienceSpec        `json:"audience"`
	ExpiresAt *time.Time                 `json:"expires_at"`
	Payload   models.NotificationPayload `json:"payload"`
	CreatedBy string                     `json:"-"`
	IP        string                     `json:"-"`
	UserAgent string                     `json:"-"`
}

// Publish persists the notification and fans it out to the resolved
// audience. The audience is validated and resolved before anything is
// written, so an invalid spec never leaves a row behind. Fan-out itself is
// best-effort per chunk: a failing chunk is logged and skipped, never rolled
// back.
func (s *NotificationService) Publish(ctx context.Context, req PublishNotificationRequest) (*models.FanOutResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expires_at must be in the future")
	}

	recipients, err := s.audience.Resolve(ctx, req.Audience)
	if err != nil {
		return nil, err
	}

	notification := &models.Notification{
		Title:     req.Title,
		Body:      req.Body,
		Category:  models.NotificationCategory(strings.ToUpper(req.Category)),
		Priority:  models.NotificationPriority(strings.ToUpper(req.Priority)),
		Payload:   req.Payload,
		Published: true,
		ExpiresAt: req.ExpiresAt,
		CreatedBy: req.CreatedBy,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	var delivered int64
	for start := 0; start < len(recipients); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(recipients) {
			end = len(recipients)
		}
		inserted, err := s.repo.InsertDeliveries(ctx, notification.ID, recipients[start:end])
		if err != nil {
			s.logger.Sugar().Errorw("fan-out chunk failed",
				"notification_id", notification.ID, "chunk_start", start, "chunk_size", end-start, "error", err)
			continue
		}
		delivered += inserted
	}

	if delivered > 0 {
		if err := s.repo.AddSentCount(ctx, notification.ID, delivered); err != nil {
			s.logger.Sugar().Warnw("failed to update sent count", "notification_id", notification.ID, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.RecordPublish(delivered)
	}
	s.recordAudit(ctx, models.AuditActionNotificationPublish, "notification", notification.ID, req.CreatedBy, req.IP, req.UserAgent)

	if s.push != nil {
		msg := notify.Message{
			NotificationID: notification.ID,
			Title:          notification.Title,
			Body:           notification.Body,
			Category:       string(notification.Category),
			Priority:       string(notification.Priority),
			Recipients:     int(delivered),
			PublishedAt:    notification.CreatedAt,
		}
		if err := s.push.Enqueue(msg); err != nil {
			s.logger.Sugar().Warnw("failed to enqueue push dispatch", "notification_id", notification.ID, "error", err)
		}
	}

	return &models.FanOutResult{NotificationID: notification.ID, DeliveredCount: int(delivered)}, nil
}

// List returns the administrative register, expired rows included.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Delete retracts a notification and its deliveries.
func (s *NotificationService) Delete(ctx context.Context, id, actorID, ip, userAgent string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	s.recordAudit(ctx, models.AuditActionNotificationDelete, "notification", id, actorID, ip, userAgent)
	return nil
}

// MarkRead flips the caller's delivery to read. Marking an already-read
// delivery is a no-op; a pair with no delivery row is NotFound.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	affected, err := s.repo.MarkRead(ctx, notificationID, userID, time.Now().UTC())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if affected > 0 {
		return nil
	}
	exists, err := s.repo.DeliveryExists(ctx, notificationID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check delivery")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found for recipient")
	}
	return nil
}

// UnreadCount returns the caller's live unread total, computed at query time
// so expired notifications stop counting before the sweeper removes them.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}

// UnreadFeed returns the caller's unread deliveries joined with their live
// parents, newest notification first.
func (s *NotificationService) UnreadFeed(ctx context.Context, userID string, page, size int) ([]models.InboxItem, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	items, total, err := s.repo.UnreadFeed(ctx, userID, time.Now().UTC(), page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unread notifications")
	}
	if items == nil {
		items = []models.InboxItem{}
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return items, pagination, nil
}

// Get returns a notification by identifier.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get notification")
	}
	return n, nil
}

func (s *NotificationService) recordAudit(ctx context.Context, action, resource, resourceID, actorID, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	var userID *string
	if actorID != "" {
		userID = &actorID
	}
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to record audit log", "action", action, "resource_id", resourceID, "error", err)
	}
}
