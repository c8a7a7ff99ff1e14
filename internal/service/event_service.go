package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id string) (int64, error)
}

// EventService handles campus event authoring.
type EventService struct {
	repo      eventRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// EventRequest describes the create/update payload.
type EventRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	EventDate   time.Time  `json:"event_date" validate:"required"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location"`
	Organizer   *string    `json:"organizer"`
	Published   bool       `json:"is_published"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedBy   string     `json:"-"`
	IP          string     `json:"-"`
	UserAgent   string     `json:"-"`
}

func (s *EventService) validateRequest(req EventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(req.EventDate) {
		return appErrors.Clone(appErrors.ErrValidation, "expires_at must not precede event_date")
	}
	return nil
}

// Create registers a new event.
func (s *EventService) Create(ctx context.Context, req EventRequest) (*models.Event, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		EventDate:   req.EventDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Organizer:   req.Organizer,
		Published:   req.Published,
		ExpiresAt:   req.ExpiresAt,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.recordAudit(ctx, event.ID, req)
	return event, nil
}

// Get returns an event by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get event")
	}
	return event, nil
}

// List returns events with pagination.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, id string, req EventRequest) (*models.Event, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	existing.Title = req.Title
	existing.Description = req.Description
	existing.EventDate = req.EventDate
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.Location = req.Location
	existing.Organizer = req.Organizer
	existing.Published = req.Published
	existing.ExpiresAt = req.ExpiresAt
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.recordAudit(ctx, existing.ID, req)
	return existing, nil
}

// Delete removes an event by id.
func (s *EventService) Delete(ctx context.Context, id string, req EventRequest) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	s.recordAudit(ctx, id, req)
	return nil
}

func (s *EventService) recordAudit(ctx context.Context, eventID string, req EventRequest) {
	if s.audit == nil {
		return
	}
	var userID *string
	if req.CreatedBy != "" {
		actor := req.CreatedBy
		userID = &actor
	}
	entry := &models.AuditLog{
		UserID:     userID,
		Action:     models.AuditActionEventWrite,
		Resource:   "event",
		ResourceID: &eventID,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to record audit log", "action", models.AuditActionEventWrite, "resource_id", eventID, "error", err)
	}
}
