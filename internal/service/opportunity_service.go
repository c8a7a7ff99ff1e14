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
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type opportunityRepository interface {
	Create(ctx context.Context, o *models.Opportunity) error
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
	List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, int, error)
	Update(ctx context.Context, o *models.Opportunity) error
	Delete(ctx context.Context, id string) (int64, error)
	AddBookmark(ctx context.Context, userID, opportunityID string) error
	RemoveBookmark(ctx context.Context, userID, opportunityID string) error
	ListBookmarked(ctx context.Context, userID string) ([]models.Opportunity, error)
}

// OpportunityService handles opportunity authoring and bookmarks.
type OpportunityService struct {
	repo      opportunityRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOpportunityService constructs the service.
func NewOpportunityService(repo opportunityRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *OpportunityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &OpportunityService{repo: repo, audit: audit, validator: validate, logger: logger}
	svc.validator.RegisterValidation("opportunity_kind", func(fl validator.FieldLevel) bool {
		switch models.OpportunityKind(strings.ToUpper(fl.Field().String())) {
		case models.OpportunityKindInternship, models.OpportunityKindJob, models.OpportunityKindScholarship, models.OpportunityKindCompetition:
			return true
		default:
			return false
		}
	})
	return svc
}

// OpportunityRequest describes the create/update payload.
type OpportunityRequest struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description" validate:"required"`
	Kind         string     `json:"kind" validate:"required,opportunity_kind"`
	Deadline     *time.Time `json:"deadline"`
	ApplyURL     *string    `json:"apply_url" validate:"omitempty,url"`
	Instructions *string    `json:"instructions"`
	Published    bool       `json:"is_published"`
	CreatedBy    string     `json:"-"`
	IP           string     `json:"-"`
	UserAgent    string     `json:"-"`
}

func (s *OpportunityService) validateRequest(req OpportunityRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	hasURL := req.ApplyURL != nil && strings.TrimSpace(*req.ApplyURL) != ""
	hasInstructions := req.Instructions != nil && strings.TrimSpace(*req.Instructions) != ""
	if !hasURL && !hasInstructions {
		return appErrors.Clone(appErrors.ErrValidation, "apply_url or instructions is required")
	}
	return nil
}

// Create registers a new opportunity.
func (s *OpportunityService) Create(ctx context.Context, req OpportunityRequest) (*models.Opportunity, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	opportunity := &models.Opportunity{
		Title:        req.Title,
		Description:  req.Description,
		Kind:         models.OpportunityKind(strings.ToUpper(req.Kind)),
		Deadline:     req.Deadline,
		ApplyURL:     req.ApplyURL,
		Instructions: req.Instructions,
		Published:    req.Published,
		CreatedBy:    req.CreatedBy,
	}
	if err := s.repo.Create(ctx, opportunity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create opportunity")
	}
	s.recordAudit(ctx, opportunity.ID, req)
	return opportunity, nil
}

// Get returns an opportunity by id.
func (s *OpportunityService) Get(ctx context.Context, id string) (*models.Opportunity, error) {
	opportunity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "opportunity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get opportunity")
	}
	return opportunity, nil
}

// List returns opportunities with pagination.
func (s *OpportunityService) List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list opportunities")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Update modifies an existing opportunity.
func (s *OpportunityService) Update(ctx context.Context, id string, req OpportunityRequest) (*models.Opportunity, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "opportunity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load opportunity")
	}
	existing.Title = req.Title
	existing.Description = req.Description
	existing.Kind = models.OpportunityKind(strings.ToUpper(req.Kind))
	existing.Deadline = req.Deadline
	existing.ApplyURL = req.ApplyURL
	existing.Instructions = req.Instructions
	existing.Published = req.Published
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update opportunity")
	}
	s.recordAudit(ctx, existing.ID, req)
	return existing, nil
}

// Delete removes an opportunity and its bookmarks.
func (s *OpportunityService) Delete(ctx context.Context, id string, req OpportunityRequest) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete opportunity")
	}
	if deleted == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "opportunity not found")
	}
	s.recordAudit(ctx, id, req)
	return nil
}

// Bookmark saves an opportunity for the caller. Saving twice is a no-op.
func (s *OpportunityService) Bookmark(ctx context.Context, userID, opportunityID string) error {
	if _, err := s.Get(ctx, opportunityID); err != nil {
		return err
	}
	if err := s.repo.AddBookmark(ctx, userID, opportunityID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add bookmark")
	}
	return nil
}

// Unbookmark removes a saved opportunity. Removing an absent bookmark is a
// no-op.
func (s *OpportunityService) Unbookmark(ctx context.Context, userID, opportunityID string) error {
	if err := s.repo.RemoveBookmark(ctx, userID, opportunityID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove bookmark")
	}
	return nil
}

// Bookmarks returns the caller's saved opportunities.
func (s *OpportunityService) Bookmarks(ctx context.Context, userID string) ([]models.Opportunity, error) {
	rows, err := s.repo.ListBookmarked(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookmarks")
	}
	if rows == nil {
		rows = []models.Opportunity{}
	}
	return rows, nil
}

func (s *OpportunityService) recordAudit(ctx context.Context, opportunityID string, req OpportunityRequest) {
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
		Action:     models.AuditActionOpportunityWrite,
		Resource:   "opportunity",
		ResourceID: &opportunityID,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Sugar().Warnw("failed to record audit log", "action", models.AuditActionOpportunityWrite, "resource_id", opportunityID, "error", err)
	}
}
