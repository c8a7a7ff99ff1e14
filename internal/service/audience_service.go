package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type userAudienceRepository interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
	ListIDsByAudience(ctx context.Context, branchID *string, year, semester *int) ([]string, error)
	FilterExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

// AudienceService resolves targeting specifications into recipient sets.
type AudienceService struct {
	users  userAudienceRepository
	logger *zap.Logger
}

// NewAudienceService constructs the service.
func NewAudienceService(users userAudienceRepository, logger *zap.Logger) *AudienceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudienceService{users: users, logger: logger}
}

// Validate rejects ambiguous or empty targeting specifications without
// touching the store. Exactly one mode must be populated: all, the filter
// conjunction, or an explicit identifier list; explicit identifiers must be
// well-formed UUIDs. Callers run this before writing anything so an invalid
// spec never leaves a notification row behind.
func (s *AudienceService) Validate(spec models.AudienceSpec) error {
	modes := 0
	if spec.All {
		modes++
	}
	if spec.HasFilters() {
		modes++
	}
	if len(spec.UserIDs) > 0 {
		modes++
	}
	if modes == 0 {
		return appErrors.Clone(appErrors.ErrInvalidAudience, "audience targeting is empty")
	}
	if modes > 1 {
		return appErrors.Clone(appErrors.ErrInvalidAudience, "audience targeting modes are mutually exclusive")
	}
	for _, id := range spec.UserIDs {
		if _, err := uuid.Parse(id); err != nil {
			return appErrors.Clone(appErrors.ErrInvalidAudience, "audience user id is not a valid identifier")
		}
	}
	return nil
}

// Resolve returns the duplicate-free set of recipient identifiers selected by
// the spec. Explicit identifiers that no longer resolve to an account are
// dropped silently; they may have been valid at authoring time.
func (s *AudienceService) Resolve(ctx context.Context, spec models.AudienceSpec) ([]string, error) {
	if err := s.Validate(spec); err != nil {
		return nil, err
	}

	var (
		ids []string
		err error
	)
	switch {
	case spec.All:
		ids, err = s.users.ListActiveIDs(ctx)
	case spec.HasFilters():
		ids, err = s.users.ListIDsByAudience(ctx, spec.BranchID, spec.Year, spec.Semester)
	default:
		ids, err = s.users.FilterExistingIDs(ctx, dedupe(spec.UserIDs))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve audience")
	}
	return dedupe(ids), nil
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
