package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

const taxonomySnapshotCacheKey = "taxonomy:active"

type taxonomyRepository interface {
	ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error)
	ListYears(ctx context.Context, activeOnly bool) ([]models.AcademicYear, error)
	ListSemesters(ctx context.Context, activeOnly bool) ([]models.Semester, error)
	SetActive(ctx context.Context, kind models.TaxonomyKind, id string, active bool) (int64, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// TaxonomyService serves the active branch/year/semester snapshot and the
// administrative activation toggle. The toggle is the hierarchy's only
// writer, so a cached snapshot invalidated on toggle stays exact.
type TaxonomyService struct {
	repo    taxonomyRepository
	cache   snapshotCache
	audit   auditRecorder
	metrics cacheRecorder
	logger  *zap.Logger
	ttl     time.Duration
}

// NewTaxonomyService constructs the service. Cache, audit and metrics are
// optional collaborators.
func NewTaxonomyService(repo taxonomyRepository, cache snapshotCache, audit auditRecorder, metrics cacheRecorder, logger *zap.Logger, ttl time.Duration) *TaxonomyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TaxonomyService{repo: repo, cache: cache, audit: audit, metrics: metrics, logger: logger, ttl: ttl}
}

// ListActive returns the current active registration hierarchy.
func (s *TaxonomyService) ListActive(ctx context.Context) (*models.TaxonomySnapshot, error) {
	if s.cache != nil {
		start := time.Now()
		var cached models.TaxonomySnapshot
		err := s.cache.Get(ctx, taxonomySnapshotCacheKey, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("taxonomy cache read failed", "error", err)
		}
	}

	snapshot, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, taxonomySnapshotCacheKey, snapshot, s.ttl); err != nil {
			s.logger.Sugar().Warnw("taxonomy cache write failed", "error", err)
		}
	}
	return snapshot, nil
}

// SetActive flips one hierarchy entry and invalidates the snapshot cache so
// the next read observes the toggle immediately.
func (s *TaxonomyService) SetActive(ctx context.Context, kind models.TaxonomyKind, id string, active bool, actorID, ip, userAgent string) error {
	switch kind {
	case models.TaxonomyKindBranch, models.TaxonomyKindYear, models.TaxonomyKindSemester:
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown taxonomy kind")
	}

	affected, err := s.repo.SetActive(ctx, kind, id, active)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle activation")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "taxonomy entry not found")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, taxonomySnapshotCacheKey); err != nil {
			s.logger.Sugar().Warnw("taxonomy cache invalidation failed", "error", err)
		}
	}

	if s.audit != nil {
		var userID *string
		if actorID != "" {
			actor := actorID
			userID = &actor
		}
		entry := &models.AuditLog{
			UserID:     userID,
			Action:     models.AuditActionTaxonomyToggle,
			Resource:   string(kind),
			ResourceID: &id,
			IPAddress:  ip,
			UserAgent:  userAgent,
		}
		if auditErr := s.audit.CreateAuditLog(ctx, entry); auditErr != nil {
			s.logger.Sugar().Warnw("failed to record audit log", "action", models.AuditActionTaxonomyToggle, "resource_id", id, "error", auditErr)
		}
	}
	return nil
}

func (s *TaxonomyService) loadSnapshot(ctx context.Context) (*models.TaxonomySnapshot, error) {
	branches, err := s.repo.ListBranches(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list branches")
	}
	years, err := s.repo.ListYears(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}
	semesters, err := s.repo.ListSemesters(ctx, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	if branches == nil {
		branches = []models.Branch{}
	}
	if years == nil {
		years = []models.AcademicYear{}
	}
	if semesters == nil {
		semesters = []models.Semester{}
	}
	return &models.TaxonomySnapshot{Branches: branches, Years: years, Semesters: semesters}, nil
}
