package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type notificationSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type eventSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type opportunitySweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sweepRecorder interface {
	RecordSweep(kind string, deleted int64)
}

// SweepResult reports rows removed per content kind in one run.
type SweepResult map[models.ContentKind]int64

// Content kinds reported by the sweeper. Notifications are not feed content
// but share the same lifecycle.
const sweepKindNotification models.ContentKind = "NOTIFICATION"

// CleanupService reclaims storage for expired content. It deletes rows the
// expiry predicates mark dead, dependents first, one transaction per kind.
// Visibility never depends on it having run: read paths apply the same
// predicates live. Running it twice in a row, or concurrently with itself,
// just deletes nothing the second time.
type CleanupService struct {
	notifications notificationSweeper
	events        eventSweeper
	opportunities opportunitySweeper
	audit         auditRecorder
	metrics       sweepRecorder
	logger        *zap.Logger
	interval      time.Duration
	runOnStart    bool
}

// NewCleanupService constructs the service.
func NewCleanupService(notifications notificationSweeper, events eventSweeper, opportunities opportunitySweeper, audit auditRecorder, metrics sweepRecorder, logger *zap.Logger, interval time.Duration, runOnStart bool) *CleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &CleanupService{
		notifications: notifications,
		events:        events,
		opportunities: opportunities,
		audit:         audit,
		metrics:       metrics,
		logger:        logger,
		interval:      interval,
		runOnStart:    runOnStart,
	}
}

// Sweep removes every expired row across all content kinds and reports how
// many were deleted per kind. Kind failures are isolated: a failing kind is
// logged and reported as zero while the remaining kinds still run.
func (s *CleanupService) Sweep(ctx context.Context) (SweepResult, error) {
	now := time.Now().UTC()
	result := SweepResult{}

	kinds := []struct {
		kind  models.ContentKind
		sweep func(context.Context, time.Time) (int64, error)
	}{
		{sweepKindNotification, s.notifications.DeleteExpired},
		{models.ContentKindEvent, s.events.DeleteExpired},
		{models.ContentKindOpportunity, s.opportunities.DeleteExpired},
	}

	var firstErr error
	for _, k := range kinds {
		deleted, err := k.sweep(ctx, now)
		if err != nil {
			s.logger.Sugar().Errorw("sweep failed for kind", "kind", k.kind, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			result[k.kind] = 0
			continue
		}
		result[k.kind] = deleted
		if s.metrics != nil {
			s.metrics.RecordSweep(string(k.kind), deleted)
		}
		if deleted > 0 {
			s.logger.Sugar().Infow("swept expired content", "kind", k.kind, "deleted", deleted)
		}
	}

	if firstErr != nil {
		return result, appErrors.Wrap(firstErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "cleanup sweep partially failed")
	}
	return result, nil
}

// ForceSweep runs one sweep on behalf of an administrator and records the
// action in the audit trail.
func (s *CleanupService) ForceSweep(ctx context.Context, actorID, ip, userAgent string) (SweepResult, error) {
	result, err := s.Sweep(ctx)
	if s.audit != nil {
		var userID *string
		if actorID != "" {
			actor := actorID
			userID = &actor
		}
		entry := &models.AuditLog{
			UserID:    userID,
			Action:    models.AuditActionForcedCleanup,
			Resource:  "cleanup",
			IPAddress: ip,
			UserAgent: userAgent,
		}
		if auditErr := s.audit.CreateAuditLog(ctx, entry); auditErr != nil {
			s.logger.Sugar().Warnw("failed to record audit log", "action", models.AuditActionForcedCleanup, "error", auditErr)
		}
	}
	return result, err
}

// Start launches the interval sweeper bound to ctx. The first run happens at
// startup when configured; afterwards the ticker drives it until ctx ends.
func (s *CleanupService) Start(ctx context.Context) {
	go func() {
		if s.runOnStart {
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Sugar().Errorw("startup sweep failed", "error", err)
			}
		}
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(ctx); err != nil {
					s.logger.Sugar().Errorw("scheduled sweep failed", "error", err)
				}
			}
		}
	}()
}
