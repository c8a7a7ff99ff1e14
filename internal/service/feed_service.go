package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/expiry"
	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type activeEventLister interface {
	ListActive(ctx context.Context, asOf time.Time) ([]models.Event, error)
}

type activeOpportunityLister interface {
	ListActive(ctx context.Context, asOf time.Time) ([]models.Opportunity, error)
}

// FeedService composes the unified active-content feed. It is a pure
// read-time projection: events and opportunities are fetched live, re-checked
// against the expiry predicates so a row that expired between query and merge
// never appears, projected into the common item shape, and sorted.
type FeedService struct {
	events        activeEventLister
	opportunities activeOpportunityLister
	logger        *zap.Logger
}

// NewFeedService constructs the service.
func NewFeedService(events activeEventLister, opportunities activeOpportunityLister, logger *zap.Logger) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{events: events, opportunities: opportunities, logger: logger}
}

// ActiveFeed returns every live item of the requested kind (empty kind means
// both), ordered by effective date ascending with newer creation breaking
// ties. Absence of content is an empty slice, never an error.
func (s *FeedService) ActiveFeed(ctx context.Context, kind string, asOf time.Time) ([]models.ActiveContentItem, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	items := []models.ActiveContentItem{}

	if kind == "" || kind == "all" || kind == string(models.ContentKindEvent) {
		events, err := s.events.ListActive(ctx, asOf)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active events")
		}
		for i := range events {
			if !expiry.EventLive(&events[i], asOf) {
				continue
			}
			items = append(items, projectEvent(&events[i]))
		}
	}

	if kind == "" || kind == "all" || kind == string(models.ContentKindOpportunity) {
		opportunities, err := s.opportunities.ListActive(ctx, asOf)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active opportunities")
		}
		for i := range opportunities {
			if !expiry.OpportunityLive(&opportunities[i], asOf) {
				continue
			}
			items = append(items, projectOpportunity(&opportunities[i]))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].EffectiveDate.Equal(items[j].EffectiveDate) {
			return items[i].EffectiveDate.Before(items[j].EffectiveDate)
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// projectEvent maps an event into the feed shape. The effective date is the
// event date; the expiry counterpart is the derived or explicit display
// window close.
func projectEvent(e *models.Event) models.ActiveContentItem {
	eventExpiry := expiry.EventExpiry(e)
	return models.ActiveContentItem{
		ID:            e.ID,
		Kind:          models.ContentKindEvent,
		Title:         e.Title,
		Description:   e.Description,
		EffectiveDate: e.EventDate,
		Location:      e.Location,
		ExpiresAt:     &eventExpiry,
		Published:     e.Published,
		CreatedAt:     e.CreatedAt,
	}
}

// projectOpportunity maps an opportunity into the feed shape. The deadline
// doubles as both effective date and expiry; items without a deadline sort by
// creation time.
func projectOpportunity(o *models.Opportunity) models.ActiveContentItem {
	effective := o.CreatedAt
	if o.Deadline != nil {
		effective = *o.Deadline
	}
	return models.ActiveContentItem{
		ID:            o.ID,
		Kind:          models.ContentKindOpportunity,
		Title:         o.Title,
		Description:   o.Description,
		EffectiveDate: effective,
		ExpiresAt:     o.Deadline,
		Published:     o.Published,
		CreatedAt:     o.CreatedAt,
	}
}
