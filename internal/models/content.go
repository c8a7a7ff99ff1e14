package models

import "time"

// ContentKind tags entries in the unified active feed.
type ContentKind string

const (
	ContentKindEvent       ContentKind = "EVENT"
	ContentKindOpportunity ContentKind = "OPPORTUNITY"
)

// ActiveContentItem is the read-time projection that merges events and
// opportunities into one feed shape. It is never persisted and carries no
// lifecycle of its own; EffectiveDate drives feed ordering and ExpiresAt
// holds the item's deadline or derived expiry.
type ActiveContentItem struct {
	ID            string      `json:"id"`
	Kind          ContentKind `json:"kind"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	EffectiveDate time.Time   `json:"effective_date"`
	Location      *string     `json:"location,omitempty"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
	Published     bool        `json:"is_published"`
	CreatedAt     time.Time   `json:"created_at"`
}
