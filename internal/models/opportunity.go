package models

import "time"

// OpportunityKind classifies career and academic opportunities.
type OpportunityKind string

const (
	OpportunityKindInternship  OpportunityKind = "INTERNSHIP"
	OpportunityKindJob         OpportunityKind = "JOB"
	OpportunityKindScholarship OpportunityKind = "SCHOLARSHIP"
	OpportunityKindCompetition OpportunityKind = "COMPETITION"
)

// Opportunity is a time-bounded opening whose deadline acts directly as its
// expiry. At least one of ApplyURL or Instructions must be present.
type Opportunity struct {
	ID           string          `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Description  string          `db:"description" json:"description"`
	Kind         OpportunityKind `db:"kind" json:"kind"`
	Deadline     *time.Time      `db:"deadline" json:"deadline,omitempty"`
	ApplyURL     *string         `db:"apply_url" json:"apply_url,omitempty"`
	Instructions *string         `db:"instructions" json:"instructions,omitempty"`
	Published    bool            `db:"is_published" json:"is_published"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// OpportunityBookmark marks an opportunity saved by a user. It is a weak
// reference: it exists only while both sides exist and is cascade-deleted
// with either.
type OpportunityBookmark struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	OpportunityID string    `db:"opportunity_id" json:"opportunity_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// OpportunityFilter narrows opportunity listings.
type OpportunityFilter struct {
	Kind     *OpportunityKind
	Page     int
	PageSize int
}
