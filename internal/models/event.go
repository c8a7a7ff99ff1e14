package models

import "time"

// Event represents a campus activity with a date and optional time window.
// Its expiry is derived (event date plus a grace window) unless ExpiresAt is
// explicitly set.
type Event struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	EventDate   time.Time  `db:"event_date" json:"event_date"`
	StartTime   *time.Time `db:"start_time" json:"start_time,omitempty"`
	EndTime     *time.Time `db:"end_time" json:"end_time,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	Organizer   *string    `db:"organizer" json:"organizer,omitempty"`
	Published   bool       `db:"is_published" json:"is_published"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
