package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationCategory tags the kind of notice being distributed.
type NotificationCategory string

const (
	NotificationCategoryGeneral   NotificationCategory = "GENERAL"
	NotificationCategoryAcademic  NotificationCategory = "ACADEMIC"
	NotificationCategoryExam      NotificationCategory = "EXAM"
	NotificationCategoryPlacement NotificationCategory = "PLACEMENT"
)

// NotificationPriority defines display ordering for notifications.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// NotificationPayload stores optional structured metadata as JSONB.
type NotificationPayload map[string]string

// Value marshals the payload to JSON for persistence.
func (p NotificationPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}
	return raw, nil
}

// Scan loads the payload from its JSONB column.
func (p *NotificationPayload) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Notification is an authored notice fanned out to its resolved audience.
// Rows are immutable after publish apart from administrative edits to the
// publication flag and expiry; recipients never mutate them.
type Notification struct {
	ID        string               `db:"id" json:"id"`
	Title     string               `db:"title" json:"title"`
	Body      string               `db:"body" json:"body"`
	Category  NotificationCategory `db:"category" json:"category"`
	Priority  NotificationPriority `db:"priority" json:"priority"`
	Payload   NotificationPayload  `db:"payload" json:"payload,omitempty"`
	Published bool                 `db:"is_published" json:"is_published"`
	ExpiresAt *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	SentCount int                  `db:"sent_count" json:"sent_count"`
	CreatedBy string               `db:"created_by" json:"created_by"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// AudienceSpec selects the recipients of a notification. Exactly one
// targeting mode may be populated: All, the filter fields (combined with
// AND), or an explicit UserIDs list. Ambiguous specs are rejected.
type AudienceSpec struct {
	All      bool     `json:"all"`
	BranchID *string  `json:"branch_id,omitempty"`
	Year     *int     `json:"year,omitempty"`
	Semester *int     `json:"semester,omitempty"`
	UserIDs  []string `json:"user_ids,omitempty"`
}

// HasFilters reports whether any narrowing filter field is set.
func (s AudienceSpec) HasFilters() bool {
	return s.BranchID != nil || s.Year != nil || s.Semester != nil
}

// NotificationFilter narrows the administrative register listing.
type NotificationFilter struct {
	Category *NotificationCategory
	Priority *NotificationPriority
	Search   string
	Page     int
	PageSize int
}
