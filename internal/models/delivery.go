package models

import "time"

// NotificationDelivery joins one notification to one recipient and carries
// that recipient's read state. The (notification_id, user_id) pair is unique
// by schema constraint; fan-out relies on that for idempotent inserts.
type NotificationDelivery struct {
	ID             string     `db:"id" json:"id"`
	NotificationID string     `db:"notification_id" json:"notification_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	IsRead         bool       `db:"is_read" json:"is_read"`
	ReadAt         *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// InboxItem is a delivery row joined with its parent notification, as served
// to recipients in their feed.
type InboxItem struct {
	Notification
	DeliveryID string     `db:"delivery_id" json:"delivery_id"`
	IsRead     bool       `db:"is_read" json:"is_read"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	ReceivedAt time.Time  `db:"received_at" json:"received_at"`
}

// FanOutResult summarises a publish operation.
type FanOutResult struct {
	NotificationID string `json:"notification_id"`
	DeliveredCount int    `json:"delivered_count"`
}
