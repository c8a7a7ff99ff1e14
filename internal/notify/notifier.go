// Package notify carries best-effort push dispatch on top of the
// authoritative delivery rows. Notifier failures are logged and never
// surfaced to the authoring caller.
package notify

import (
	"context"
	"time"
)

// Message is the payload handed to every configured notifier after a
// successful fan-out.
type Message struct {
	NotificationID string
	Title          string
	Body           string
	Category       string
	Priority       string
	Recipients     int
	PublishedAt    time.Time
}

// Notifier delivers a published-notification signal over one channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Name() string
}
