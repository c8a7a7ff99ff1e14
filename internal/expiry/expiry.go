// Package expiry holds the liveness rules for time-bounded content. Read
// paths and the cleanup sweeper both answer through these predicates, so the
// two can never disagree about whether an item is still within its display
// window.
package expiry

import (
	"time"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

// EventGraceWindow is the fixed period after an event's date during which the
// event stays visible before it is treated as expired, unless the event
// carries an explicit expiry override.
const EventGraceWindow = 7 * 24 * time.Hour

// NotificationExpired reports whether a notification's explicit expiry has
// passed. Notifications without an expiry never expire on time grounds.
func NotificationExpired(n *models.Notification, now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

// NotificationLive reports whether a notification is observable through any
// read path: published and not expired.
func NotificationLive(n *models.Notification, now time.Time) bool {
	return n.Published && !NotificationExpired(n, now)
}

// EventExpiry returns the instant an event's display window closes: the
// explicit override when set, otherwise the event date plus the grace window.
func EventExpiry(e *models.Event) time.Time {
	if e.ExpiresAt != nil {
		return *e.ExpiresAt
	}
	return e.EventDate.Add(EventGraceWindow)
}

// EventExpired reports whether an event is fully over: its date has passed
// and its display window has closed.
func EventExpired(e *models.Event, now time.Time) bool {
	return e.EventDate.Before(dayStart(now)) && !EventExpiry(e).After(now)
}

// EventLive reports whether an event is observable: published and either
// upcoming or still inside its display window.
func EventLive(e *models.Event, now time.Time) bool {
	return e.Published && !EventExpired(e, now)
}

// OpportunityExpired reports whether the deadline has passed. Opportunities
// without a deadline never expire.
func OpportunityExpired(o *models.Opportunity, now time.Time) bool {
	return o.Deadline != nil && !o.Deadline.After(now)
}

// OpportunityLive reports whether an opportunity is observable: published
// with its deadline unset or still ahead.
func OpportunityLive(o *models.Opportunity, now time.Time) bool {
	return o.Published && !OpportunityExpired(o, now)
}

// dayStart truncates t to the beginning of its UTC calendar day. Event dates
// are calendar dates, so "today or later" is decided against this boundary.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
