package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

// notificationLiveCond returns the SQL liveness condition for notifications:
// published and either without expiry or expiring after the instant bound to
// placeholder $arg. Every read path and the sweeper build their queries from
// this one condition so they can never disagree.
func notificationLiveCond(alias string, arg int) string {
	return fmt.Sprintf("%[1]s.is_published = TRUE AND (%[1]s.expires_at IS NULL OR %[1]s.expires_at > $%[2]d)", alias, arg)
}

// NotificationRepository provides persistence for notifications and their
// per-recipient delivery rows.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	query := `INSERT INTO notifications (id, title, body, category, priority, payload, is_published, expires_at, sent_count, created_by, created_at, updated_at)
VALUES (:id, :title, :body, :category, :priority, :payload, :is_published, :expires_at, :sent_count, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// GetByID returns a notification by identifier.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT id, title, body, category, priority, payload, is_published, expires_at, sent_count, created_by, created_at, updated_at
FROM notifications WHERE id = $1`
	var n models.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns the administrative register including expired rows.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	base := "FROM notifications WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *filter.Category)
	}
	if filter.Priority != nil {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, *filter.Priority)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(body) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, title, body, category, priority, payload, is_published, expires_at, sent_count, created_by, created_at, updated_at
%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// Delete removes a notification and its delivery rows in one transaction.
// Returns the number of notification rows removed so callers can detect a
// missing identifier.
func (r *NotificationRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete notification: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM notification_deliveries WHERE notification_id = $1", id); err != nil {
		return 0, fmt.Errorf("delete notification deliveries: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("delete notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete notification rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete notification: %w", err)
	}
	return affected, nil
}

// InsertDeliveries creates one delivery row per recipient. The unique
// (notification_id, user_id) constraint plus ON CONFLICT DO NOTHING makes the
// insert idempotent under retry; the returned count covers only rows actually
// created.
func (r *NotificationRepository) InsertDeliveries(ctx context.Context, notificationID string, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	values := make([]string, 0, len(userIDs))
	args := []interface{}{notificationID, now}
	for _, userID := range userIDs {
		args = append(args, uuid.NewString(), userID)
		values = append(values, fmt.Sprintf("($%d, $1, $%d, FALSE, $2)", len(args)-1, len(args)))
	}
	query := fmt.Sprintf(`INSERT INTO notification_deliveries (id, notification_id, user_id, is_read, created_at)
VALUES %s
ON CONFLICT (notification_id, user_id) DO NOTHING`, strings.Join(values, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert deliveries: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert deliveries rows affected: %w", err)
	}
	return inserted, nil
}

// AddSentCount bumps the denormalized send counter. Best-effort telemetry;
// callers log failures instead of failing the publish.
func (r *NotificationRepository) AddSentCount(ctx context.Context, id string, delta int64) error {
	const query = `UPDATE notifications SET sent_count = sent_count + $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("add sent count: %w", err)
	}
	return nil
}

// MarkRead flips a delivery to read. The is_read guard makes the update
// idempotent: marking an already-read delivery affects zero rows and leaves
// read_at untouched.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string, readAt time.Time) (int64, error) {
	const query = `UPDATE notification_deliveries SET is_read = TRUE, read_at = $3
WHERE notification_id = $1 AND user_id = $2 AND is_read = FALSE`
	res, err := r.db.ExecContext(ctx, query, notificationID, userID, readAt)
	if err != nil {
		return 0, fmt.Errorf("mark delivery read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark delivery read rows affected: %w", err)
	}
	return affected, nil
}

// DeliveryExists reports whether a delivery row exists for the pair.
func (r *NotificationRepository) DeliveryExists(ctx context.Context, notificationID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM notification_deliveries WHERE notification_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, notificationID, userID); err != nil {
		return false, fmt.Errorf("delivery exists: %w", err)
	}
	return exists, nil
}

// UnreadCount counts the recipient's unread deliveries whose parent
// notification is live at the given instant. Expired parents stop counting
// even while their rows await the sweeper.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string, now time.Time) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM notification_deliveries d
JOIN notifications n ON n.id = d.notification_id
WHERE d.user_id = $1 AND d.is_read = FALSE AND %s`, notificationLiveCond("n", 2))
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, now); err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

// UnreadFeed lists the recipient's unread deliveries joined with their live
// parent notifications, most recently created first.
func (r *NotificationRepository) UnreadFeed(ctx context.Context, userID string, now time.Time, page, size int) ([]models.InboxItem, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	base := fmt.Sprintf(`FROM notification_deliveries d
JOIN notifications n ON n.id = d.notification_id
WHERE d.user_id = $1 AND d.is_read = FALSE AND %s`, notificationLiveCond("n", 2))

	query := fmt.Sprintf(`SELECT n.id, n.title, n.body, n.category, n.priority, n.payload, n.is_published, n.expires_at, n.sent_count, n.created_by, n.created_at, n.updated_at,
d.id AS delivery_id, d.is_read, d.read_at, d.created_at AS received_at
%s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var items []models.InboxItem
	if err := r.db.SelectContext(ctx, &items, query, userID, now); err != nil {
		return nil, 0, fmt.Errorf("unread feed: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID, now); err != nil {
		return nil, 0, fmt.Errorf("count unread feed: %w", err)
	}
	return items, total, nil
}

// DeleteExpired removes notifications that are no longer live at the given
// instant, deliveries first, inside one transaction so readers never observe
// an orphaned delivery. Returns the number of notifications removed.
func (r *NotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin notification sweep: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	deadCond := fmt.Sprintf("NOT (%s)", notificationLiveCond("n", 1))

	deliveryQuery := fmt.Sprintf(`DELETE FROM notification_deliveries WHERE notification_id IN (SELECT n.id FROM notifications n WHERE %s)`, deadCond)
	if _, err := tx.ExecContext(ctx, deliveryQuery, now); err != nil {
		return 0, fmt.Errorf("sweep deliveries: %w", err)
	}
	parentQuery := fmt.Sprintf(`DELETE FROM notifications n WHERE %s`, deadCond)
	res, err := tx.ExecContext(ctx, parentQuery, now)
	if err != nil {
		return 0, fmt.Errorf("sweep notifications: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep notifications rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit notification sweep: %w", err)
	}
	return deleted, nil
}
