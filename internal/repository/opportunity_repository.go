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

// opportunityLiveCond returns the SQL liveness condition for opportunities:
// published and without a deadline or with one after the instant bound to
// placeholder $arg. Mirrors expiry.OpportunityLive.
func opportunityLiveCond(alias string, arg int) string {
	return fmt.Sprintf("%[1]s.is_published = TRUE AND (%[1]s.deadline IS NULL OR %[1]s.deadline > $%[2]d)", alias, arg)
}

// OpportunityRepository provides persistence for opportunities and their
// bookmarks.
type OpportunityRepository struct {
	db *sqlx.DB
}

// NewOpportunityRepository creates the repository.
func NewOpportunityRepository(db *sqlx.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// Create inserts a new opportunity.
func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	query := `INSERT INTO opportunities (id, title, description, kind, deadline, apply_url, instructions, is_published, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :kind, :deadline, :apply_url, :instructions, :is_published, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

// GetByID returns an opportunity by identifier.
func (r *OpportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	const query = `SELECT id, title, description, kind, deadline, apply_url, instructions, is_published, created_by, created_at, updated_at
FROM opportunities WHERE id = $1`
	var o models.Opportunity
	if err := r.db.GetContext(ctx, &o, query, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns opportunities for the administrative register including
// expired rows.
func (r *OpportunityRepository) List(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, int, error) {
	base := "FROM opportunities WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
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

	query := fmt.Sprintf(`SELECT id, title, description, kind, deadline, apply_url, instructions, is_published, created_by, created_at, updated_at
%s ORDER BY deadline ASC NULLS LAST, created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var opportunities []models.Opportunity
	if err := r.db.SelectContext(ctx, &opportunities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list opportunities: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count opportunities: %w", err)
	}
	return opportunities, total, nil
}

// ListActive returns every opportunity live at the given instant, nearest
// deadline first.
func (r *OpportunityRepository) ListActive(ctx context.Context, asOf time.Time) ([]models.Opportunity, error) {
	query := fmt.Sprintf(`SELECT id, title, description, kind, deadline, apply_url, instructions, is_published, created_by, created_at, updated_at
FROM opportunities o WHERE %s ORDER BY deadline ASC NULLS LAST, created_at DESC`, opportunityLiveCond("o", 1))
	var opportunities []models.Opportunity
	if err := r.db.SelectContext(ctx, &opportunities, query, asOf); err != nil {
		return nil, fmt.Errorf("list active opportunities: %w", err)
	}
	return opportunities, nil
}

// Update modifies an existing opportunity.
func (r *OpportunityRepository) Update(ctx context.Context, o *models.Opportunity) error {
	o.UpdatedAt = time.Now().UTC()
	query := `UPDATE opportunities SET title = :title, description = :description, kind = :kind, deadline = :deadline,
apply_url = :apply_url, instructions = :instructions, is_published = :is_published, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	return nil
}

// Delete removes an opportunity and its bookmarks in one transaction.
// Returns the number of opportunity rows removed.
func (r *OpportunityRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete opportunity: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM opportunity_bookmarks WHERE opportunity_id = $1", id); err != nil {
		return 0, fmt.Errorf("delete opportunity bookmarks: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM opportunities WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("delete opportunity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete opportunity rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete opportunity: %w", err)
	}
	return affected, nil
}

// AddBookmark saves an opportunity for a user. The unique
// (user_id, opportunity_id) constraint plus ON CONFLICT DO NOTHING makes the
// call idempotent.
func (r *OpportunityRepository) AddBookmark(ctx context.Context, userID, opportunityID string) error {
	const query = `INSERT INTO opportunity_bookmarks (id, user_id, opportunity_id, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, opportunity_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, opportunityID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark drops a saved opportunity. Removing an absent bookmark is a
// no-op.
func (r *OpportunityRepository) RemoveBookmark(ctx context.Context, userID, opportunityID string) error {
	const query = `DELETE FROM opportunity_bookmarks WHERE user_id = $1 AND opportunity_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, opportunityID); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// ListBookmarked returns the opportunities a user has saved, newest bookmark
// first.
func (r *OpportunityRepository) ListBookmarked(ctx context.Context, userID string) ([]models.Opportunity, error) {
	const query = `SELECT o.id, o.title, o.description, o.kind, o.deadline, o.apply_url, o.instructions, o.is_published, o.created_by, o.created_at, o.updated_at
FROM opportunity_bookmarks b
JOIN opportunities o ON o.id = b.opportunity_id
WHERE b.user_id = $1
ORDER BY b.created_at DESC`
	var opportunities []models.Opportunity
	if err := r.db.SelectContext(ctx, &opportunities, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmarked opportunities: %w", err)
	}
	return opportunities, nil
}

// DeleteExpired removes opportunities no longer live at the given instant,
// bookmarks first, inside one transaction. Returns the number of
// opportunities removed.
func (r *OpportunityRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin opportunity sweep: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	deadCond := fmt.Sprintf("NOT (%s)", opportunityLiveCond("o", 1))

	bookmarkQuery := fmt.Sprintf(`DELETE FROM opportunity_bookmarks WHERE opportunity_id IN (SELECT o.id FROM opportunities o WHERE %s)`, deadCond)
	if _, err := tx.ExecContext(ctx, bookmarkQuery, now); err != nil {
		return 0, fmt.Errorf("sweep bookmarks: %w", err)
	}
	parentQuery := fmt.Sprintf(`DELETE FROM opportunities o WHERE %s`, deadCond)
	res, err := tx.ExecContext(ctx, parentQuery, now)
	if err != nil {
		return 0, fmt.Errorf("sweep opportunities: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep opportunities rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit opportunity sweep: %w", err)
	}
	return deleted, nil
}
