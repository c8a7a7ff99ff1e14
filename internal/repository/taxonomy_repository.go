package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

// TaxonomyRepository reads the branch/year/semester registration hierarchy
// and flips activation flags. The hierarchy is reference data: the activation
// toggle is its only writer.
type TaxonomyRepository struct {
	db *sqlx.DB
}

// NewTaxonomyRepository creates the repository.
func NewTaxonomyRepository(db *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListBranches returns branches in display order, optionally active only.
func (r *TaxonomyRepository) ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	query := `SELECT id, code, name, is_active, sort_order FROM branches`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, code ASC`
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// ListYears returns academic years in display order, optionally active only.
func (r *TaxonomyRepository) ListYears(ctx context.Context, activeOnly bool) ([]models.AcademicYear, error) {
	query := `SELECT id, number, is_active, sort_order FROM academic_years`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, number ASC`
	var years []models.AcademicYear
	if err := r.db.SelectContext(ctx, &years, query); err != nil {
		return nil, fmt.Errorf("list academic years: %w", err)
	}
	return years, nil
}

// ListSemesters returns semesters in display order, optionally active only.
func (r *TaxonomyRepository) ListSemesters(ctx context.Context, activeOnly bool) ([]models.Semester, error) {
	query := `SELECT id, number, year_number, is_active, sort_order FROM semesters`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, number ASC`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// SetActive flips the activation flag for one hierarchy entry. Returns the
// number of rows touched so callers can detect a missing identifier.
func (r *TaxonomyRepository) SetActive(ctx context.Context, kind models.TaxonomyKind, id string, active bool) (int64, error) {
	var table string
	switch kind {
	case models.TaxonomyKindBranch:
		table = "branches"
	case models.TaxonomyKindYear:
		table = "academic_years"
	case models.TaxonomyKindSemester:
		table = "semesters"
	default:
		return 0, fmt.Errorf("unknown taxonomy kind %q", kind)
	}
	query := fmt.Sprintf("UPDATE %s SET is_active = $2, updated_at = $3 WHERE id = $1", table)
	res, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("set %s active: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set %s active rows affected: %w", kind, err)
	}
	return affected, nil
}
