package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

func TestListBranchesActiveOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaxonomyRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "is_active", "sort_order"}).
		AddRow("b-1", "CSE", "Computer Science", true, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, is_active, sort_order FROM branches")).
		WillReturnRows(rows)

	branches, err := repo.ListBranches(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "CSE", branches[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveRoutesToKindTable(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaxonomyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE academic_years SET is_active = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.SetActive(context.Background(), models.TaxonomyKindYear, "y-1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveUnknownKind(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewTaxonomyRepository(db)

	_, err := repo.SetActive(context.Background(), models.TaxonomyKind("campus"), "id", true)
	require.Error(t, err)
}
