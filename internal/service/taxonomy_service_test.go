package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-hub-api/internal/models"
	appErrors "github.com/noah-isme/campus-hub-api/pkg/errors"
)

type mockTaxonomyRepo struct {
	branches  []models.Branch
	years     []models.AcademicYear
	semesters []models.Semester
	affected  int64
	loadCalls int

	lastKind   models.TaxonomyKind
	lastActive bool
}

func (m *mockTaxonomyRepo) ListBranches(ctx context.Context, activeOnly bool) ([]models.Branch, error) {
	m.loadCalls++
	return m.branches, nil
}

func (m *mockTaxonomyRepo) ListYears(ctx context.Context, activeOnly bool) ([]models.AcademicYear, error) {
	return m.years, nil
}

func (m *mockTaxonomyRepo) ListSemesters(ctx context.Context, activeOnly bool) ([]models.Semester, error) {
	return m.semesters, nil
}

func (m *mockTaxonomyRepo) SetActive(ctx context.Context, kind models.TaxonomyKind, id string, active bool) (int64, error) {
	m.lastKind = kind
	m.lastActive = active
	return m.affected, nil
}

// memoryCache mimics the redis-backed repository with in-process storage.
type memoryCache struct {
	entries map[string][]byte
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.deletes++
	for key := range c.entries {
		delete(c.entries, key)
	}
	return nil
}

func TestTaxonomyListActiveCachesSnapshot(t *testing.T) {
	repo := &mockTaxonomyRepo{branches: []models.Branch{{ID: "b1", Code: "CSE", Name: "Computer Science", IsActive: true}}}
	cache := newMemoryCache()
	svc := NewTaxonomyService(repo, cache, nil, nil, zap.NewNop(), time.Minute)

	first, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Branches, 1)
	assert.Equal(t, 1, repo.loadCalls)

	second, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, second.Branches, 1)
	assert.Equal(t, 1, repo.loadCalls, "second read must be served from cache")
}

func TestTaxonomySetActiveInvalidatesCache(t *testing.T) {
	repo := &mockTaxonomyRepo{affected: 1}
	cache := newMemoryCache()
	audit := &mockAudit{}
	svc := NewTaxonomyService(repo, cache, audit, nil, zap.NewNop(), time.Minute)

	_, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, cache.entries)

	require.NoError(t, svc.SetActive(context.Background(), models.TaxonomyKindBranch, "b1", false, "admin", "", ""))
	assert.Empty(t, cache.entries)
	assert.Equal(t, models.TaxonomyKindBranch, repo.lastKind)
	assert.False(t, repo.lastActive)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionTaxonomyToggle, audit.logs[0].Action)

	// next read reloads
	_, err = svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loadCalls)
}

func TestTaxonomySetActiveUnknownEntry(t *testing.T) {
	repo := &mockTaxonomyRepo{affected: 0}
	svc := NewTaxonomyService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	err := svc.SetActive(context.Background(), models.TaxonomyKindYear, "missing", true, "admin", "", "")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTaxonomySetActiveRejectsUnknownKind(t *testing.T) {
	svc := NewTaxonomyService(&mockTaxonomyRepo{}, nil, nil, nil, zap.NewNop(), time.Minute)
	err := svc.SetActive(context.Background(), models.TaxonomyKind("faculty"), "id", true, "admin", "", "")
	require.Error(t, err)
}

func TestTaxonomyListActiveWithoutCache(t *testing.T) {
	repo := &mockTaxonomyRepo{}
	svc := NewTaxonomyService(repo, nil, nil, nil, zap.NewNop(), time.Minute)

	snapshot, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Branches)
	assert.NotNil(t, snapshot.Years)
	assert.NotNil(t, snapshot.Semesters)
}
