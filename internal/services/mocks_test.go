package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/temic137/forms-sub004/internal/cache"
	"github.com/temic137/forms-sub004/internal/events"
	"github.com/temic137/forms-sub004/internal/models"
	"github.com/temic137/forms-sub004/internal/repositories"
	"github.com/temic137/forms-sub004/internal/validator"
)

// MockFormRepository is a mock implementation of FormRepository
type MockFormRepository struct {
	mock.Mock
}

func (m *MockFormRepository) Create(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	args := m.Called(ctx, tx, form)
	return args.Error(0)
}

func (m *MockFormRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Form, error) {
	args := m.Called(ctx, tx, id)
	if form := args.Get(0); form != nil {
		return form.(*models.Form), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFormRepository) Update(ctx context.Context, tx *gorm.DB, form *models.Form) error {
	args := m.Called(ctx, tx, form)
	return args.Error(0)
}

func (m *MockFormRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockFormRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	args := m.Called(ctx, tx, filters)
	return args.Get(0).([]*models.Form), args.Get(1).(int64), args.Error(2)
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	args := m.Called(ctx, tx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	args := m.Called(ctx, tx, id)
	if sub := args.Get(0); sub != nil {
		return sub.(*models.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) ListByForm(ctx context.Context, tx *gorm.DB, formID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, tx, formID, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}

func (m *MockSubmissionRepository) CountByForm(ctx context.Context, tx *gorm.DB, formID uint) (int64, error) {
	args := m.Called(ctx, tx, formID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubmissionRepository) GetStats(ctx context.Context, tx *gorm.DB, formID uint) (*repositories.SubmissionStats, error) {
	args := m.Called(ctx, tx, formID)
	if stats := args.Get(0); stats != nil {
		return stats.(*repositories.SubmissionStats), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRepository wires the mock repositories together
type MockRepository struct {
	forms       *MockFormRepository
	submissions *MockSubmissionRepository
}

func (m *MockRepository) Form() repositories.FormRepository             { return m.forms }
func (m *MockRepository) Submission() repositories.SubmissionRepository { return m.submissions }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// memoryCache is an in-process cache.CacheService with JSON round trips.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	b, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// testEnv bundles the collaborators shared by the service tests.
type testEnv struct {
	repo        *MockRepository
	forms       *MockFormRepository
	submissions *MockSubmissionRepository
	mem         *memoryCache
	formCache   cache.FormCache
	sessions    cache.SessionStore
	publisher   *events.MockEventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	forms := &MockFormRepository{}
	submissions := &MockSubmissionRepository{}
	mem := newMemoryCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Cleanup(func() {
		forms.AssertExpectations(t)
		submissions.AssertExpectations(t)
	})

	return &testEnv{
		repo:        &MockRepository{forms: forms, submissions: submissions},
		forms:       forms,
		submissions: submissions,
		mem:         mem,
		formCache:   cache.NewFormCache(mem, time.Minute),
		sessions:    cache.NewSessionStore(mem, time.Hour),
		publisher:   events.NewMockEventPublisher(logger),
		logger:      logger,
		validator:   validator.New(),
	}
}

func (e *testEnv) formService() FormService {
	return NewFormService(e.repo, e.formCache, e.sessions, e.publisher, e.logger, e.validator)
}

func (e *testEnv) runtimeService() RuntimeService {
	return NewRuntimeService(e.repo, e.formCache, e.sessions, e.publisher, e.logger, e.validator)
}

func (e *testEnv) submissionService() SubmissionService {
	return NewSubmissionService(e.repo, e.logger)
}

func newForm(t *testing.T, id uint, status models.FormStatus, def models.FormDefinition) *models.Form {
	t.Helper()
	form := &models.Form{
		ID:        id,
		Title:     "Form",
		Status:    status,
		CreatedBy: "author-1",
		Version:   1,
	}
	require.NoError(t, form.SetDefinition(def))
	return form
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }
