package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/repository"
	"github.com/noah-isme/course-registration-api/internal/seed"
)

var errDiskFull = errors.New("disk full")

// flakyStore is a memory store whose writes can be made to fail per key prefix.
type flakyStore struct {
	*repository.MemoryStore
	mu      sync.Mutex
	failing []string
	puts    int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: repository.NewMemoryStore()}
}

func (f *flakyStore) failWrites(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = append(f.failing, prefix)
}

func (f *flakyStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = nil
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.puts++
	for _, prefix := range f.failing {
		if strings.HasPrefix(key, prefix) {
			f.mu.Unlock()
			return errDiskFull
		}
	}
	f.mu.Unlock()
	return f.MemoryStore.Put(ctx, key, value)
}

type fixture struct {
	ctx     context.Context
	store   *flakyStore
	regs    *RegistrationService
	drops   *DropRequestService
	catalog *CatalogService
	enroll  *EnrollmentService
	seed    map[string]models.Course
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, newFlakyStore())
}

func newFixtureWithStore(t *testing.T, store *flakyStore) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	regs := NewRegistrationService(repository.NewRegistrationRepository(store, ""), nil, logger)
	drops := NewDropRequestService(repository.NewDropRequestRepository(store, ""), regs, nil, logger)
	catalog := NewCatalogService(repository.NewCatalogRepository(store, ""), regs, drops, nil, logger)

	courses, err := seed.DefaultCatalog()
	require.NoError(t, err)
	require.NoError(t, catalog.Init(ctx, courses))

	byCode := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		byCode[c.Code] = c
	}
	return &fixture{
		ctx:     ctx,
		store:   store,
		regs:    regs,
		drops:   drops,
		catalog: catalog,
		enroll:  NewEnrollmentService(catalog, regs),
		seed:    byCode,
	}
}

func (f *fixture) course(t *testing.T, code string) models.Course {
	t.Helper()
	c, ok := f.seed[code]
	require.True(t, ok, code)
	return c
}

func (f *fixture) register(t *testing.T, studentID string, codes ...string) {
	t.Helper()
	for _, code := range codes {
		_, err := f.regs.Register(f.ctx, studentID, f.course(t, code))
		require.NoError(t, err, code)
	}
}

func codesOf(courses []models.Course) []string {
	codes := make([]string, len(courses))
	for i, c := range courses {
		codes[i] = c.Code
	}
	return codes
}
