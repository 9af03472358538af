package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type failingStore struct {
	getErr error
	putErr error
}

func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }
func (f failingStore) Put(context.Context, string, []byte) error { return f.putErr }
func (f failingStore) Keys(context.Context, string) ([]string, error) { return nil, f.getErr }

func TestMemoryStoreGetPutKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrRecordNotFound)

	value := []byte(`[1]`)
	require.NoError(t, store.Put(ctx, "registeredCourses:b", value))
	require.NoError(t, store.Put(ctx, "registeredCourses:a", []byte(`[]`)))
	require.NoError(t, store.Put(ctx, "dropRequests", []byte(`[]`)))
	value[0] = 'x'

	got, err := store.Get(ctx, "registeredCourses:b")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	keys, err := store.Keys(ctx, "registeredCourses:")
	require.NoError(t, err)
	assert.Equal(t, []string{"registeredCourses:a", "registeredCourses:b"}, keys)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewMemoryStore()
	assert.Error(t, store.Put(ctx, "k", []byte("v")))
}

func TestRedisStoreWithoutClient(t *testing.T) {
	store := NewRedisStore(nil, nil)
	_, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, errRedisNotConfigured)
	assert.ErrorIs(t, store.Put(context.Background(), "k", nil), errRedisNotConfigured)
	_, err = store.Keys(context.Background(), "k")
	assert.ErrorIs(t, err, errRedisNotConfigured)
	assert.NoError(t, store.Close())
}

func TestRegistrationRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrationRepository(NewMemoryStore(), "test:")

	empty, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	courses := []models.Course{
		{ID: 1, Code: "CS101", Name: "Introduction to Programming", Instructor: "Dr. Sarah Johnson", Credits: 3, Day: models.Monday, StartTime: "09:00", EndTime: "10:30"},
		{ID: 4, Code: "PHYS101", Name: "Physics for Engineers", Instructor: "Prof. David Kim", Credits: 4, Day: models.Wednesday, StartTime: "14:00", EndTime: "16:00"},
	}
	require.NoError(t, repo.Save(ctx, "s1", courses))
	require.NoError(t, repo.Save(ctx, "s2", nil))

	loaded, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, courses, loaded)

	ids, err := repo.StudentIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)
}

func TestRegistrationRepositoryCorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "registeredCourses:s1", []byte("{not json")))

	_, err := NewRegistrationRepository(store, "").Load(ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode registeredCourses:s1")
}

func TestRepositoriesPropagateStoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store offline")
	store := failingStore{getErr: boom, putErr: boom}

	_, err := NewRegistrationRepository(store, "").Load(ctx, "s1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, NewDropRequestRepository(store, "").Save(ctx, nil), boom)
	_, _, err = NewCatalogRepository(store, "").Load(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestDropRequestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewDropRequestRepository(NewMemoryStore(), "")
	requestedAt := time.Date(2024, 9, 2, 8, 30, 0, 0, time.UTC)
	resolvedAt := requestedAt.Add(time.Hour)

	requests := []models.DropRequest{
		{ID: "a", Course: models.Course{ID: 1, Code: "CS101", Day: models.Monday, StartTime: "09:00", EndTime: "10:30", Credits: 3}, StudentID: "s1", StudentName: "Ana", RequestedAt: requestedAt, Status: models.DropRequestPending},
		{ID: "b", Course: models.Course{ID: 2, Code: "CS102", Day: models.Tuesday, StartTime: "11:00", EndTime: "12:30", Credits: 4}, StudentID: "s1", StudentName: "Ana", RequestedAt: requestedAt, Status: models.DropRequestApproved, ResolvedAt: &resolvedAt, ResolvedBy: "admin-1"},
	}
	require.NoError(t, repo.Save(ctx, requests))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, requests[0].ID, loaded[0].ID)
	assert.True(t, requests[1].ResolvedAt.Equal(*loaded[1].ResolvedAt))
	assert.Equal(t, models.DropRequestApproved, loaded[1].Status)
	assert.Equal(t, requests[1].Course, loaded[1].Course)
}

func TestCatalogRepositoryDistinguishesAbsentFromEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(NewMemoryStore(), "")

	_, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Save(ctx, nil))
	courses, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, courses)
}

func TestCatalogRepositoryNextIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repo := NewCatalogRepository(store, "app:")

	next, err := repo.LoadNextID(ctx)
	require.NoError(t, err)
	assert.Zero(t, next)

	require.NoError(t, repo.SaveNextID(ctx, 12))
	next, err = repo.LoadNextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), next)

	raw, err := store.Get(ctx, "app:courseCatalogNextId")
	require.NoError(t, err)
	assert.Equal(t, "12", string(raw))
}

type recordingObserver struct {
	mu     sync.Mutex
	labels []string
}

func (o *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.labels = append(o.labels, label)
}

func TestInstrumentedStoreReportsOperations(t *testing.T) {
	ctx := context.Background()
	observer := &recordingObserver{}
	store := NewInstrumentedStore(NewMemoryStore(), observer, "memory")

	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	_, _ = store.Get(ctx, "k")
	_, _ = store.Keys(ctx, "")
	assert.Equal(t, []string{"memory_put", "memory_get", "memory_keys"}, observer.labels)

	plain := NewMemoryStore()
	assert.Same(t, plain, NewInstrumentedStore(plain, nil, "memory"))
}
