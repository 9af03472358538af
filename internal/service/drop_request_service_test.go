package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

var student = models.Identity{UserID: "s1", Name: "Ana Putri", Role: models.RoleStudent}

func fixedClock(f *fixture) time.Time {
	at := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	f.drops.now = func() time.Time { return at }
	n := 0
	f.drops.newID = func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	}
	return at
}

func TestDropRequestApproveScenario(t *testing.T) {
	f := newFixture(t)
	at := fixedClock(f)
	f.register(t, "s1", "CS101", "PHYS101")
	cs101 := f.course(t, "CS101")

	request, err := f.drops.Request(f.ctx, student, cs101.ID)
	require.NoError(t, err)
	assert.Equal(t, "req-1", request.ID)
	assert.Equal(t, models.DropRequestPending, request.Status)
	assert.Equal(t, cs101, request.Course)
	assert.Equal(t, "Ana Putri", request.StudentName)
	assert.Equal(t, at, request.RequestedAt)

	pending, err := f.drops.PendingFor(f.ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.drops.Request(f.ctx, student, cs101.ID)
	assert.ErrorIs(t, err, appErrors.ErrDuplicatePending)

	approved, err := f.drops.Approve(f.ctx, request.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.DropRequestApproved, approved.Status)
	require.NotNil(t, approved.ResolvedAt)
	assert.Equal(t, "admin-1", approved.ResolvedBy)

	contains, err := f.regs.Contains(f.ctx, "s1", cs101.ID)
	require.NoError(t, err)
	assert.False(t, contains)

	pending, err = f.drops.PendingFor(f.ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, pending)
	history, err := f.drops.HistoryFor(f.ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.DropRequestApproved, history[0].Status)
	assert.Equal(t, "CS101", history[0].Course.Code)
}

func TestDropRequestRejectKeepsCourse(t *testing.T) {
	f := newFixture(t)
	fixedClock(f)
	f.register(t, "s1", "CS101")
	cs101 := f.course(t, "CS101")

	request, err := f.drops.Request(f.ctx, student, cs101.ID)
	require.NoError(t, err)
	rejected, err := f.drops.Reject(f.ctx, request.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.DropRequestRejected, rejected.Status)

	contains, err := f.regs.Contains(f.ctx, "s1", cs101.ID)
	require.NoError(t, err)
	assert.True(t, contains)

	history, err := f.drops.HistoryFor(f.ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.DropRequestRejected, history[0].Status)

	again, err := f.drops.Request(f.ctx, student, cs101.ID)
	require.NoError(t, err)
	assert.Equal(t, "req-2", again.ID)
}

func TestDropRequestTerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t)
	fixedClock(f)
	f.register(t, "s1", "CS101", "PHYS101")

	first, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Approve(f.ctx, first.ID, "admin-1")
	require.NoError(t, err)

	writes := f.store.puts
	_, err = f.drops.Approve(f.ctx, first.ID, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)
	_, err = f.drops.Reject(f.ctx, first.ID, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)
	assert.Equal(t, writes, f.store.puts)

	second, err := f.drops.Request(f.ctx, student, f.course(t, "PHYS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Reject(f.ctx, second.ID, "admin-1")
	require.NoError(t, err)
	_, err = f.drops.Approve(f.ctx, second.ID, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)

	contains, err := f.regs.Contains(f.ctx, "s1", f.course(t, "PHYS101").ID)
	require.NoError(t, err)
	assert.True(t, contains)
}

func TestDropRequestErrors(t *testing.T) {
	f := newFixture(t)
	f.register(t, "s1", "CS101")

	_, err := f.drops.Request(f.ctx, student, f.course(t, "PHYS101").ID)
	assert.ErrorIs(t, err, appErrors.ErrNotRegistered)

	_, err = f.drops.Approve(f.ctx, "missing", "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.drops.Reject(f.ctx, "missing", "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.drops.Get(f.ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestApproveAfterStudentUnregisteredSucceeds(t *testing.T) {
	f := newFixture(t)
	f.register(t, "s1", "CS101")
	request, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	require.NoError(t, err)

	_, err = f.regs.Unregister(f.ctx, "s1", f.course(t, "CS101").ID)
	require.NoError(t, err)

	approved, err := f.drops.Approve(f.ctx, request.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.DropRequestApproved, approved.Status)
}

func TestApproveIsAtomicWhenLedgerWriteFails(t *testing.T) {
	f := newFixture(t)
	f.register(t, "s1", "CS101")
	cs101 := f.course(t, "CS101")
	request, err := f.drops.Request(f.ctx, student, cs101.ID)
	require.NoError(t, err)

	f.store.failWrites("dropRequests")
	_, err = f.drops.Approve(f.ctx, request.ID, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrPersistence)

	stored, err := f.drops.Get(f.ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DropRequestPending, stored.Status)
	contains, err := f.regs.Contains(f.ctx, "s1", cs101.ID)
	require.NoError(t, err)
	assert.True(t, contains)

	// a fresh process sees the same state as the in-memory one
	f.store.heal()
	reloaded := newFixtureWithStore(t, f.store)
	contains, err = reloaded.regs.Contains(f.ctx, "s1", cs101.ID)
	require.NoError(t, err)
	assert.True(t, contains)
	pending, err := reloaded.drops.PendingFor(f.ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = f.drops.Approve(f.ctx, request.ID, "admin-1")
	require.NoError(t, err)
}

func TestApproveIsAtomicWhenRegistrationWriteFails(t *testing.T) {
	f := newFixture(t)
	f.register(t, "s1", "CS101")
	request, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	require.NoError(t, err)

	f.store.failWrites("registeredCourses:")
	_, err = f.drops.Approve(f.ctx, request.ID, "admin-1")
	assert.ErrorIs(t, err, appErrors.ErrPersistence)

	stored, err := f.drops.Get(f.ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DropRequestPending, stored.Status)
}

func TestRequestPersistenceFailureDoesNotCommit(t *testing.T) {
	f := newFixture(t)
	f.register(t, "s1", "CS101")
	f.store.failWrites("dropRequests")

	_, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	assert.ErrorIs(t, err, appErrors.ErrPersistence)

	all, err := f.drops.List(f.ctx, models.DropRequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConcurrentApproveAppliesOnce(t *testing.T) {
	f := newFixture(t)
	f.register(t, "s1", "CS101")
	request, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.drops.Approve(f.ctx, request.ID, "admin-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, appErrors.ErrAlreadyResolved)
	}
	assert.Equal(t, 1, succeeded)
}

func TestDropRequestCountsAndFilters(t *testing.T) {
	f := newFixture(t)
	fixedClock(f)
	f.register(t, "s1", "CS101", "PHYS101")
	f.register(t, "s2", "CS101")

	a, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Request(f.ctx, student, f.course(t, "PHYS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Request(f.ctx, models.Identity{UserID: "s2", Name: "Budi"}, f.course(t, "CS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Reject(f.ctx, a.ID, "admin-1")
	require.NoError(t, err)

	counts, err := f.drops.Counts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.DropRequestPending])
	assert.Equal(t, 1, counts[models.DropRequestRejected])

	forCourse, err := f.drops.List(f.ctx, models.DropRequestFilter{CourseID: f.course(t, "CS101").ID})
	require.NoError(t, err)
	assert.Len(t, forCourse, 2)
}

func TestCorruptLedgerIsPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.MemoryStore.Put(f.ctx, "dropRequests", []byte(`[
		{"id":"a","course":{"id":1},"studentId":"s1","status":"pending"},
		{"id":"b","course":{"id":1},"studentId":"s1","status":"pending"}
	]`)))

	_, err := f.drops.List(f.ctx, models.DropRequestFilter{})
	assert.ErrorIs(t, err, appErrors.ErrPersistence)
}
