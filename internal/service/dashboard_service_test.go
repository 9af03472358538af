package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func TestDashboardAdminTotals(t *testing.T) {
	f := newFixture(t)
	fixedClock(f)
	f.register(t, "s1", "CS101", "PHYS101")
	a, err := f.drops.Request(f.ctx, student, f.course(t, "CS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Request(f.ctx, student, f.course(t, "PHYS101").ID)
	require.NoError(t, err)
	_, err = f.drops.Reject(f.ctx, a.ID, "admin-1")
	require.NoError(t, err)

	dashboard, err := NewDashboardService(f.catalog, f.drops, f.regs).Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.Dashboard{
		TotalCourses: 10,
		TotalCredits: 32,
		Instructors:  10,
		CoursesByDay: map[models.Weekday]int{
			models.Monday:    3,
			models.Tuesday:   2,
			models.Wednesday: 2,
			models.Thursday:  2,
			models.Friday:    1,
		},
		PendingDrops:  1,
		RejectedDrops: 1,
	}, dashboard)
}

func TestDashboardAdminFollowsCatalogEdits(t *testing.T) {
	f := newFixture(t)
	course, err := f.catalog.Add(f.ctx, validDraft())
	require.NoError(t, err)

	svc := NewDashboardService(f.catalog, f.drops, f.regs)
	dashboard, err := svc.Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, dashboard.TotalCourses)
	assert.Equal(t, 36, dashboard.TotalCredits)
	assert.Equal(t, 2, dashboard.CoursesByDay[models.Friday])

	require.NoError(t, f.catalog.Delete(f.ctx, course.ID, "admin-1"))
	dashboard, err = svc.Admin(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.CoursesByDay[models.Friday])
}

func TestDashboardStudentLoad(t *testing.T) {
	f := newFixture(t)
	fixedClock(f)
	f.register(t, "s1", "CS101", "CS202", "PHYS101")
	_, err := f.drops.Request(f.ctx, student, f.course(t, "CS202").ID)
	require.NoError(t, err)

	svc := NewDashboardService(f.catalog, f.drops, f.regs)
	dashboard, err := svc.Student(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, dashboard.TotalCourses)
	assert.Equal(t, 10, dashboard.TotalCredits)
	assert.Equal(t, 90+90+120, dashboard.WeeklyMinutes)
	assert.Equal(t, 10, dashboard.AvailableCourses)
	assert.Equal(t, 2, dashboard.CoursesByDay[models.Monday])
	assert.Equal(t, 0, dashboard.CoursesByDay[models.Friday])
	assert.Equal(t, 1, dashboard.PendingDrops)

	empty, err := svc.Student(f.ctx, "s9")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalCourses)
	assert.Len(t, empty.CoursesByDay, len(models.Weekdays))
}

func TestDashboardStudentPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.MemoryStore.Put(f.ctx, "registeredCourses:s1", []byte(`{not json`)))

	_, err := NewDashboardService(f.catalog, f.drops, f.regs).Student(f.ctx, "s1")
	assert.ErrorIs(t, err, appErrors.ErrPersistence)
}
