package service

import (
	"context"

	"github.com/noah-isme/course-registration-api/internal/models"
)

type dashboardCatalog interface {
	All(ctx context.Context) ([]models.Course, error)
	Count(ctx context.Context) (int, error)
}

type dashboardDropRequests interface {
	Counts(ctx context.Context) (map[models.DropRequestStatus]int, error)
	PendingFor(ctx context.Context, studentID string) ([]models.DropRequest, error)
}

type dashboardRegistrations interface {
	Courses(ctx context.Context, studentID string) ([]models.Course, error)
}

// DashboardService composes the administrator and student overviews.
type DashboardService struct {
	catalog       dashboardCatalog
	dropRequests  dashboardDropRequests
	registrations dashboardRegistrations
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(catalog dashboardCatalog, dropRequests dashboardDropRequests, registrations dashboardRegistrations) *DashboardService {
	return &DashboardService{catalog: catalog, dropRequests: dropRequests, registrations: registrations}
}

// Admin returns catalog totals, the per-day distribution and drop request counts by status.
func (s *DashboardService) Admin(ctx context.Context) (*models.Dashboard, error) {
	courses, err := s.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.dropRequests.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Dashboard{
		TotalCourses:   len(courses),
		TotalCredits:   models.TotalCredits(courses),
		Instructors:    models.DistinctInstructors(courses),
		CoursesByDay:   models.CoursesByDay(courses),
		PendingDrops:   counts[models.DropRequestPending],
		ApprovedDrops:  counts[models.DropRequestApproved],
		RejectedDrops:  counts[models.DropRequestRejected],
		CancelledDrops: counts[models.DropRequestCancelled],
	}, nil
}

// Student returns the registered load of one student next to the catalog size.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	courses, err := s.registrations.Courses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	available, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.dropRequests.PendingFor(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &models.StudentDashboard{
		TotalCourses:     len(courses),
		TotalCredits:     models.TotalCredits(courses),
		WeeklyMinutes:    models.WeeklyMinutes(courses),
		AvailableCourses: available,
		CoursesByDay:     models.CoursesByDay(courses),
		PendingDrops:     len(pending),
	}, nil
}
