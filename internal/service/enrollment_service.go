package service

import (
	"context"

	"github.com/noah-isme/course-registration-api/internal/models"
)

type enrollmentCatalog interface {
	WithCourse(ctx context.Context, id int64, fn func(course models.Course) error) error
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, *models.Pagination, error)
}

type enrollmentRegistrations interface {
	Register(ctx context.Context, studentID string, course models.Course) (*models.ScheduleSummary, error)
	HasConflictIfAdded(ctx context.Context, studentID string, course models.Course) (*models.ConflictResult, error)
	Annotate(ctx context.Context, studentID string, catalog []models.Course) ([]models.CatalogEntry, error)
}

// EnrollmentService resolves catalog ids for student registration flows.
type EnrollmentService struct {
	catalog       enrollmentCatalog
	registrations enrollmentRegistrations
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(catalog enrollmentCatalog, registrations enrollmentRegistrations) *EnrollmentService {
	return &EnrollmentService{catalog: catalog, registrations: registrations}
}

// Register registers the student for a catalog course. The catalog entry stays locked
// against edits until the registration is stored.
func (s *EnrollmentService) Register(ctx context.Context, studentID string, courseID int64) (*models.ScheduleSummary, error) {
	var summary *models.ScheduleSummary
	err := s.catalog.WithCourse(ctx, courseID, func(course models.Course) error {
		var err error
		summary, err = s.registrations.Register(ctx, studentID, course)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// CheckConflict probes a catalog course against the student's set.
func (s *EnrollmentService) CheckConflict(ctx context.Context, studentID string, courseID int64) (*models.ConflictResult, error) {
	var result *models.ConflictResult
	err := s.catalog.WithCourse(ctx, courseID, func(course models.Course) error {
		var err error
		result, err = s.registrations.HasConflictIfAdded(ctx, studentID, course)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Catalog lists the filtered catalog annotated for the student.
func (s *EnrollmentService) Catalog(ctx context.Context, studentID string, filter models.CatalogFilter) ([]models.CatalogEntry, *models.Pagination, error) {
	courses, pagination, err := s.catalog.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.registrations.Annotate(ctx, studentID, courses)
	if err != nil {
		return nil, nil, err
	}
	return entries, pagination, nil
}
