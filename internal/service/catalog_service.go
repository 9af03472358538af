package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/clock"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

const (
	defaultCatalogPageSize = 50
	maxCatalogPageSize     = 100
)

type catalogRepository interface {
	Load(ctx context.Context) ([]models.Course, bool, error)
	Save(ctx context.Context, courses []models.Course) error
	LoadNextID(ctx context.Context) (int64, error)
	SaveNextID(ctx context.Context, next int64) error
}

type catalogRegistrations interface {
	EvictCourse(ctx context.Context, courseID int64, commit CommitFunc) ([]string, error)
	RefreshCourse(ctx context.Context, course models.Course, commit CommitFunc) ([]string, error)
}

type catalogDropRequests interface {
	CancelPendingForCourse(ctx context.Context, courseID int64, actorID string, commit CommitFunc) ([]models.DropRequest, error)
}

// CatalogService maintains the course catalog and reconciles registrations and pending
// drop requests when a course is edited or deleted.
type CatalogService struct {
	repo          catalogRepository
	registrations catalogRegistrations
	dropRequests  catalogDropRequests
	validator     *validator.Validate
	logger        *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	courses []models.Course
	nextID  int64
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo catalogRepository, registrations catalogRegistrations, dropRequests catalogDropRequests, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:          repo,
		registrations: registrations,
		dropRequests:  dropRequests,
		validator:     validate,
		logger:        logger,
	}
}

// Init loads the stored catalog, saving seed first when no catalog was ever stored.
func (s *CatalogService) Init(ctx context.Context, seed []models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	courses, found, err := s.repo.Load(ctx)
	if err != nil {
		return appErrors.Persistence(err, "failed to load catalog")
	}
	if !found {
		courses = cloneCourses(seed)
		if err := s.repo.Save(ctx, courses); err != nil {
			return appErrors.Persistence(err, "failed to seed catalog")
		}
		s.logger.Info("catalog seeded", zap.Int("courses", len(courses)))
	}
	return s.setLoaded(ctx, courses)
}

// setLoaded installs courses and restores the id sequence. Ids of deleted courses are
// never handed out again.
func (s *CatalogService) setLoaded(ctx context.Context, courses []models.Course) error {
	next, err := s.repo.LoadNextID(ctx)
	if err != nil {
		return appErrors.Persistence(err, "failed to load catalog id sequence")
	}
	for _, c := range courses {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	if next < 1 {
		next = 1
	}
	s.courses = courses
	s.nextID = next
	s.loaded = true
	return nil
}

// ensureLoaded lazily loads the catalog. Callers hold the write lock.
func (s *CatalogService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	courses, _, err := s.repo.Load(ctx)
	if err != nil {
		return appErrors.Persistence(err, "failed to load catalog")
	}
	return s.setLoaded(ctx, courses)
}

// read runs fn under the read lock once the catalog is loaded.
func (s *CatalogService) read(ctx context.Context, fn func(courses []models.Course) error) error {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return fn(s.courses)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.read(ctx, fn)
}

// List returns the filtered catalog page.
func (s *CatalogService) List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultCatalogPageSize
	}
	if filter.PageSize > maxCatalogPageSize {
		filter.PageSize = maxCatalogPageSize
	}

	var matched []models.Course
	err := s.read(ctx, func(courses []models.Course) error {
		matched = make([]models.Course, 0, len(courses))
		for _, c := range courses {
			if filter.Matches(c) {
				matched = append(matched, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// All returns the whole catalog.
func (s *CatalogService) All(ctx context.Context) ([]models.Course, error) {
	var all []models.Course
	err := s.read(ctx, func(courses []models.Course) error {
		all = cloneCourses(courses)
		return nil
	})
	return all, err
}

// Get returns a course by id.
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Course, error) {
	var course *models.Course
	err := s.WithCourse(ctx, id, func(c models.Course) error {
		course = &c
		return nil
	})
	return course, err
}

// WithCourse runs fn with the course while holding the catalog read lock, so the course
// cannot be edited or deleted until fn returns.
func (s *CatalogService) WithCourse(ctx context.Context, id int64, fn func(course models.Course) error) error {
	return s.read(ctx, func(courses []models.Course) error {
		idx := indexOfCourse(courses, id)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", id))
		}
		return fn(courses[idx])
	})
}

// Count returns the number of catalog courses.
func (s *CatalogService) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.read(ctx, func(courses []models.Course) error {
		count = len(courses)
		return nil
	})
	return count, err
}

// buildCourse validates draft and returns the course with normalised times.
func (s *CatalogService) buildCourse(id int64, draft dto.CourseDraft) (models.Course, error) {
	if err := s.validator.Struct(draft); err != nil {
		return models.Course{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := draft.ToCourse(id)
	interval, err := course.Interval()
	if err != nil {
		return models.Course{}, err
	}
	course.StartTime = clock.FormatMinutes(interval.Start)
	course.EndTime = clock.FormatMinutes(interval.End)
	return course, nil
}

// Add creates a course with the next id from the sequence. The sequence advances before the
// catalog is written, so a failed save burns the id rather than reusing it.
func (s *CatalogService) Add(ctx context.Context, draft dto.CourseDraft) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	course, err := s.buildCourse(s.nextID, draft)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveNextID(ctx, course.ID+1); err != nil {
		return nil, appErrors.Persistence(err, "failed to save catalog id sequence")
	}
	s.nextID = course.ID + 1

	next := append(cloneCourses(s.courses), course)
	if err := s.repo.Save(ctx, next); err != nil {
		return nil, appErrors.Persistence(err, "failed to save catalog")
	}
	s.courses = next
	s.logger.Info("course added", zap.Int64("course_id", course.ID), zap.String("code", course.Code))
	return &course, nil
}

// Update replaces a course keeping its id and refreshes every registration holding it.
func (s *CatalogService) Update(ctx context.Context, id int64, draft dto.CourseDraft) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := indexOfCourse(s.courses, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", id))
	}
	course, err := s.buildCourse(id, draft)
	if err != nil {
		return nil, err
	}
	next := cloneCourses(s.courses)
	next[idx] = course

	affected, err := s.registrations.RefreshCourse(ctx, course, s.saveCommit(next))
	if err != nil {
		return nil, err
	}
	s.courses = next
	s.logger.Info("course updated", zap.Int64("course_id", id), zap.Int("registrations_refreshed", len(affected)))
	return &course, nil
}

// Delete removes a course, evicting it from every registration set and cancelling pending
// drop requests for it. Resolved drop history keeps its snapshot.
func (s *CatalogService) Delete(ctx context.Context, id int64, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := indexOfCourse(s.courses, id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", id))
	}
	next := withoutCourse(s.courses, idx)

	var evicted []string
	cancelled, err := s.dropRequests.CancelPendingForCourse(ctx, id, actorID, func(ctx context.Context) error {
		var err error
		evicted, err = s.registrations.EvictCourse(ctx, id, s.saveCommit(next))
		return err
	})
	if err != nil {
		return err
	}
	s.courses = next
	s.logger.Info("course deleted",
		zap.Int64("course_id", id),
		zap.Int("registrations_evicted", len(evicted)),
		zap.Int("drops_cancelled", len(cancelled)),
	)
	return nil
}

func (s *CatalogService) saveCommit(next []models.Course) CommitFunc {
	return func(ctx context.Context) error {
		if err := s.repo.Save(ctx, next); err != nil {
			return appErrors.Persistence(err, "failed to save catalog")
		}
		return nil
	}
}
