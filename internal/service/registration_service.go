package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type registrationRepository interface {
	Load(ctx context.Context, studentID string) ([]models.Course, error)
	Save(ctx context.Context, studentID string, courses []models.Course) error
	StudentIDs(ctx context.Context) ([]string, error)
}

type registrationMetrics interface {
	RecordRegistration(outcome string)
}

// CommitFunc completes a cross-entity change after the registration set was persisted.
// A non-nil error rolls the persisted set back.
type CommitFunc func(ctx context.Context) error

type registrationSet struct {
	mu      sync.Mutex
	loaded  bool
	courses []models.Course
}

// RegistrationService owns every student's registration set. Each set is guarded by its own
// mutex and is persisted before any change becomes visible in memory.
type RegistrationService struct {
	repo    registrationRepository
	metrics registrationMetrics
	logger  *zap.Logger

	mu   sync.Mutex
	sets map[string]*registrationSet
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(repo registrationRepository, metrics registrationMetrics, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		sets:    make(map[string]*registrationSet),
	}
}

func (s *RegistrationService) set(studentID string) *registrationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[studentID]
	if !ok {
		set = &registrationSet{}
		s.sets[studentID] = set
	}
	return set
}

// load restores the set from the store. Callers hold set.mu.
func (s *RegistrationService) load(ctx context.Context, studentID string, set *registrationSet) error {
	if set.loaded {
		return nil
	}
	courses, err := s.repo.Load(ctx, studentID)
	if err != nil {
		return appErrors.Persistence(err, "failed to load registrations")
	}
	if err := validateSet(courses); err != nil {
		return appErrors.Persistence(err, "stored registrations are inconsistent")
	}
	set.courses = courses
	set.loaded = true
	return nil
}

func (s *RegistrationService) withSet(ctx context.Context, studentID string, fn func(set *registrationSet) error) error {
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "student identity required")
	}
	set := s.set(studentID)
	set.mu.Lock()
	defer set.mu.Unlock()
	if err := s.load(ctx, studentID, set); err != nil {
		return err
	}
	return fn(set)
}

// persist writes next after reaffirming the set invariants.
func (s *RegistrationService) persist(ctx context.Context, studentID string, next []models.Course) error {
	if err := validateSet(next); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "registration set invariant violated")
	}
	if err := s.repo.Save(ctx, studentID, next); err != nil {
		return appErrors.Persistence(err, "failed to save registrations")
	}
	return nil
}

// Restore loads the student's persisted set, typically at session start.
func (s *RegistrationService) Restore(ctx context.Context, studentID string) (*models.ScheduleSummary, error) {
	return s.Summary(ctx, studentID)
}

// Release forgets the in-memory set of a student ending their session. The persisted set is kept.
func (s *RegistrationService) Release(studentID string) {
	s.mu.Lock()
	set, ok := s.sets[studentID]
	s.mu.Unlock()
	if !ok {
		return
	}
	set.mu.Lock()
	set.loaded = false
	set.courses = nil
	set.mu.Unlock()
}

// Register adds course to the student's set.
func (s *RegistrationService) Register(ctx context.Context, studentID string, course models.Course) (*models.ScheduleSummary, error) {
	var summary *models.ScheduleSummary
	err := s.withSet(ctx, studentID, func(set *registrationSet) error {
		if indexOfCourse(set.courses, course.ID) >= 0 {
			return appErrors.Clone(appErrors.ErrAlreadyRegistered, fmt.Sprintf("already registered for %s", course.Code))
		}
		result, err := CheckConflict(set.courses, course)
		if err != nil {
			return err
		}
		if result.HasConflict {
			return newTimeConflictError(course, *result.ConflictingCourse)
		}

		next := append(cloneCourses(set.courses), course)
		if err := s.persist(ctx, studentID, next); err != nil {
			return err
		}
		set.courses = next
		summary = newSummary(studentID, next)
		return nil
	})
	s.recordOutcome(err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("course registered", zap.String("student_id", studentID), zap.Int64("course_id", course.ID), zap.String("code", course.Code))
	return summary, nil
}

func (s *RegistrationService) recordOutcome(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "registered"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.RecordRegistration(outcome)
}

// Unregister removes courseID from the student's set.
func (s *RegistrationService) Unregister(ctx context.Context, studentID string, courseID int64) (*models.ScheduleSummary, error) {
	var summary *models.ScheduleSummary
	err := s.withSet(ctx, studentID, func(set *registrationSet) error {
		idx := indexOfCourse(set.courses, courseID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotRegistered, fmt.Sprintf("course %d is not registered", courseID))
		}
		next := withoutCourse(set.courses, idx)
		if err := s.persist(ctx, studentID, next); err != nil {
			return err
		}
		set.courses = next
		summary = newSummary(studentID, next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("course unregistered", zap.String("student_id", studentID), zap.Int64("course_id", courseID))
	return summary, nil
}

// Courses returns a copy of the student's registered courses in insertion order.
func (s *RegistrationService) Courses(ctx context.Context, studentID string) ([]models.Course, error) {
	var courses []models.Course
	err := s.withSet(ctx, studentID, func(set *registrationSet) error {
		courses = cloneCourses(set.courses)
		return nil
	})
	return courses, err
}

// Contains reports whether courseID is registered.
func (s *RegistrationService) Contains(ctx context.Context, studentID string, courseID int64) (bool, error) {
	courses, err := s.Courses(ctx, studentID)
	if err != nil {
		return false, err
	}
	return indexOfCourse(courses, courseID) >= 0, nil
}

// HasConflictIfAdded probes whether registering course would fail with a time conflict. It never mutates state.
func (s *RegistrationService) HasConflictIfAdded(ctx context.Context, studentID string, course models.Course) (*models.ConflictResult, error) {
	courses, err := s.Courses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	result, err := CheckConflict(courses, course)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Summary returns the registered courses with their credit total.
func (s *RegistrationService) Summary(ctx context.Context, studentID string) (*models.ScheduleSummary, error) {
	courses, err := s.Courses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return newSummary(studentID, courses), nil
}

// Annotate marks each catalog course with the student's registration and conflict state.
func (s *RegistrationService) Annotate(ctx context.Context, studentID string, catalog []models.Course) ([]models.CatalogEntry, error) {
	courses, err := s.Courses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	entries := make([]models.CatalogEntry, 0, len(catalog))
	for _, course := range catalog {
		entry := models.CatalogEntry{Course: course}
		if indexOfCourse(courses, course.ID) >= 0 {
			entry.Registered = true
		} else {
			result, err := CheckConflict(courses, course)
			if err != nil {
				return nil, err
			}
			entry.Conflict = result.HasConflict
			entry.ConflictsWith = result.ConflictingCourse
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RemoveForDrop removes courseID from the student's set as part of drop approval. The set is
// persisted, then commit runs; the in-memory set changes only when both succeed. A course that
// is no longer registered leaves the set untouched and commit still runs.
func (s *RegistrationService) RemoveForDrop(ctx context.Context, studentID string, courseID int64, commit CommitFunc) (bool, error) {
	removed := false
	err := s.withSet(ctx, studentID, func(set *registrationSet) error {
		idx := indexOfCourse(set.courses, courseID)
		if idx < 0 {
			return commit(ctx)
		}
		next := withoutCourse(set.courses, idx)
		if err := s.persist(ctx, studentID, next); err != nil {
			return err
		}
		if err := commit(ctx); err != nil {
			s.rollback(ctx, studentID, set.courses)
			return err
		}
		set.courses = next
		removed = true
		return nil
	})
	return removed, err
}

// EvictCourse removes courseID from every student's set, then runs commit. When commit fails
// every touched set is restored.
func (s *RegistrationService) EvictCourse(ctx context.Context, courseID int64, commit CommitFunc) ([]string, error) {
	return s.applyAll(ctx, commit, func(_ string, courses []models.Course) ([]models.Course, bool, error) {
		idx := indexOfCourse(courses, courseID)
		if idx < 0 {
			return nil, false, nil
		}
		return withoutCourse(courses, idx), true, nil
	})
}

// RefreshCourse replaces the stored copy of an edited catalog course in every set holding it,
// then runs commit. The edit is refused with a time conflict when it would overlap another
// course of any affected student.
func (s *RegistrationService) RefreshCourse(ctx context.Context, course models.Course, commit CommitFunc) ([]string, error) {
	return s.applyAll(ctx, commit, func(studentID string, courses []models.Course) ([]models.Course, bool, error) {
		idx := indexOfCourse(courses, course.ID)
		if idx < 0 {
			return nil, false, nil
		}
		result, err := CheckConflict(courses, course)
		if err != nil {
			return nil, false, err
		}
		if result.HasConflict {
			conflictErr := newTimeConflictError(course, *result.ConflictingCourse)
			var appErr *appErrors.Error
			if errors.As(conflictErr, &appErr) {
				appErr.Message = fmt.Sprintf("update would make %s conflict with %s for student %s", course.Code, result.ConflictingCourse.Label(), studentID)
			}
			return nil, false, conflictErr
		}
		next := cloneCourses(courses)
		next[idx] = course
		return next, true, nil
	})
}

type setChange struct {
	studentID string
	set       *registrationSet
	next      []models.Course
}

// applyAll locks every known set in student id order, computes all changes before persisting
// any of them, persists, runs commit and finally swaps the in-memory sets.
func (s *RegistrationService) applyAll(ctx context.Context, commit CommitFunc, change func(studentID string, courses []models.Course) ([]models.Course, bool, error)) ([]string, error) {
	ids, err := s.knownStudents(ctx)
	if err != nil {
		return nil, err
	}

	sets := make([]*registrationSet, len(ids))
	for i, id := range ids {
		sets[i] = s.set(id)
		sets[i].mu.Lock()
	}
	defer func() {
		for i := len(sets) - 1; i >= 0; i-- {
			sets[i].mu.Unlock()
		}
	}()

	var changes []setChange
	for i, id := range ids {
		if err := s.load(ctx, id, sets[i]); err != nil {
			return nil, err
		}
		next, changed, err := change(id, sets[i].courses)
		if err != nil {
			return nil, err
		}
		if changed {
			changes = append(changes, setChange{studentID: id, set: sets[i], next: next})
		}
	}

	for i, ch := range changes {
		if err := s.persist(ctx, ch.studentID, ch.next); err != nil {
			for _, done := range changes[:i] {
				s.rollback(ctx, done.studentID, done.set.courses)
			}
			return nil, err
		}
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			for _, done := range changes {
				s.rollback(ctx, done.studentID, done.set.courses)
			}
			return nil, err
		}
	}

	affected := make([]string, 0, len(changes))
	for _, ch := range changes {
		ch.set.courses = ch.next
		affected = append(affected, ch.studentID)
	}
	return affected, nil
}

func (s *RegistrationService) knownStudents(ctx context.Context) ([]string, error) {
	stored, err := s.repo.StudentIDs(ctx)
	if err != nil {
		return nil, appErrors.Persistence(err, "failed to list registered students")
	}
	unique := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		unique[id] = struct{}{}
	}
	s.mu.Lock()
	for id := range s.sets {
		unique[id] = struct{}{}
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// rollback restores a previously persisted set after a later step failed.
func (s *RegistrationService) rollback(ctx context.Context, studentID string, courses []models.Course) {
	if err := s.repo.Save(ctx, studentID, courses); err != nil {
		s.logger.Error("failed to roll back registrations", zap.String("student_id", studentID), zap.Error(err))
	}
}

func newSummary(studentID string, courses []models.Course) *models.ScheduleSummary {
	return &models.ScheduleSummary{
		StudentID:    studentID,
		Courses:      cloneCourses(courses),
		TotalCredits: models.TotalCredits(courses),
	}
}
