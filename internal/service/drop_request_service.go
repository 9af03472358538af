package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type dropRequestRepository interface {
	Load(ctx context.Context) ([]models.DropRequest, error)
	Save(ctx context.Context, requests []models.DropRequest) error
}

type dropRegistrations interface {
	Courses(ctx context.Context, studentID string) ([]models.Course, error)
	RemoveForDrop(ctx context.Context, studentID string, courseID int64, commit CommitFunc) (bool, error)
}

type dropMetrics interface {
	RecordDropTransition(status string)
}

// DropRequestService is the drop request ledger. Requests are never deleted; each one moves
// from pending to exactly one terminal status.
type DropRequestService struct {
	repo          dropRequestRepository
	registrations dropRegistrations
	metrics       dropMetrics
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string

	mu       sync.Mutex
	loaded   bool
	requests []models.DropRequest
}

// NewDropRequestService constructs the ledger.
func NewDropRequestService(repo dropRequestRepository, registrations dropRegistrations, metrics dropMetrics, logger *zap.Logger) *DropRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DropRequestService{
		repo:          repo,
		registrations: registrations,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// load restores the ledger. Callers hold s.mu.
func (s *DropRequestService) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	requests, err := s.repo.Load(ctx)
	if err != nil {
		return appErrors.Persistence(err, "failed to load drop requests")
	}
	if err := validateLedger(requests); err != nil {
		return appErrors.Persistence(err, "stored drop requests are inconsistent")
	}
	s.requests = requests
	s.loaded = true
	return nil
}

func validateLedger(requests []models.DropRequest) error {
	ids := make(map[string]struct{}, len(requests))
	pending := make(map[string]struct{})
	for _, r := range requests {
		if _, ok := models.ParseDropRequestStatus(string(r.Status)); !ok {
			return fmt.Errorf("drop request %s has unknown status %q", r.ID, r.Status)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("drop request id %s appears more than once", r.ID)
		}
		ids[r.ID] = struct{}{}
		if r.Status != models.DropRequestPending {
			continue
		}
		key := pendingKey(r.StudentID, r.Course.ID)
		if _, dup := pending[key]; dup {
			return fmt.Errorf("student %s has more than one pending request for course %d", r.StudentID, r.Course.ID)
		}
		pending[key] = struct{}{}
	}
	return nil
}

func pendingKey(studentID string, courseID int64) string {
	return fmt.Sprintf("%s/%d", studentID, courseID)
}

func (s *DropRequestService) save(ctx context.Context, next []models.DropRequest) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return appErrors.Persistence(err, "failed to save drop requests")
	}
	return nil
}

func (s *DropRequestService) record(status models.DropRequestStatus) {
	if s.metrics != nil {
		s.metrics.RecordDropTransition(string(status))
	}
}

// Request files a pending drop request for a course the student is registered for.
// The request carries a snapshot of the registered course.
func (s *DropRequestService) Request(ctx context.Context, student models.Identity, courseID int64) (*models.DropRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	courses, err := s.registrations.Courses(ctx, student.UserID)
	if err != nil {
		return nil, err
	}
	idx := indexOfCourse(courses, courseID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotRegistered, fmt.Sprintf("course %d is not registered", courseID))
	}
	course := courses[idx]

	for _, r := range s.requests {
		if r.Status == models.DropRequestPending && r.StudentID == student.UserID && r.Course.ID == courseID {
			return nil, appErrors.Clone(appErrors.ErrDuplicatePending, fmt.Sprintf("drop request for %s is already pending", course.Code))
		}
	}

	request := models.DropRequest{
		ID:          s.newID(),
		Course:      course,
		StudentID:   student.UserID,
		StudentName: student.Name,
		RequestedAt: s.now(),
		Status:      models.DropRequestPending,
	}
	next := append(s.cloneRequests(), request)
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.requests = next
	s.record(models.DropRequestPending)
	s.logger.Info("drop requested", zap.String("request_id", request.ID), zap.String("student_id", request.StudentID), zap.String("code", course.Code))
	return &request, nil
}

// Approve resolves a pending request and removes the course from the requesting student's
// set. The ledger and the set either both change or neither does.
func (s *DropRequestService) Approve(ctx context.Context, id, reviewerID string) (*models.DropRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, resolved, err := s.prepareResolution(ctx, id, models.DropRequestApproved, reviewerID)
	if err != nil {
		return nil, err
	}
	next := s.cloneRequests()
	next[idx] = resolved

	removed, err := s.registrations.RemoveForDrop(ctx, resolved.StudentID, resolved.Course.ID, func(ctx context.Context) error {
		return s.save(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	s.requests = next
	s.record(models.DropRequestApproved)
	s.logger.Info("drop approved",
		zap.String("request_id", id),
		zap.String("student_id", resolved.StudentID),
		zap.Int64("course_id", resolved.Course.ID),
		zap.Bool("removed", removed),
	)
	return &resolved, nil
}

// Reject resolves a pending request without touching the student's set.
func (s *DropRequestService) Reject(ctx context.Context, id, reviewerID string) (*models.DropRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, resolved, err := s.prepareResolution(ctx, id, models.DropRequestRejected, reviewerID)
	if err != nil {
		return nil, err
	}
	next := s.cloneRequests()
	next[idx] = resolved
	if err := s.save(ctx, next); err != nil {
		return nil, err
	}
	s.requests = next
	s.record(models.DropRequestRejected)
	s.logger.Info("drop rejected", zap.String("request_id", id), zap.String("student_id", resolved.StudentID))
	return &resolved, nil
}

// prepareResolution validates the transition and returns the resolved copy. Callers hold s.mu.
func (s *DropRequestService) prepareResolution(ctx context.Context, id string, status models.DropRequestStatus, reviewerID string) (int, models.DropRequest, error) {
	if err := s.load(ctx); err != nil {
		return -1, models.DropRequest{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return -1, models.DropRequest{}, appErrors.Clone(appErrors.ErrNotFound, "drop request not found")
	}
	current := s.requests[idx]
	if current.Status.Terminal() {
		return -1, models.DropRequest{}, appErrors.Clone(appErrors.ErrAlreadyResolved, fmt.Sprintf("drop request already %s", current.Status))
	}
	resolvedAt := s.now()
	current.Status = status
	current.ResolvedAt = &resolvedAt
	current.ResolvedBy = reviewerID
	return idx, current, nil
}

// CancelPendingForCourse cancels every pending request for courseID, persists the ledger and
// runs commit. A failing commit restores the stored ledger.
func (s *DropRequestService) CancelPendingForCourse(ctx context.Context, courseID int64, actorID string, commit CommitFunc) ([]models.DropRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}

	next := s.cloneRequests()
	var cancelled []models.DropRequest
	resolvedAt := s.now()
	for i := range next {
		if next[i].Status != models.DropRequestPending || next[i].Course.ID != courseID {
			continue
		}
		at := resolvedAt
		next[i].Status = models.DropRequestCancelled
		next[i].ResolvedAt = &at
		next[i].ResolvedBy = actorID
		cancelled = append(cancelled, next[i])
	}

	if len(cancelled) > 0 {
		if err := s.save(ctx, next); err != nil {
			return nil, err
		}
	}
	if commit != nil {
		if err := commit(ctx); err != nil {
			if len(cancelled) > 0 {
				if rbErr := s.repo.Save(ctx, s.requests); rbErr != nil {
					s.logger.Error("failed to roll back drop requests", zap.Error(rbErr))
				}
			}
			return nil, err
		}
	}
	s.requests = next
	for range cancelled {
		s.record(models.DropRequestCancelled)
	}
	if len(cancelled) > 0 {
		s.logger.Info("pending drops cancelled", zap.Int64("course_id", courseID), zap.Int("count", len(cancelled)))
	}
	return cancelled, nil
}

// Get returns a single request.
func (s *DropRequestService) Get(ctx context.Context, id string) (*models.DropRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "drop request not found")
	}
	request := s.requests[idx]
	return &request, nil
}

// List returns requests matching filter in filing order.
func (s *DropRequestService) List(ctx context.Context, filter models.DropRequestFilter) ([]models.DropRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	result := make([]models.DropRequest, 0)
	for _, r := range s.requests {
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	return result, nil
}

// PendingFor lists the student's unresolved requests.
func (s *DropRequestService) PendingFor(ctx context.Context, studentID string) ([]models.DropRequest, error) {
	return s.List(ctx, models.DropRequestFilter{StudentID: studentID, Status: []models.DropRequestStatus{models.DropRequestPending}})
}

// HistoryFor lists the student's resolved requests.
func (s *DropRequestService) HistoryFor(ctx context.Context, studentID string) ([]models.DropRequest, error) {
	return s.List(ctx, models.DropRequestFilter{
		StudentID: studentID,
		Status:    []models.DropRequestStatus{models.DropRequestApproved, models.DropRequestRejected, models.DropRequestCancelled},
	})
}

// Counts tallies requests by status.
func (s *DropRequestService) Counts(ctx context.Context) (map[models.DropRequestStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	counts := make(map[models.DropRequestStatus]int, 4)
	for _, r := range s.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func (s *DropRequestService) indexOf(id string) int {
	for i := range s.requests {
		if s.requests[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *DropRequestService) cloneRequests() []models.DropRequest {
	return append(make([]models.DropRequest, 0, len(s.requests)+1), s.requests...)
}
