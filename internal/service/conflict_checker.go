package service

import (
	"fmt"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// CheckConflict scans existing in order and reports the first course meeting on the
// candidate's day whose time overlaps it. A course with the candidate's id never conflicts.
func CheckConflict(existing []models.Course, candidate models.Course) (models.ConflictResult, error) {
	want, err := candidate.Interval()
	if err != nil {
		return models.ConflictResult{}, err
	}
	for i := range existing {
		other := existing[i]
		if other.ID == candidate.ID || other.Day != candidate.Day {
			continue
		}
		interval, err := other.Interval()
		if err != nil {
			return models.ConflictResult{}, err
		}
		if want.Overlaps(interval) {
			return models.ConflictResult{HasConflict: true, ConflictingCourse: &other}, nil
		}
	}
	return models.ConflictResult{}, nil
}

// validateSet checks that ids are unique and that no two members overlap.
func validateSet(courses []models.Course) error {
	seen := make(map[int64]struct{}, len(courses))
	for i, course := range courses {
		if _, dup := seen[course.ID]; dup {
			return fmt.Errorf("course %d appears more than once", course.ID)
		}
		seen[course.ID] = struct{}{}
		result, err := CheckConflict(courses[:i], course)
		if err != nil {
			return fmt.Errorf("course %d: %w", course.ID, err)
		}
		if result.HasConflict {
			return &models.TimeConflictError{Candidate: course, Conflicting: *result.ConflictingCourse}
		}
	}
	return nil
}

func newTimeConflictError(candidate, conflicting models.Course) error {
	appErr := appErrors.Wrap(
		&models.TimeConflictError{Candidate: candidate, Conflicting: conflicting},
		appErrors.ErrTimeConflict.Code,
		appErrors.ErrTimeConflict.Status,
		fmt.Sprintf("time conflict with %s", conflicting.Label()),
	)
	appErr.Details = map[string]interface{}{"conflictingCourse": conflicting}
	return appErr
}

func indexOfCourse(courses []models.Course, id int64) int {
	for i := range courses {
		if courses[i].ID == id {
			return i
		}
	}
	return -1
}

func withoutCourse(courses []models.Course, idx int) []models.Course {
	next := make([]models.Course, 0, len(courses)-1)
	next = append(next, courses[:idx]...)
	return append(next, courses[idx+1:]...)
}

func cloneCourses(courses []models.Course) []models.Course {
	return append(make([]models.Course, 0, len(courses)), courses...)
}
