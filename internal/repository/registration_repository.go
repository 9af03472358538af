package repository

import (
	"context"
	"strings"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const registrationKeyPrefix = "registeredCourses:"

// RegistrationRepository stores each student's registered courses under its own key.
type RegistrationRepository struct {
	store  BlobStore
	prefix string
}

// NewRegistrationRepository constructs the repository. keyPrefix namespaces every key.
func NewRegistrationRepository(store BlobStore, keyPrefix string) *RegistrationRepository {
	return &RegistrationRepository{store: store, prefix: keyPrefix}
}

func (r *RegistrationRepository) key(studentID string) string {
	return r.prefix + registrationKeyPrefix + studentID
}

// Load returns the persisted set for studentID, empty when nothing was stored.
func (r *RegistrationRepository) Load(ctx context.Context, studentID string) ([]models.Course, error) {
	var courses []models.Course
	if _, err := loadJSON(ctx, r.store, r.key(studentID), &courses); err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Save overwrites the persisted set for studentID.
func (r *RegistrationRepository) Save(ctx context.Context, studentID string, courses []models.Course) error {
	if courses == nil {
		courses = []models.Course{}
	}
	return saveJSON(ctx, r.store, r.key(studentID), courses)
}

// StudentIDs lists every student with a persisted set.
func (r *RegistrationRepository) StudentIDs(ctx context.Context) ([]string, error) {
	base := r.prefix + registrationKeyPrefix
	keys, err := r.store.Keys(ctx, base)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if id := strings.TrimPrefix(key, base); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
