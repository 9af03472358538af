package repository

import (
	"context"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const (
	catalogKey       = "courseCatalog"
	catalogNextIDKey = "courseCatalogNextId"
)

// CatalogRepository persists the course catalog and its id sequence.
type CatalogRepository struct {
	store     BlobStore
	key       string
	nextIDKey string
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(store BlobStore, keyPrefix string) *CatalogRepository {
	return &CatalogRepository{
		store:     store,
		key:       keyPrefix + catalogKey,
		nextIDKey: keyPrefix + catalogNextIDKey,
	}
}

// Load returns the stored catalog. found is false when the catalog was never saved.
func (r *CatalogRepository) Load(ctx context.Context) (courses []models.Course, found bool, err error) {
	found, err = loadJSON(ctx, r.store, r.key, &courses)
	if err != nil {
		return nil, false, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, found, nil
}

// Save overwrites the catalog.
func (r *CatalogRepository) Save(ctx context.Context, courses []models.Course) error {
	if courses == nil {
		courses = []models.Course{}
	}
	return saveJSON(ctx, r.store, r.key, courses)
}

// LoadNextID returns the stored id high-water mark, or 0 when none was saved.
func (r *CatalogRepository) LoadNextID(ctx context.Context) (int64, error) {
	var next int64
	if _, err := loadJSON(ctx, r.store, r.nextIDKey, &next); err != nil {
		return 0, err
	}
	return next, nil
}

// SaveNextID records the id the next created course will receive.
func (r *CatalogRepository) SaveNextID(ctx context.Context, next int64) error {
	return saveJSON(ctx, r.store, r.nextIDKey, next)
}
