package repository

import (
	"context"

	"github.com/noah-isme/course-registration-api/internal/models"
)

const dropRequestsKey = "dropRequests"

// DropRequestRepository stores the whole drop request ledger as one record.
type DropRequestRepository struct {
	store BlobStore
	key   string
}

// NewDropRequestRepository constructs the repository.
func NewDropRequestRepository(store BlobStore, keyPrefix string) *DropRequestRepository {
	return &DropRequestRepository{store: store, key: keyPrefix + dropRequestsKey}
}

// Load returns every stored request in insertion order.
func (r *DropRequestRepository) Load(ctx context.Context) ([]models.DropRequest, error) {
	var requests []models.DropRequest
	if _, err := loadJSON(ctx, r.store, r.key, &requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.DropRequest{}
	}
	return requests, nil
}

// Save overwrites the ledger.
func (r *DropRequestRepository) Save(ctx context.Context, requests []models.DropRequest) error {
	if requests == nil {
		requests = []models.DropRequest{}
	}
	return saveJSON(ctx, r.store, r.key, requests)
}
