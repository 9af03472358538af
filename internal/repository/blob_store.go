package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

// BlobStore is a key-value store of opaque JSON documents.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// loadJSON decodes the record stored under key into dest. It reports false when the key is absent.
func loadJSON(ctx context.Context, store BlobStore, key string, dest interface{}) (bool, error) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, appErrors.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, store BlobStore, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
