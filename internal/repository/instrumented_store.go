package repository

import (
	"context"
	"time"
)

// QueryObserver receives store operation timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// InstrumentedStore reports the latency of every store call.
type InstrumentedStore struct {
	next     BlobStore
	observer QueryObserver
	driver   string
}

// NewInstrumentedStore wraps store. A nil observer returns store unchanged.
func NewInstrumentedStore(store BlobStore, observer QueryObserver, driver string) BlobStore {
	if observer == nil {
		return store
	}
	return &InstrumentedStore{next: store, observer: observer, driver: driver}
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer s.observe("get", time.Now())
	return s.next.Get(ctx, key)
}

func (s *InstrumentedStore) Put(ctx context.Context, key string, value []byte) error {
	defer s.observe("put", time.Now())
	return s.next.Put(ctx, key, value)
}

func (s *InstrumentedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	defer s.observe("keys", time.Now())
	return s.next.Keys(ctx, prefix)
}

func (s *InstrumentedStore) observe(op string, start time.Time) {
	s.observer.ObserveDBQuery(s.driver+"_"+op, time.Since(start))
}
