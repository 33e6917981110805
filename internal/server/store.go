package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/flowkit/flowkit/pkg/errors"
)

// =============================================================================
// Layout Store
// =============================================================================

// Record is one stored layout result.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	GraphHash string          `json:"graph_hash" bson:"graph_hash"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	Document  json.RawMessage `json:"document" bson:"document"`
}

// Store persists computed layouts for later retrieval.
type Store interface {
	// Put saves a record, replacing any record with the same id.
	Put(ctx context.Context, rec Record) error

	// Get returns the record with the given id, or an error with code
	// LAYOUT_NOT_FOUND.
	Get(ctx context.Context, id string) (Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// =============================================================================
// In-Memory Store
// =============================================================================

// MemoryStore keeps records in a map. It serves single-instance
// deployments and tests; production deployments use MongoStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Put saves a record.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
	return nil
}

// Get returns a record by id.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	return rec, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
