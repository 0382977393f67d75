package export

import (
	"context"
	"time"

	"github.com/noah-isme/retail-pos/internal/cache"
)

const statusKeyPrefix = "pos:export:status:"

// Record tracks one export from enqueue to completion. Records are kept in
// Redis with a TTL, shared between the API and the worker.
type Record struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	Format      Format `json:"format"`
	State       string `json:"state"`
	RequestedBy string `json:"requestedBy,omitempty"`

	File      string    `json:"file,omitempty"`
	Pages     int       `json:"pages,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// StatusStore persists export records.
type StatusStore struct {
	Cache cache.JSON
}

// Get returns the record for exportID, reporting whether it exists.
func (s StatusStore) Get(ctx context.Context, exportID string) (Record, bool, error) {
	var rec Record
	found, err := s.Cache.Get(ctx, statusKeyPrefix+exportID, &rec)
	return rec, found, err
}

// Put writes the record, refreshing its TTL.
func (s StatusStore) Put(ctx context.Context, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()
	return s.Cache.Set(ctx, statusKeyPrefix+rec.ID, rec)
}
