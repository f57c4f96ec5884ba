package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stwalsh4118/chargemap/internal/models"
)

// MemoryRepository keeps station rows in process memory.
// Rows are held in serialized form so reads go through the same decoding as
// the database driver. Used for local development and tests.
type MemoryRepository struct {
	rows [][]byte
	mu   sync.RWMutex
}

// NewMemoryRepository creates an in-memory store seeded with the given rows.
// Seed rows may be partial or loosely typed, as in a hand-edited sheet.
func NewMemoryRepository(seed ...map[string]interface{}) (*MemoryRepository, error) {
	r := &MemoryRepository{rows: make([][]byte, 0, len(seed))}
	for i, row := range seed {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("failed to encode seed row %d: %w", i, err)
		}
		r.rows = append(r.rows, data)
	}
	return r, nil
}

// ReadAll returns every row in insertion order.
func (r *MemoryRepository) ReadAll(ctx context.Context) ([]models.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]models.RawRow, 0, len(r.rows))
	for _, data := range r.rows {
		results = append(results, decodeRow(data))
	}
	return results, nil
}

// Append adds the station as a new row.
func (r *MemoryRepository) Append(ctx context.Context, station models.Station) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeRow(station)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, data)
	return nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored rows.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
