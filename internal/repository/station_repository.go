package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/stwalsh4118/chargemap/internal/database"
	"github.com/stwalsh4118/chargemap/internal/models"
)

// StationRepository is the append-only station store.
type StationRepository interface {
	// ReadAll returns every stored row in insertion order.
	// Rows are loosely typed and may be heterogeneous; callers normalize them.
	// Returns an empty slice (not an error) for an empty store.
	ReadAll(ctx context.Context) ([]models.RawRow, error)

	// Append stores one station as a new row. It is a blind insert: there is
	// no read-modify-write and no update of existing rows.
	Append(ctx context.Context, station models.Station) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// stationRepository is the PostgreSQL implementation of StationRepository.
type stationRepository struct {
	db *database.Database
}

// NewStationRepository creates a StationRepository backed by the station_rows table.
func NewStationRepository(db *database.Database) StationRepository {
	return &stationRepository{
		db: db,
	}
}

// ReadAll loads every row of station_rows ordered by insertion.
func (r *stationRepository) ReadAll(ctx context.Context) ([]models.RawRow, error) {
	query := `
		SELECT data
		FROM station_rows
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query station rows: %w", err)
	}
	defer rows.Close()

	results := []models.RawRow{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		results = append(results, decodeRow(data))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station rows: %w", err)
	}

	return results, nil
}

// Append inserts the station as a JSON row.
func (r *stationRepository) Append(ctx context.Context, station models.Station) error {
	data, err := encodeRow(station)
	if err != nil {
		return err
	}

	query := `INSERT INTO station_rows (data) VALUES ($1::jsonb)`
	if _, err := r.db.Pool.Exec(ctx, query, string(data)); err != nil {
		return fmt.Errorf("failed to append station row (name=%q): %w", station.Name, err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *stationRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func encodeRow(station models.Station) ([]byte, error) {
	data, err := json.Marshal(station.Row())
	if err != nil {
		return nil, fmt.Errorf("failed to encode station row: %w", err)
	}
	return data, nil
}

// decodeRow parses a stored JSON object into a raw row. Numbers keep full
// precision. Anything that is not a JSON object decodes to an empty row, which
// the normalizer fills with defaults.
func decodeRow(data []byte) models.RawRow {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return models.RawRow{}
	}
	return models.RawRowFrom(obj)
}
