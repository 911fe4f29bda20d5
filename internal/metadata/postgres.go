package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dynaqr/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists metadata as a jsonb payload keyed by event id.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, eventID string) (*models.EventMetadata, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM event_metadata WHERE event_id = $1
	`, eventID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata for %s: %w", eventID, err)
	}

	var md models.EventMetadata
	if err := json.Unmarshal(payload, &md); err != nil {
		return nil, fmt.Errorf("corrupt metadata payload for %s: %w", eventID, err)
	}
	return &md, nil
}

func (s *PostgresStore) Put(ctx context.Context, eventID string, md *models.EventMetadata) error {
	md.EventID = eventID
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", eventID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO event_metadata (event_id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (event_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()
	`, eventID, payload)
	if err != nil {
		return fmt.Errorf("failed to store metadata for %s: %w", eventID, err)
	}
	return nil
}

// ListIDs returns every event id with a metadata record, oldest update
// first. Used by the worker's refresh loop.
func (s *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id FROM event_metadata ORDER BY updated_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Merge(ctx context.Context, eventID string, patch models.MetadataPatch) error {
	md, err := s.Get(ctx, eventID)
	if errors.Is(err, ErrNotFound) {
		md = &models.EventMetadata{EventID: eventID}
	} else if err != nil {
		return err
	}

	md.Apply(patch, time.Now().UTC())
	return s.Put(ctx, eventID, md)
}
