package metadata

import (
	"context"
	"errors"

	"github.com/dynaqr/backend/internal/models"
)

// ErrNotFound means no metadata record exists for the event.
var ErrNotFound = errors.New("event metadata not found")

// Store is the off-chain metadata persistence. Writes are synchronous from
// the caller's perspective but never wait on ledger confirmation; metadata
// is best-effort and may transiently disagree with on-chain state.
//
// There is no cross-field transactional guarantee: Merge is last-write-wins
// per field.
type Store interface {
	Get(ctx context.Context, eventID string) (*models.EventMetadata, error)

	// Put replaces the whole record.
	Put(ctx context.Context, eventID string, md *models.EventMetadata) error

	// Merge applies a partial update, creating the record if absent.
	Merge(ctx context.Context, eventID string, patch models.MetadataPatch) error
}
