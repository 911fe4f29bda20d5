package metadata

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dynaqr/backend/internal/models"
)

// MemoryStore is a map-backed Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.EventMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.EventMetadata)}
}

func (s *MemoryStore) Get(_ context.Context, eventID string) (*models.EventMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	md, ok := s.records[eventID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMetadata(md), nil
}

func (s *MemoryStore) Put(_ context.Context, eventID string, md *models.EventMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneMetadata(md)
	cp.EventID = eventID
	s.records[eventID] = cp
	return nil
}

func (s *MemoryStore) Merge(_ context.Context, eventID string, patch models.MetadataPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	md, ok := s.records[eventID]
	if !ok {
		md = &models.EventMetadata{EventID: eventID}
		s.records[eventID] = md
	}
	md.Apply(patch, time.Now().UTC())
	return nil
}

func cloneMetadata(md *models.EventMetadata) *models.EventMetadata {
	// Deep copy through JSON keeps callers from aliasing stored slices.
	raw, _ := json.Marshal(md)
	var cp models.EventMetadata
	_ = json.Unmarshal(raw, &cp)
	return &cp
}
