package middleware_test

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
// It keeps the pointers it is given so tests can inspect exactly what was stored.
type MockStore struct {
	data map[string]*domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (s *MockStore) Save(ctx context.Context, entityID string, snap *domain.Snapshot) error {
	s.data[entityID] = snap
	return nil
}

func (s *MockStore) Load(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	snap, ok := s.data[entityID]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return snap, nil
}

func (s *MockStore) Delete(ctx context.Context, entityID string) error {
	delete(s.data, entityID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.StateStore = (*MockStore)(nil)
