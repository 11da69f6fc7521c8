package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
)

// MockStore is a minimal StateStore used to exercise the contract suite itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Snapshot
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (m *MockStore) Save(ctx context.Context, entityID string, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[entityID] = snap.Clone()
	return nil
}

func (m *MockStore) Load(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[entityID]
	if !ok {
		return nil, domain.ErrEntityNotFound
	}
	return snap.Clone(), nil
}

func (m *MockStore) Delete(ctx context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, entityID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, NewMockStore())
}

func TestDispatcherFunc(t *testing.T) {
	var got []domain.Intent
	d := ports.DispatcherFunc(func(_ context.Context, _ string, intents []domain.Intent) error {
		got = intents
		return nil
	})

	want := []domain.Intent{{ID: "op:0", Type: domain.IntentEntryAction}}
	if err := d.Dispatch(context.Background(), "e-1", want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "op:0" {
		t.Errorf("dispatcher did not receive intents: %v", got)
	}
}
