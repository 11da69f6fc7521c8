package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Loader implements ports.ContractLoader using an in-memory map.
type Loader struct {
	contracts map[string]*domain.Contract
}

// NewLoader creates a loader holding the given contracts.
// Every contract is validated; names must be unique.
func NewLoader(contracts ...*domain.Contract) (*Loader, error) {
	m := make(map[string]*domain.Contract, len(contracts))
	for _, c := range contracts {
		if c == nil || c.Name == "" {
			return nil, fmt.Errorf("contract missing name")
		}
		if _, dup := m[c.Name]; dup {
			return nil, fmt.Errorf("duplicate contract %q", c.Name)
		}
		if err := validator.Validate(c).Err(); err != nil {
			return nil, fmt.Errorf("contract %q: %w", c.Name, err)
		}
		m[c.Name] = c
	}
	return &Loader{contracts: m}, nil
}

// Load returns the contract called name.
func (l *Loader) Load(ctx context.Context, name string) (*domain.Contract, error) {
	c, ok := l.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, name)
	}
	return c, nil
}

// List returns all contract names.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(l.contracts))
	for k := range l.contracts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
