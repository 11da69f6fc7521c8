package ports

import (
	"context"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// ContractLoader defines how hosts retrieve contracts by name.
// This allows the storage layer (directory, memory) to be decoupled.
type ContractLoader interface {
	// Load returns the validated contract called name.
	// Returns domain.ErrContractNotFound if no such contract exists.
	Load(ctx context.Context, name string) (*domain.Contract, error)

	// List returns the names of all available contracts.
	// This is used for introspection and by the HTTP and MCP adapters.
	List(ctx context.Context) ([]string, error)
}
