package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
)

// ContractLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.ContractLoader.
// expected maps every contract name the loader holds to its initial state.
func ContractLoaderContractTest(t *testing.T, loader ports.ContractLoader, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for name, initial := range expected {
			c, err := loader.Load(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error loading contract %s: %v", name, err)
			}
			if c.Name != name {
				t.Errorf("name mismatch: got %q, want %q", c.Name, name)
			}
			if c.InitialState != initial {
				t.Errorf("initial state mismatch for %s: got %q, want %q", name, c.InitialState, initial)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-contract")
		if !errors.Is(err, domain.ErrContractNotFound) {
			t.Errorf("expected ErrContractNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing contracts: %v", err)
		}

		if len(names) != len(expected) {
			t.Errorf("expected %d contracts, got %d", len(expected), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}

		for name := range expected {
			if !lookup[name] {
				t.Errorf("contract %s missing from list", name)
			}
		}
	})
}
