package memory_test

import (
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/memory"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/dsl"
	contract "github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flow(name, initial string) *domain.Contract {
	b := dsl.New(name).Initial(initial)
	b.State(initial)
	b.State("done").Terminal()
	b.Transition("finish").From(initial).To("done").On("finish")
	return b.MustBuild()
}

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewLoader(flow("orders", "pending"), flow("tickets", "open"))
	require.NoError(t, err)

	contract.ContractLoaderContractTest(t, loader, map[string]string{
		"orders":  "pending",
		"tickets": "open",
	})
}

func TestInMemoryLoader_RejectsDuplicates(t *testing.T) {
	_, err := memory.NewLoader(flow("orders", "pending"), flow("orders", "open"))
	assert.Error(t, err)
}

func TestInMemoryLoader_RejectsInvalid(t *testing.T) {
	broken := flow("orders", "pending")
	broken.InitialState = "nowhere"

	_, err := memory.NewLoader(broken)
	assert.ErrorIs(t, err, domain.ErrInvalidContract)
}
