package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/adapters/file"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	contract "github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoader_Contract(t *testing.T) {
	loader := file.NewLoader("testdata")
	contract.ContractLoaderContractTest(t, loader, map[string]string{
		"orders":  "pending",
		"tickets": "open",
	})
}

func TestFileLoader_InvalidContractFailsScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"),
		[]byte("name: bad\ninitial_state: x\nstates: [{name: a}]\ntransitions: []\n"), 0644))

	_, err := file.NewLoader(dir).Load(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidContract)
}

func TestFileLoader_Reload(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "orders.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.yaml"), src, 0644))

	loader := file.NewLoader(dir)
	names, err := loader.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, names)

	src, err = os.ReadFile(filepath.Join("testdata", "tickets.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tickets.json"), src, 0644))
	require.NoError(t, loader.Reload())

	names, err = loader.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "tickets"}, names)
}
