package runtime_test

import (
	"testing"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/runtime"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildContext_ReservedKeysWin(t *testing.T) {
	meta := domain.Map{
		"data":         domain.String("user data"),
		"operation_id": domain.String("user-op"),
		"tenant":       domain.String("t1"),
	}

	got, collisions := runtime.BuildContext(meta, domain.Number(7), "op-1", false)

	assert.Equal(t, domain.Number(7), got[domain.KeyData])
	assert.Equal(t, domain.String("op-1"), got[domain.KeyOperationID])
	assert.Equal(t, domain.String("t1"), got["tenant"])
	assert.Equal(t, []string{"data", "operation_id"}, collisions)

	// metadata itself is untouched
	assert.Equal(t, domain.String("user data"), meta["data"])
}

func TestBuildContext_DeepCopyByDefault(t *testing.T) {
	nested := domain.Map{"x": domain.Number(1)}
	meta := domain.Map{"nested": nested}

	deep, _ := runtime.BuildContext(meta, nil, "op", false)
	deep["nested"].(domain.Map)["x"] = domain.Number(2)
	assert.Equal(t, domain.Number(1), nested["x"])

	shallow, collisions := runtime.BuildContext(meta, nil, "op", true)
	assert.Empty(t, collisions)
	assert.Equal(t, domain.Null{}, shallow[domain.KeyData])
	shallow["nested"].(domain.Map)["x"] = domain.Number(3)
	assert.Equal(t, domain.Number(3), nested["x"])
}

func TestTriggerFrom(t *testing.T) {
	assert.Equal(t, "process", runtime.TriggerFrom(nil))
	assert.Equal(t, "process", runtime.TriggerFrom(domain.Map{"trigger": domain.Null{}}))
	assert.Equal(t, "go", runtime.TriggerFrom(domain.Map{"trigger": domain.String("go")}))
}
