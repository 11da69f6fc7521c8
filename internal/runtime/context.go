package runtime

import (
	"sort"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// reservedKeys always win over user metadata.
var reservedKeys = []string{domain.KeyData, domain.KeyOperationID}

// BuildContext assembles the read-only execution context for one call.
//
// Metadata is copied (deeply unless shallow is set), then the reserved keys
// "data" and "operation_id" are overlaid. The returned collisions list the
// reserved keys that the metadata also carried, sorted.
func BuildContext(metadata domain.Map, data domain.Value, operationID string, shallow bool) (domain.Map, []string) {
	var out domain.Map
	if shallow {
		out = make(domain.Map, len(metadata)+len(reservedKeys))
		for k, v := range metadata {
			out[k] = v
		}
	} else {
		out = metadata.Clone()
		if out == nil {
			out = make(domain.Map, len(reservedKeys))
		}
	}

	var collisions []string
	for _, k := range reservedKeys {
		if _, ok := metadata[k]; ok {
			collisions = append(collisions, k)
		}
	}
	sort.Strings(collisions)

	if data == nil {
		data = domain.Null{}
	} else if !shallow {
		data = domain.CloneValue(data)
	}
	out[domain.KeyData] = data
	out[domain.KeyOperationID] = domain.String(operationID)

	return out, collisions
}

// CollisionWarning builds the context_collision_warning intent for keys
// that the reserved context keys overrode.
func CollisionWarning(fsm, opID string, keys []string) domain.Intent {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return domain.Intent{
		ID:     opID + ":warning",
		Type:   domain.IntentContextCollisionWarning,
		Target: fsm,
		Payload: domain.Map{
			domain.PayloadFSMName:       domain.String(fsm),
			domain.PayloadCollidingKeys: domain.MustValue(sorted),
			domain.PayloadOperationID:   domain.String(opID),
		},
	}
}

// TriggerFrom returns metadata["trigger"] as a string, or domain.DefaultTrigger.
func TriggerFrom(metadata domain.Map) string {
	v, ok := metadata[domain.KeyTrigger]
	if !ok {
		return domain.DefaultTrigger
	}
	if _, isNull := v.(domain.Null); isNull || v == nil {
		return domain.DefaultTrigger
	}
	return v.String()
}
