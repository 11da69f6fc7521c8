package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"gopkg.in/yaml.v3"
)

// EffectConfig binds an intent type, optionally narrowed to one target, to a command.
type EffectConfig struct {
	IntentType  string            `yaml:"intent_type" json:"intent_type"`
	Target      string            `yaml:"target" json:"target"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of effects.yaml
type ConfigFile struct {
	Effects []EffectConfig `yaml:"effects" json:"effects"`
}

// LoadEffects reads a YAML or JSON effects file.
// Entries without an intent type or command are rejected.
func LoadEffects(path string) ([]EffectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effects config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	for i, e := range cfg.Effects {
		if e.IntentType == "" || e.Command == "" {
			return nil, fmt.Errorf("effect %d: intent_type and command are required", i)
		}
		switch domain.IntentType(e.IntentType) {
		case domain.IntentPersistState, domain.IntentExitAction, domain.IntentTransitionAction,
			domain.IntentEntryAction, domain.IntentActionFailure, domain.IntentContextCollisionWarning:
		default:
			return nil, fmt.Errorf("effect %d: unknown intent type %q", i, e.IntentType)
		}
	}
	return cfg.Effects, nil
}
