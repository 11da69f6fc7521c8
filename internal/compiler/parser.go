package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/dto"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format identifies a contract document encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatAuto
}

// Parser converts raw contract documents into domain contracts.
// Declaration order of states, transitions, conditions and actions is preserved.
type Parser struct {
	lenient bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithLenientKeys allows unknown keys in documents.
func WithLenientKeys() ParserOption {
	return func(p *Parser) {
		p.lenient = true
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads and parses a contract file.
func (p *Parser) ParseFile(path string) (*domain.Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract %s: %w", path, err)
	}
	c, err := p.Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes data into a contract. FormatAuto picks JSON when the document
// starts with '{' and YAML otherwise.
func (p *Parser) Parse(data []byte, format Format) (*domain.Contract, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, err
	}

	var doc dto.ContractDocument
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		ErrorUnused:      !p.lenient,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode contract: %w", err)
	}

	return toDomain(&doc)
}

func decodeRaw(data []byte, format Format) (map[string]any, error) {
	if format == FormatAuto {
		format = FormatYAML
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
			format = FormatJSON
		}
	}

	var raw map[string]any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON contract: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML contract: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported contract format %q", format)
	}
	if raw == nil {
		return nil, fmt.Errorf("contract document is empty")
	}
	return raw, nil
}

func toDomain(doc *dto.ContractDocument) (*domain.Contract, error) {
	c := &domain.Contract{
		Name:           doc.Name,
		Version:        doc.Version,
		Description:    doc.Description,
		InitialState:   doc.InitialState,
		TerminalStates: doc.TerminalStates,
		ErrorStates:    doc.ErrorStates,
		Flags: domain.ContractFlags{
			PersistenceEnabled: doc.PersistenceEnabled,
			StrictValidation:   doc.StrictValidation,
			RecoveryEnabled:    doc.RecoveryEnabled,
			RollbackEnabled:    doc.RollbackEnabled,
		},
	}

	reserved := []struct {
		key    string
		value  any
		target *map[string]any
	}{
		{"parallel", doc.Parallel, &c.Reserved.Parallel},
		{"hierarchical", doc.Hierarchical, &c.Reserved.Hierarchical},
		{"retry", doc.Retry, &c.Reserved.Retry},
		{"rollback", doc.Rollback, &c.Reserved.Rollback},
		{"recovery", doc.Recovery, &c.Reserved.Recovery},
	}
	for _, r := range reserved {
		if r.value == nil {
			continue
		}
		m, ok := r.value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("reserved section %q must be a mapping, got %T", r.key, r.value)
		}
		*r.target = m
	}

	for i, s := range doc.States {
		actions, err := toActions(s.Actions)
		if err != nil {
			return nil, fmt.Errorf("states[%d]: %w", i, err)
		}
		c.States = append(c.States, domain.StateDefinition{
			Name:         firstNonEmpty(s.Name, s.StateName),
			Type:         s.Type,
			IsTerminal:   s.IsTerminal,
			EntryActions: s.EntryActions,
			ExitActions:  s.ExitActions,
			Actions:      actions,
		})
	}

	for i, t := range doc.Transitions {
		actions, err := toActions(t.Actions)
		if err != nil {
			return nil, fmt.Errorf("transitions[%d]: %w", i, err)
		}
		def := domain.TransitionDefinition{
			Name:      firstNonEmpty(t.TransitionName, t.Name),
			FromState: t.FromState,
			ToState:   t.ToState,
			Trigger:   t.Trigger,
			Priority:  t.Priority,
			Actions:   actions,
		}
		for _, cond := range t.Conditions {
			def.Conditions = append(def.Conditions, domain.GuardCondition{
				Name:         firstNonEmpty(cond.Name, cond.ConditionName),
				Expression:   cond.Expression,
				Required:     cond.Required,
				ErrorMessage: cond.ErrorMessage,
			})
		}
		c.Transitions = append(c.Transitions, def)
	}

	return c, nil
}

func toActions(docs []dto.ActionDocument) ([]domain.Action, error) {
	var out []domain.Action
	for _, a := range docs {
		params, err := domain.ToMap(a.Params)
		if err != nil {
			return nil, fmt.Errorf("action %q params: %w", a.Name, err)
		}
		if len(params) == 0 {
			params = nil
		}
		out = append(out, domain.Action{
			Name:     firstNonEmpty(a.Name, a.ActionName),
			Type:     a.Type,
			Order:    a.Order,
			Critical: a.Critical,
			Params:   params,
		})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
