package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/ports"
)

// Mask replaces the value of every masked key.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks context values whose key matches any pattern.
// Masking applies on Save and recurses into nested maps and lists.
// Masked values cannot be recovered on Load.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, entityID string, snap *domain.Snapshot) error {
	// Clone first so the caller's snapshot keeps its real values.
	cloned := snap.Clone()
	cloned.Context = m.maskMap(cloned.Context)
	return m.next.Save(ctx, entityID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, entityID)
}

func (m *piiMiddleware) Delete(ctx context.Context, entityID string) error {
	return m.next.Delete(ctx, entityID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) maskMap(in domain.Map) domain.Map {
	for k, v := range in {
		if m.matches(k) {
			in[k] = domain.String(Mask)
			continue
		}
		in[k] = m.maskValue(v)
	}
	return in
}

func (m *piiMiddleware) maskValue(v domain.Value) domain.Value {
	switch t := v.(type) {
	case domain.Map:
		return m.maskMap(t)
	case domain.List:
		for i, item := range t {
			t[i] = m.maskValue(item)
		}
		return t
	}
	return v
}
