package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/OmniNode-ai/omnibase-core-sub006/internal/compiler"
	"github.com/OmniNode-ai/omnibase-core-sub006/internal/validator"
	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

// Loader implements ports.ContractLoader over a directory of YAML or JSON contracts.
// Contracts are keyed by their declared name, not by file name.
// The directory is scanned on first use and again after Reload.
type Loader struct {
	dir    string
	parser *compiler.Parser

	mu        sync.RWMutex
	contracts map[string]*domain.Contract
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, opts ...compiler.ParserOption) *Loader {
	return &Loader{dir: dir, parser: compiler.NewParser(opts...)}
}

// Reload rescans the directory. Any invalid contract fails the whole scan
// and keeps the previously loaded set.
func (l *Loader) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("failed to read contract directory: %w", err)
	}

	found := make(map[string]*domain.Contract)
	origin := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || compiler.FormatFromPath(entry.Name()) == compiler.FormatAuto {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		c, err := l.parser.ParseFile(path)
		if err != nil {
			return err
		}
		if err := validator.Validate(c).Err(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := origin[c.Name]; dup {
			return fmt.Errorf("contract %q declared by both %s and %s", c.Name, prev, path)
		}
		found[c.Name] = c
		origin[c.Name] = path
	}

	l.mu.Lock()
	l.contracts = found
	l.mu.Unlock()
	return nil
}

func (l *Loader) ensure() error {
	l.mu.RLock()
	loaded := l.contracts != nil
	l.mu.RUnlock()
	if loaded {
		return nil
	}
	return l.Reload()
}

// Load returns the contract called name.
func (l *Loader) Load(ctx context.Context, name string) (*domain.Contract, error) {
	if err := l.ensure(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.contracts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrContractNotFound, name)
	}
	return c, nil
}

// List returns all contract names in sorted order.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	if err := l.ensure(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.contracts))
	for name := range l.contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
