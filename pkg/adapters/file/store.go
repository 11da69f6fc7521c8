package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
)

const snapshotExt = ".json"

// Store implements ports.StateStore using the local filesystem.
// Each entity snapshot is one JSON file in BasePath.
type Store struct {
	BasePath string
}

// NewStore creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".omnibase/entities".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".omnibase", "entities")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(entityID string) (string, error) {
	if entityID == "" {
		return "", fmt.Errorf("entityID cannot be empty")
	}
	if strings.ContainsAny(entityID, `/\`) || entityID == "." || entityID == ".." {
		return "", fmt.Errorf("entityID %q is not a valid file name", entityID)
	}
	return filepath.Join(s.BasePath, entityID+snapshotExt), nil
}

// Save writes the snapshot atomically: temp file, fsync, then rename over the destination.
func (s *Store) Save(ctx context.Context, entityID string, snap *domain.Snapshot) error {
	destPath, err := s.path(entityID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure entity directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Same directory so the rename never crosses filesystems.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+entityID+"-*"+snapshotExt)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename cannot replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace snapshot of %s: %w", entityID, err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move snapshot of %s into place: %w", entityID, err)
	}
	return nil
}

// Load reads the snapshot of entityID.
func (s *Store) Load(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	filePath, err := s.path(entityID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot of %s: %w", entityID, err)
	}
	if snap.Context == nil {
		snap.Context = domain.Map{}
	}
	return &snap, nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, entityID string) error {
	filePath, err := s.path(entityID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns all stored entity IDs, skipping in-flight temp files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != snapshotExt || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, snapshotExt))
	}
	sort.Strings(ids)
	return ids, nil
}
