package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OmniNode-ai/omnibase-core-sub006/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store implements ports.StateStore on SQLite.
// One row per entity; context and history are stored as JSON text.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens a SQLite database at path.
// Use ":memory:" for a private in-memory database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the snapshot of entityID.
func (s *Store) Save(ctx context.Context, entityID string, snap *domain.Snapshot) error {
	if entityID == "" {
		return fmt.Errorf("entityID cannot be empty")
	}
	contextJSON, err := json.Marshal(snap.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	history := snap.History
	if history == nil {
		history = []string{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (entity_id, current_state, context, history, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			current_state = excluded.current_state,
			context       = excluded.context,
			history       = excluded.history,
			updated_at    = excluded.updated_at`,
		entityID, snap.CurrentState, string(contextJSON), string(historyJSON), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save snapshot of %s: %w", entityID, err)
	}
	return nil
}

// Load reads the snapshot of entityID.
func (s *Store) Load(ctx context.Context, entityID string) (*domain.Snapshot, error) {
	var (
		state       string
		contextJSON string
		historyJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT current_state, context, history FROM snapshots WHERE entity_id = ?`, entityID).
		Scan(&state, &contextJSON, &historyJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot of %s: %w", entityID, err)
	}

	snap := &domain.Snapshot{CurrentState: state}
	if err := json.Unmarshal([]byte(contextJSON), &snap.Context); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context of %s: %w", entityID, err)
	}
	if snap.Context == nil {
		snap.Context = domain.Map{}
	}
	if err := json.Unmarshal([]byte(historyJSON), &snap.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history of %s: %w", entityID, err)
	}
	return snap, nil
}

// Delete removes the snapshot row.
func (s *Store) Delete(ctx context.Context, entityID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("failed to delete snapshot of %s: %w", entityID, err)
	}
	return nil
}

// List returns entity IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity_id FROM snapshots ORDER BY entity_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByState returns how many entities are in each state.
func (s *Store) CountByState(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT current_state, COUNT(*) FROM snapshots GROUP BY current_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}
