package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/caseload/pkg/types"
)

// SQLite stores snapshots as JSON documents in a SQLite table.
type SQLite struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens or creates DatabaseFile under dir.
func OpenSQLite(dir string) (*SQLite, error) {
	if dir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dir, DatabaseFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One connection keeps writes serialized without SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing schema: %w", err)
		}
	}
	return &SQLite{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) conn() (*sql.DB, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *SQLite) Save(ctx context.Context, st types.CollectionState) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return err
	}
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", st.EntityType, err)
	}
	_, err = db.ExecContext(ctx, upsertSnapshot,
		st.EntityType, string(doc), st.LastFetch, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving %s snapshot: %w", st.EntityType, err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, entityType string) (types.CollectionState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return types.CollectionState{}, false, err
	}
	var doc string
	err = db.QueryRowContext(ctx, selectSnapshot, entityType).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CollectionState{}, false, nil
	}
	if err != nil {
		return types.CollectionState{}, false, fmt.Errorf("loading %s snapshot: %w", entityType, err)
	}
	var st types.CollectionState
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return types.CollectionState{}, false, fmt.Errorf("decoding %s snapshot: %w", entityType, err)
	}
	return st, true, nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectTypes)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, entityType string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, deleteSnapshot, entityType); err != nil {
		return fmt.Errorf("deleting %s snapshot: %w", entityType, err)
	}
	return nil
}

// Close releases the database. Idempotent.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
