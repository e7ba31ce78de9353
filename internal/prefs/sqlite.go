package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// StorageKey is the key the serialized tree is stored under.
const StorageKey = "glance.prefs"

// SQLiteStorage keeps the tree as a single row of a key/value table.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if dir := filepath.Dir(resolved); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create prefs dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", resolved)
	if err != nil {
		return nil, fmt.Errorf("open prefs db: %w", err)
	}
	if _, err := db.Exec(`pragma journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure prefs db: %w", err)
	}
	schema := `
	create table if not exists kv (
		key text primary key,
		value text not null,
		updated_at integer not null default (strftime('%s','now'))
	);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create prefs table: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Load reads the stored tree.
func (s *SQLiteStorage) Load() (map[string]any, error) {
	var value string
	err := s.db.QueryRow(`select value from kv where key = ?`, StorageKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query prefs: %w", err)
	}
	return decodeTree([]byte(value))
}

// Save upserts the serialized tree.
func (s *SQLiteStorage) Save(tree map[string]any) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	_, err = s.db.Exec(`
	insert into kv (key, value, updated_at) values (?, ?, strftime('%s','now'))
	on conflict(key) do update set value = excluded.value, updated_at = excluded.updated_at`,
		StorageKey, string(data))
	if err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
