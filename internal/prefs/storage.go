package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

// Storage persists the serialized preference tree. Load returns a nil tree
// when nothing has been stored yet.
type Storage interface {
	Load() (map[string]any, error)
	Save(tree map[string]any) error
}

const defaultPrefsPath = "~/.config/glance/prefs.json"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// FileStorage keeps the tree as one JSON document on disk.
type FileStorage struct {
	Path string // empty uses DefaultPath
}

// Load reads the stored tree. A missing file is not an error.
func (f FileStorage) Load() (map[string]any, error) {
	resolved, err := resolvePath(f.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	return decodeTree(data)
}

// Save writes the tree, creating directories as needed.
func (f FileStorage) Save(tree map[string]any) error {
	resolved, err := resolvePath(f.Path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// MemoryStorage keeps the tree in memory. The zero value is ready to use.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
	// Err, when set, is returned by every call.
	Err error
}

// Load returns the last saved tree.
func (m *MemoryStorage) Load() (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if m.data == nil {
		return nil, nil
	}
	return decodeTree(m.data)
}

// Save stores a serialized copy of tree.
func (m *MemoryStorage) Save(tree map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	m.data = data
	return nil
}

func decodeTree(data []byte) (map[string]any, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	return tree, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
