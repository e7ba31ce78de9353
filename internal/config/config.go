package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything glance reads from config.toml.
type Config struct {
	Report     Report
	Connection Connection
	Prefs      Prefs
	Log        Log
}

// Report locates the offline report files.
type Report struct {
	Schema string
	Data   string
	// Bundle is a single JSON file holding uiData and panelData.
	Bundle string
	Watch  bool
}

// Connection configures the live channel. An empty URL means offline.
type Connection struct {
	URL            string
	PingInterval   time.Duration
	AuthURL        string
	RefreshURL     string
	SessionCookie  string
	MaxRetries     int
	BackoffFloor   time.Duration
	BackoffCeiling time.Duration
	RefreshLead    time.Duration
}

// Live reports whether a channel URL is configured.
func (c Connection) Live() bool { return strings.TrimSpace(c.URL) != "" }

// Authenticated reports whether token issuance is configured.
func (c Connection) Authenticated() bool { return strings.TrimSpace(c.AuthURL) != "" }

// Prefs backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Prefs selects preference storage.
type Prefs struct {
	Backend string
	Path    string
	// Server is a JSON object of server-supplied defaults.
	Server string
}

// Log configures the log sink.
type Log struct {
	Path  string
	Level string
}

const (
	defaultConfigPath  = "~/.config/glance/config.toml"
	defaultLogPath     = "~/.local/state/glance/glance.log"
	defaultLogLevel    = "info"
	defaultPrefsPath   = "~/.config/glance/prefs.json"
	defaultSQLitePath  = "~/.config/glance/prefs.db"
	defaultPingSeconds = 30
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		Connection: Connection{PingInterval: defaultPingSeconds * time.Second},
		Prefs:      Prefs{Backend: BackendFile, Path: mustExpand(defaultPrefsPath)},
		Log:        Log{Path: mustExpand(defaultLogPath), Level: defaultLogLevel},
	}
}

type rawConfig struct {
	Report struct {
		Schema string `toml:"schema"`
		Data   string `toml:"data"`
		Report string `toml:"report"`
		Watch  bool   `toml:"watch"`
	} `toml:"report"`
	Connection struct {
		URL            string `toml:"url"`
		PingInterval   string `toml:"ping_interval"`
		AuthURL        string `toml:"auth_url"`
		RefreshURL     string `toml:"refresh_url"`
		SessionCookie  string `toml:"session_cookie"`
		MaxRetries     int    `toml:"max_retries"`
		BackoffFloor   string `toml:"backoff_floor"`
		BackoffCeiling string `toml:"backoff_ceiling"`
		RefreshLead    string `toml:"refresh_lead"`
	} `toml:"connection"`
	Prefs struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
		Server  string `toml:"server"`
	} `toml:"prefs"`
	Log struct {
		Path  string `toml:"path"`
		Level string `toml:"level"`
	} `toml:"log"`
}

// Load locates and parses the glance config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Report = Report{
		Schema: optionalPath(raw.Report.Schema),
		Data:   optionalPath(raw.Report.Data),
		Bundle: optionalPath(raw.Report.Report),
		Watch:  raw.Report.Watch,
	}

	conn := raw.Connection
	cfg.Connection.URL = strings.TrimSpace(conn.URL)
	cfg.Connection.AuthURL = strings.TrimSpace(conn.AuthURL)
	cfg.Connection.RefreshURL = strings.TrimSpace(conn.RefreshURL)
	cfg.Connection.SessionCookie = strings.TrimSpace(conn.SessionCookie)
	if conn.MaxRetries < 0 {
		return Config{}, fmt.Errorf("parse config: max_retries must not be negative")
	}
	cfg.Connection.MaxRetries = conn.MaxRetries
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"ping_interval", conn.PingInterval, &cfg.Connection.PingInterval},
		{"backoff_floor", conn.BackoffFloor, &cfg.Connection.BackoffFloor},
		{"backoff_ceiling", conn.BackoffCeiling, &cfg.Connection.BackoffCeiling},
		{"refresh_lead", conn.RefreshLead, &cfg.Connection.RefreshLead},
	}
	for _, d := range durations {
		if err := parseDuration(d.name, d.raw, d.dst); err != nil {
			return Config{}, err
		}
	}

	backend := strings.ToLower(strings.TrimSpace(raw.Prefs.Backend))
	switch backend {
	case "":
		backend = BackendFile
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return Config{}, fmt.Errorf("parse config: unknown prefs backend %q", raw.Prefs.Backend)
	}
	cfg.Prefs.Backend = backend
	cfg.Prefs.Path = optionalPath(raw.Prefs.Path)
	if cfg.Prefs.Path == "" {
		cfg.Prefs.Path = DefaultPrefsPath(backend)
	}
	cfg.Prefs.Server = strings.TrimSpace(raw.Prefs.Server)

	if p := optionalPath(raw.Log.Path); p != "" {
		cfg.Log.Path = p
	}
	if lvl := strings.TrimSpace(raw.Log.Level); lvl != "" {
		cfg.Log.Level = lvl
	}

	return cfg, nil
}

// DefaultPrefsPath returns the default storage location for a backend.
func DefaultPrefsPath(backend string) string {
	if backend == BackendSQLite {
		return mustExpand(defaultSQLitePath)
	}
	return mustExpand(defaultPrefsPath)
}

func parseDuration(name, raw string, dst *time.Duration) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", name, err)
	}
	if d < 0 {
		return fmt.Errorf("parse config: %s must not be negative", name)
	}
	*dst = d
	return nil
}

func optionalPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return mustExpand(path)
}

// ExpandPath resolves ~ and relative paths, leaving empty input empty.
func ExpandPath(path string) string {
	return optionalPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
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
