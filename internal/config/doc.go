// Package config loads glance's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/glance/config.toml (default)
//  3. If the config file doesn't exist, fall back to Defaults()
//  4. If the file exists but fields are missing/empty, use defaults
//
// Command-line flags override whatever Load returns; that merge happens in
// cmd/glance.
//
// # TOML Format
//
//	[report]
//	schema = "~/reports/schema.json"
//	data = "~/reports/data.json"
//	# report = "~/reports/report.json"   # uiData + panelData in one file
//	watch = true
//
//	[connection]
//	url = "ws://localhost:7890"
//	ping_interval = "30s"
//	auth_url = "https://localhost/token"
//	refresh_url = "https://localhost/token/refresh"
//	session_cookie = "sid=..."
//	max_retries = 20
//	backoff_floor = "1s"
//	backoff_ceiling = "20s"
//	refresh_lead = "60s"
//
//	[prefs]
//	backend = "file"                      # file | sqlite | memory
//	path = "~/.config/glance/prefs.json"
//	server = '{"perPage": 10}'
//
//	[log]
//	path = "~/.local/state/glance/glance.log"
//	level = "info"
//
// Durations use time.ParseDuration syntax. Zero connection values fall
// through to the live package defaults. An empty url means offline mode.
//
// # Path Expansion
//
// Tilde and relative paths are expanded to absolute paths for the config
// file, report files, prefs storage and log file.
//
// # Error Handling
//
// Load returns errors for unreadable files, TOML syntax errors, malformed or
// negative durations and unknown prefs backends. A missing config file is not
// an error.
package config
