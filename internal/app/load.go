package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/xxh3"

	"github.com/five82/glance/internal/config"
	"github.com/five82/glance/internal/logging"
	"github.com/five82/glance/internal/report"
)

// ErrNoReport is returned when neither report files nor a live channel are
// configured.
var ErrNoReport = errors.New("no report source: set --report, --schema/--data or --url")

// Update describes what one applied message changed.
type Update struct {
	SchemaChanged bool
	Snapshot      bool
	Version       uint64
}

// Apply decodes a report message and stores its parts: schema, preference
// defaults and snapshot. A schema identical to the current one is not
// replaced.
func (c *Context) Apply(data []byte) (Update, error) {
	env, err := report.DecodeMessage(data)
	if err != nil {
		return Update{}, err
	}

	var u Update
	if env.Schema != nil {
		u.SchemaChanged = c.setSchema(env.Schema, 0)
	}
	if len(env.Prefs) > 0 {
		c.Prefs.ApplyServerDefaults(env.Prefs)
	}
	if env.Snapshot != nil {
		if len(env.Snapshot.Rejected) > 0 {
			logging.Warn("report", "panels with undecodable data: %v", env.Snapshot.Rejected)
		}
		u.Snapshot = true
		u.Version = c.Registry.SetSnapshot(env.Snapshot)
	}
	return u, nil
}

// setSchema replaces the schema. When sum is non-zero it identifies the
// schema source and unchanged sources are skipped.
func (c *Context) setSchema(s *report.Schema, sum uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sum != 0 && sum == c.schemaSum {
		return false
	}
	c.schemaSum = sum
	c.Registry.SetSchema(s)
	return true
}

// LoadFiles reads the configured report files into the registry.
func (c *Context) LoadFiles(r config.Report) (Update, error) {
	if r.Bundle != "" {
		data, err := os.ReadFile(r.Bundle)
		if err != nil {
			return Update{}, fmt.Errorf("read report: %w", err)
		}
		u, err := c.Apply(data)
		if err != nil {
			return Update{}, fmt.Errorf("load %s: %w", r.Bundle, err)
		}
		return u, nil
	}

	var u Update
	if r.Schema != "" {
		data, err := os.ReadFile(r.Schema)
		if err != nil {
			return Update{}, fmt.Errorf("read schema: %w", err)
		}
		schema, err := report.ParseSchema(data)
		if err != nil {
			return Update{}, fmt.Errorf("load %s: %w", r.Schema, err)
		}
		u.SchemaChanged = c.setSchema(schema, xxh3.Hash(data))
	}
	if r.Data != "" {
		data, err := os.ReadFile(r.Data)
		if err != nil {
			return Update{}, fmt.Errorf("read data: %w", err)
		}
		du, err := c.Apply(data)
		if err != nil {
			return Update{}, fmt.Errorf("load %s: %w", r.Data, err)
		}
		u.SchemaChanged = u.SchemaChanged || du.SchemaChanged
		u.Snapshot, u.Version = du.Snapshot, du.Version
	}
	return u, nil
}

// reportFiles lists the files a watcher should follow.
func reportFiles(r config.Report) []string {
	if r.Bundle != "" {
		return []string{r.Bundle}
	}
	var out []string
	for _, p := range []string{r.Schema, r.Data} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
