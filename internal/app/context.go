package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/five82/glance/internal/chart"
	"github.com/five82/glance/internal/config"
	"github.com/five82/glance/internal/prefs"
	"github.com/five82/glance/internal/state"
	"github.com/five82/glance/internal/table"
	"github.com/five82/glance/internal/ui"
)

// Context holds every shared component of a running glance. It replaces
// package-level state: components reach each other only through it.
type Context struct {
	Config   config.Config
	Registry *state.Registry
	Prefs    *prefs.Store
	Pipeline *table.Pipeline
	Charts   *chart.Synchronizer

	closers []io.Closer

	mu        sync.Mutex
	schemaSum uint64
}

// NewContext opens preference storage and wires the render components.
func NewContext(cfg config.Config) (*Context, error) {
	storage, closer, err := openStorage(cfg.Prefs)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Config:   cfg,
		Registry: &state.Registry{},
		Prefs:    prefs.Open(storage),
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}

	if server := strings.TrimSpace(cfg.Prefs.Server); server != "" {
		var tree map[string]any
		if err := json.Unmarshal([]byte(server), &tree); err != nil {
			c.Close()
			return nil, fmt.Errorf("parse server prefs: %w", err)
		}
		c.Prefs.ApplyServerDefaults(tree)
	}

	c.Pipeline = table.New(c.Registry, c.Prefs)
	c.Charts = chart.New(c.Registry, c.Pipeline, c.Prefs, ui.ChartPainter{})
	c.Pipeline.OnExpand(c.Charts.HandleExpand)
	return c, nil
}

func openStorage(p config.Prefs) (prefs.Storage, io.Closer, error) {
	switch p.Backend {
	case config.BackendMemory:
		return &prefs.MemoryStorage{}, nil, nil
	case config.BackendSQLite:
		db, err := prefs.OpenSQLite(p.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open prefs database: %w", err)
		}
		return db, db, nil
	default:
		return prefs.FileStorage{Path: p.Path}, nil, nil
	}
}

// Close releases preference storage.
func (c *Context) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
