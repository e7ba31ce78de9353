package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/five82/glance/internal/config"
	"github.com/five82/glance/internal/live"
	"github.com/five82/glance/internal/logging"
	"github.com/five82/glance/internal/state"
	"github.com/five82/glance/internal/ui"
	"github.com/five82/glance/internal/watch"
)

// sender is the part of *tea.Program the feeds need.
type sender interface {
	Send(msg tea.Msg)
}

// Run boots glance until the user quits or the context is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	files := reportFiles(cfg.Report)
	if len(files) == 0 && !cfg.Connection.Live() {
		return ErrNoReport
	}

	c, err := NewContext(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if len(files) > 0 {
		if _, err := c.LoadFiles(cfg.Report); err != nil {
			return err
		}
	}

	isLive := cfg.Connection.Live()
	if isLive {
		c.Registry.SetLink(state.Link{Status: string(live.StatusConnecting)})
	} else {
		c.Registry.SetLink(state.Link{Status: ui.StatusOffline})
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	program := ui.NewProgram(ui.Options{
		Registry: c.Registry,
		Prefs:    c.Prefs,
		Pipeline: c.Pipeline,
		Charts:   c.Charts,
		Source:   source(cfg),
		Live:     isLive,
	}, tea.WithContext(runCtx))

	var feed func(context.Context) error
	switch {
	case isLive:
		m, err := c.newManager(nil, program)
		if err != nil {
			return err
		}
		feed = m.Run
	case cfg.Report.Watch:
		w, err := watch.New(files, c.reloader(program))
		if err != nil {
			return fmt.Errorf("watch report: %w", err)
		}
		feed = w.Run
	}

	g.Go(func() error {
		// Quitting the UI stops the feed.
		defer stop()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	})
	if feed != nil {
		g.Go(func() error { return feed(runCtx) })
	}

	return g.Wait()
}

func source(cfg config.Config) string {
	if cfg.Connection.Live() {
		return cfg.Connection.URL
	}
	if cfg.Report.Bundle != "" {
		return cfg.Report.Bundle
	}
	return cfg.Report.Data
}

// newManager builds the live connection manager from the connection config.
// A nil dialer uses the websocket transport.
func (c *Context) newManager(dialer live.Dialer, sink sender) (*live.Manager, error) {
	conn := c.Config.Connection
	opts := live.Options{
		URL:       conn.URL,
		Dialer:    dialer,
		OnMessage: c.liveSink(sink),
		OnStatus:  c.statusSink(sink),
		Config: live.Config{
			PingInterval:   conn.PingInterval,
			MaxRetries:     conn.MaxRetries,
			BackoffFloor:   conn.BackoffFloor,
			BackoffCeiling: conn.BackoffCeiling,
			RefreshLead:    conn.RefreshLead,
		},
	}
	if conn.Authenticated() {
		tokens, err := live.NewAuthClient(live.AuthOptions{
			IssueURL:      conn.AuthURL,
			RefreshURL:    conn.RefreshURL,
			SessionCookie: conn.SessionCookie,
		})
		if err != nil {
			return nil, fmt.Errorf("init auth client: %w", err)
		}
		opts.Tokens = tokens
	}
	m, err := live.NewManager(opts)
	if err != nil {
		return nil, fmt.Errorf("init live channel: %w", err)
	}
	return m, nil
}

// liveSink stores each inbound message and wakes the UI.
func (c *Context) liveSink(sink sender) func([]byte) {
	return func(data []byte) {
		u, err := c.Apply(data)
		if err != nil {
			logging.Warn("live", "dropping message: %v", err)
			return
		}
		c.notify(sink, u)
	}
}

// statusSink records link changes and forwards them to the UI.
func (c *Context) statusSink(sink sender) func(live.StatusUpdate) {
	return func(s live.StatusUpdate) {
		link := state.Link{Status: string(s.Status), Retries: s.Retries}
		switch s.Status {
		case live.StatusAuthFailed:
			link.Detail = "authentication rejected"
		case live.StatusHalted:
			link.Detail = "gave up reconnecting"
		case live.StatusDisconnected:
			if s.Retry > 0 {
				link.Detail = fmt.Sprintf("retrying in %s", s.Retry)
			}
		}
		c.Registry.SetLink(link)
		sink.Send(ui.LinkMsg(c.Registry.Link()))
	}
}

// reloader re-reads the report files after the watcher saw them change.
func (c *Context) reloader(sink sender) func() {
	return func() {
		u, err := c.LoadFiles(c.Config.Report)
		if err != nil {
			// Half-written files are common; the next write triggers again.
			logging.Warn("watch", "reload report: %v", err)
			return
		}
		c.notify(sink, u)
	}
}

func (c *Context) notify(sink sender, u Update) {
	if !u.Snapshot && !u.SchemaChanged {
		return
	}
	sink.Send(ui.SnapshotMsg{SchemaChanged: u.SchemaChanged})
}
