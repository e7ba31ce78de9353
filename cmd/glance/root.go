package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/glance/internal/app"
	"github.com/five82/glance/internal/config"
	"github.com/five82/glance/internal/logging"
)

// options holds the persistent flags. Flags that were set override the
// config file.
type options struct {
	configPath string
	schema     string
	data       string
	bundle     string
	url        string
	watch      bool
	ping       time.Duration
	prefsJSON  string
	backend    string
	prefsPath  string
	logPath    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "glance",
		Short: "Live terminal viewer for web log reports",
		Long: `glance renders a GoAccess-style report (a UI schema plus data snapshots)
as navigable panels with tables and charts. Snapshots come from report files,
optionally watched for changes, or from a live WebSocket channel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, opts)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/glance/config.toml)")
	f.StringVar(&opts.schema, "schema", "", "UI schema JSON file")
	f.StringVar(&opts.data, "data", "", "data snapshot JSON file")
	f.StringVar(&opts.bundle, "report", "", "combined report file holding uiData and panelData")
	f.StringVar(&opts.url, "url", "", "live channel address (ws://host:port)")
	f.BoolVar(&opts.watch, "watch", false, "reload report files when they change")
	f.DurationVar(&opts.ping, "ping", 0, "keep-alive interval on the live channel")
	f.StringVar(&opts.prefsJSON, "prefs-json", "", "JSON object of default preferences")
	f.StringVar(&opts.backend, "prefs-backend", "", "preference storage: file, sqlite or memory")
	f.StringVar(&opts.prefsPath, "prefs-path", "", "preference storage location")
	f.StringVar(&opts.logPath, "log-file", "", "log file used while the UI runs")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newViewCmd(opts), newDumpCmd(opts), newPrefsCmd(opts), newLogsCmd(opts))
	return root
}

func newViewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Open the interactive viewer (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, opts)
		},
	}
}

func runView(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logging.Init(logFile, logging.ParseLevel(cfg.Log.Level))
	logging.Info("main", "starting viewer")

	return app.Run(cmd.Context(), cfg)
}

// load reads the config file and applies the flags that were set.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("schema") {
		cfg.Report.Schema = config.ExpandPath(o.schema)
	}
	if changed("data") {
		cfg.Report.Data = config.ExpandPath(o.data)
	}
	if changed("report") {
		cfg.Report.Bundle = config.ExpandPath(o.bundle)
	}
	if changed("watch") {
		cfg.Report.Watch = o.watch
	}
	if changed("url") {
		cfg.Connection.URL = o.url
	}
	if changed("ping") {
		cfg.Connection.PingInterval = o.ping
	}
	if changed("prefs-json") {
		cfg.Prefs.Server = o.prefsJSON
	}
	if changed("prefs-backend") {
		switch o.backend {
		case config.BackendFile, config.BackendSQLite, config.BackendMemory:
			if o.backend != cfg.Prefs.Backend {
				cfg.Prefs.Path = config.DefaultPrefsPath(o.backend)
			}
			cfg.Prefs.Backend = o.backend
		default:
			return config.Config{}, fmt.Errorf("unknown prefs backend %q", o.backend)
		}
	}
	if changed("prefs-path") {
		cfg.Prefs.Path = config.ExpandPath(o.prefsPath)
	}
	if changed("log-file") {
		cfg.Log.Path = config.ExpandPath(o.logPath)
	}
	if changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// loadForOutput is load for the commands that print to stdout; they log to
// stderr.
func (o *options) loadForOutput(cmd *cobra.Command) (config.Config, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}
