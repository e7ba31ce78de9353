package main

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/five82/glance/internal/app"
	"github.com/five82/glance/internal/prefs"
)

func newPrefsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or change stored preferences",
	}
	cmd.AddCommand(newPrefsGetCmd(opts), newPrefsSetCmd(opts))
	return cmd
}

func newPrefsGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get [panel]",
		Short: "Print the merged preference tree, or one panel's entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openPrefs(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 0 {
				return writeJSON(cmd.OutOrStdout(), c.Prefs.Tree())
			}
			v, ok := c.Prefs.Lookup(prefs.Path{prefs.KeyPanels, args[0]})
			if !ok {
				v = map[string]any{}
			}
			return writeJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newPrefsSetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <path> <json>",
		Short: "Set a preference, e.g. prefs set panels.hosts.metric '\"hits\"'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := prefs.ParsePath(args[0])
			if err != nil {
				return err
			}
			value, err := parseValue(args[1])
			if err != nil {
				return err
			}

			c, err := openPrefs(cmd, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Prefs.Set(path, value); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", path, strings.TrimSpace(args[1]))
			return err
		},
	}
}

func openPrefs(cmd *cobra.Command, opts *options) (*app.Context, error) {
	cfg, err := opts.loadForOutput(cmd)
	if err != nil {
		return nil, err
	}
	return app.NewContext(cfg)
}

// parseValue decodes a JSON literal. Bare words that are not JSON are taken
// as strings so that `prefs set theme Slate` works.
func parseValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("value is empty")
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		if strings.ContainsAny(raw[:1], `{["`) {
			return nil, fmt.Errorf("parse value: %w", err)
		}
		return raw, nil
	}
	return v, nil
}
