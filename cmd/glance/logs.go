package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/glance/internal/logging"
)

func newLogsCmd(opts *options) *cobra.Command {
	var (
		lines     int
		level     string
		subsystem string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the viewer log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			filter := logging.Filter{Subsystem: subsystem}
			if level != "" {
				filter.MinLevel = logging.ParseLevel(level)
			}
			out, err := logging.Tail(cfg.Log.Path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range out {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines")
	cmd.Flags().StringVar(&level, "level", "", "minimum level to show")
	cmd.Flags().StringVar(&subsystem, "subsystem", "", "only lines from this subsystem (live, prefs, watch, ...)")
	return cmd
}
