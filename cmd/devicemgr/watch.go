package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"devicemgr/internal/monitor"
	"devicemgr/internal/telemetry"
)

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	var record string

	c := &cobra.Command{
		Use:   "watch",
		Short: "Watch device memory live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env := a.stack.Environment(ctx)
			model := monitor.NewModel(env, a.stack.Telemetry(ctx), interval)
			if record != "" {
				model = model.WithRecorder(telemetry.NewWriter(record, a.logger))
			}

			_, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			return err
		},
	}

	c.Flags().DurationVar(&interval, "interval", monitor.DefaultInterval, "polling interval")
	c.Flags().StringVar(&record, "record", "", "append every sample to a JSONL file")
	return c
}
