package main

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func newMemoryCmd(a *app) *cobra.Command {
	var raw bool

	c := &cobra.Command{
		Use:   "memory",
		Short: "Sample device memory once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env := a.stack.Environment(ctx)
			reading := a.stack.Telemetry(ctx).Sample(ctx)

			if raw {
				cmd.Printf("%d %d\n", reading.UsedMB, reading.TotalMB)
				return nil
			}
			if !env.IsAccelerated() {
				cmd.Printf("No device memory: compute runs on %s\n", env.DeviceString())
				return nil
			}
			if reading.TotalMB == 0 {
				cmd.Println("Device memory unavailable")
				return nil
			}
			cmd.Printf("%s (via %s)\n", memoryText(reading.UsedMB, reading.TotalMB), reading.Source)
			return nil
		},
	}

	c.Flags().BoolVar(&raw, "raw", false, "print used and total MB only")
	return c
}

func memoryText(usedMB, totalMB int) string {
	if totalMB == 0 {
		return "0B / 0B"
	}
	return fmt.Sprintf("%s / %s (%.0f%%)",
		humanBytes(uint64(usedMB)*units.MiB),
		humanBytes(uint64(totalMB)*units.MiB),
		100*float64(usedMB)/float64(totalMB))
}

func humanBytes(n uint64) string {
	return units.BytesSize(float64(n))
}
