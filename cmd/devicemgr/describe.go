package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"devicemgr/internal/accelerator"
	"devicemgr/internal/fsutil"
)

func newDescribeCmd(a *app) *cobra.Command {
	var format, output string
	var withHost bool

	c := &cobra.Command{
		Use:   "describe",
		Short: "Describe the resolved environment in detail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env := a.stack.Environment(ctx)
			info := accelerator.Describe(ctx, env, a.stack.Telemetry(ctx))

			if withHost && a.collect != nil {
				host, err := a.collect()
				if err != nil {
					a.logger.Warn("host.info.failed", "Could not read host info", map[string]interface{}{
						"error": err.Error(),
					})
				} else {
					info.Host = host
				}
			}

			data, err := renderInfo(info, format)
			if err != nil {
				return err
			}

			if output != "" {
				if err := fsutil.AtomicWriteFile(output, data, fsutil.DefaultFilePermissions, a.logger); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				cmd.Printf("Wrote %s\n", output)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	c.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	c.Flags().StringVarP(&output, "output", "o", "", "write to FILE instead of stdout")
	c.Flags().BoolVar(&withHost, "host", true, "include a host summary")
	return c
}

func renderInfo(info accelerator.Info, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(info)
	case "text", "":
		return infoTable(info), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func infoTable(info accelerator.Info) []byte {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)

	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, // FIELD
		tablewriter.ALIGN_LEFT, // VALUE
	})

	table.Append([]string{"Device type", info.DeviceType})
	table.Append([]string{"Device", info.DeviceString})
	table.Append([]string{"Providers", strings.Join(info.Providers, ", ")})
	table.Append([]string{"GPU available", strconv.FormatBool(info.GPUAvailable)})
	table.Append([]string{"DirectML", strconv.FormatBool(info.DirectML)})
	table.Append([]string{"Vendor", info.Vendor})
	if info.GPUName != "" {
		table.Append([]string{"GPU", info.GPUName})
	}
	if info.ComputeCapability != "" {
		table.Append([]string{"Compute capability", info.ComputeCapability})
	}
	if info.MemoryUsedMB != nil && info.MemoryTotalMB != nil {
		table.Append([]string{"Memory", memoryText(*info.MemoryUsedMB, *info.MemoryTotalMB)})
	}
	if info.ForcedCPUReason != "" {
		table.Append([]string{"Forced CPU", info.ForcedCPUReason})
	}
	if len(info.InstalledProviders) > 0 {
		table.Append([]string{"Installed", strings.Join(info.InstalledProviders, ", ")})
	}
	for _, w := range info.Warnings {
		table.Append([]string{"Warning", w})
	}
	table.Append([]string{"Fingerprint", info.Fingerprint})
	if info.Host != nil {
		table.Append([]string{"Host", fmt.Sprintf("%s (%s, %s)", info.Host.Hostname, info.Host.OS, info.Host.Architecture)})
		if info.Host.MemoryTotal > 0 {
			table.Append([]string{"Host memory", humanBytes(info.Host.MemoryTotal)})
		}
	}

	table.Render()
	return buf.Bytes()
}
