package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"devicemgr/internal/accelerator"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af")).Width(12)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd700"))
)

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the selected device and execution providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := a.stack.Environment(commandContext(cmd))
			printResolved(cmd.OutOrStdout(), env)
			return nil
		},
	}
}

func printResolved(w io.Writer, env *accelerator.Environment) {
	line := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", labelStyle.Render(label), value)
	}

	line("Device", env.DeviceString())
	line("Providers", strings.Join(env.ProviderStrings(), ", "))
	if env.DeviceName() != "" {
		line("GPU", fmt.Sprintf("%s (%s)", env.DeviceName(), env.Vendor()))
	}
	if reason := env.ForcedCPUReason(); reason != accelerator.ReasonNone {
		line("Forced CPU", warnStyle.Render(reason.String()))
	}
	if env.IsDirectML() {
		line("Note", "CPU tensors with DirectML GPU inference")
	}
	for _, warning := range env.Warnings() {
		line("Warning", warnStyle.Render(warning))
	}
}
