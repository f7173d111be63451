package main

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"devicemgr/internal/accelerator"
	"devicemgr/internal/provider"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List installed execution providers and which are selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env := a.stack.Environment(ctx)
			installed := provider.NewSet(env.Installed()...)
			// forced CPU resolves without an inventory
			if installed.Len() == 0 {
				var err error
				installed, err = a.stack.Inventory().Installed(ctx)
				if err != nil {
					a.logger.Warn("provider.inventory.failed", "Could not check ONNX Runtime providers", map[string]interface{}{
						"error": err.Error(),
					})
					installed = provider.Fallback()
				}
			}
			cmd.Print(providersTable(installed, env))
			return nil
		},
	}
}

func providersTable(installed provider.Set, env *accelerator.Environment) string {
	priority := map[provider.ID]int{}
	for i, id := range env.Providers() {
		priority[id] = i + 1
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)

	table.SetHeader([]string{"PROVIDER", "SELECTED"})
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, // PROVIDER
		tablewriter.ALIGN_LEFT, // SELECTED
	})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	for _, id := range installed.List() {
		selected := "-"
		if p, ok := priority[id]; ok {
			selected = fmt.Sprintf("#%d", p)
		}
		table.Append([]string{string(id), selected})
	}

	table.Render()
	return buf.String()
}
