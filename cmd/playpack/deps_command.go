package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"playpack/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Report availability of required external binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Default(cfg))
			rows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				availability := "ok"
				detail := status.Command
				if !status.Available {
					availability = "missing"
					detail = status.Detail
					missing++
				}
				rows = append(rows, []string{status.Name, availability, detail, status.Description})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderRows(
				[]string{"Dependency", "Status", "Detail", "Used for"},
				rows,
			))

			if missing > 0 {
				return fmt.Errorf("%d required binaries missing", missing)
			}
			return nil
		},
	}
}
