package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/hora/internal/app"
	"github.com/runoshun/hora/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the task store",
		Long: `Prepare the configured store backend for use.

- json: creates tasks.json in the data directory
- git: creates the bare tasks.git repository and its marker ref
- postgres: creates the hora_tasks and hora_worklogs tables

Running init again is harmless.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitStoreUseCase().Execute(cmd.Context(), usecase.InitStoreInput{})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s store in %s\n", out.Backend, c.Config.DataDir)
			return nil
		},
	}
}
