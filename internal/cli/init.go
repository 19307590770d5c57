package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize driver storage",
		Long:  "Create the configuration and data directories, then initialize the record database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			if err := store.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "driver initialized in %s\n", a.dataDir)
			return nil
		},
	}
}
