package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/WorldBank-Transport/DRIVER-Android-sub000"

// Version is the driver version, set at build time with
// -ldflags "-X <module>/internal/cli.Version=...".
var Version = "0.1.0-dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the driver version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "driver v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
