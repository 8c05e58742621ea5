package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voskscribe/voskscribe/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "voskscribe v%s\n", version.Resolve())
			return nil
		},
	}
}
