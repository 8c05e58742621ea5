package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/voskscribe/voskscribe/internal/engine"
)

func newModelsCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List named models and whether they are installed",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range engine.ModelNames() {
				resolved, err := engine.ResolveModel(name, modelDir)
				if err != nil {
					return err
				}
				status := "installed"
				if resolved.NeedsDownload {
					status = "not installed"
				}
				model, _ := engine.LookupModel(name)
				fmt.Fprintf(out, "%-12s %-30s %s\n", name, model.DirName, status)
			}
			return nil
		},
	}

	bindConfigFlag(cmd, app)
	bindLoggingFlags(cmd, app)
	bindModelFlags(cmd, app)

	return cmd
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
