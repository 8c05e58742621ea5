package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/voskscribe/voskscribe/internal/engine"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	var (
		checksum string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download and install a named Vosk model",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.model == "" {
				return userError("setup needs a model name; pass --model (known models: %s)", joinNames(engine.ModelNames()))
			}

			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			resolved, err := engine.ResolveModel(app.model, modelDir)
			if err != nil {
				return userError("%w", err)
			}
			if resolved.IsCustomPath {
				return userError("setup expects a named model; got custom path %s", resolved.Path)
			}

			if !resolved.NeedsDownload && !force {
				app.log().Info("model already present", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
				fmt.Fprintf(cmd.OutOrStdout(), "Model %s already present at %s\n", resolved.Name, resolved.Path)
				return nil
			}

			expected := resolved.SHA256
			if checksum != "" {
				expected = checksum
			}

			if err := app.installModel(cmd.Context(), resolved, expected, !resolved.NeedsDownload); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model %s installed at %s\n", resolved.Name, resolved.Path)
			return nil
		},
	}

	bindConfigFlag(cmd, app)
	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindModelFlags(cmd, app)
	cmd.Flags().StringVar(&checksum, "sha256", "", "Expected SHA-256 of the model archive")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even if the model is already present")

	return cmd
}
