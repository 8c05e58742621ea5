package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/voskscribe/voskscribe/internal/config"
	"github.com/voskscribe/voskscribe/internal/download"
	"github.com/voskscribe/voskscribe/internal/engine"
	"github.com/voskscribe/voskscribe/internal/logging"
	"github.com/voskscribe/voskscribe/internal/platform"
	"github.com/voskscribe/voskscribe/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// EngineFactory builds the recognition engine once flags and config are known.
type EngineFactory func(logger *zap.Logger, verbose bool) engine.Engine

type appState struct {
	configPath   string
	verbose      bool
	jsonLogs     bool
	noProgress   bool
	model        string
	modelDir     string
	autoDownload bool

	logger *zap.Logger

	engineFn   func() engine.Engine
	downloadFn download.Fetcher
	isTerminal func(fd int) bool
}

func newAppState(newEngine EngineFactory) *appState {
	app := &appState{
		downloadFn: download.DownloadFile,
		isTerminal: term.IsTerminal,
	}
	if newEngine != nil {
		app.engineFn = func() engine.Engine {
			return newEngine(app.log(), app.verbose)
		}
	}
	return app
}

func NewRootCmd(newEngine EngineFactory) *cobra.Command {
	return newRootCmd(newAppState(newEngine))
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voskscribe <audio_path>",
		Short: "Transcribe a 16 kHz mono 16-bit PCM WAV file with a Vosk model",
		Long: `Transcribe a 16 kHz mono 16-bit PCM WAV file with a Vosk model.

Each completed utterance is printed on its own line, followed by the final
result. A single argument naming an existing file is always read as the audio
path, even when it matches a subcommand name such as "setup".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(cmd.OutOrStdout(), usageLine)
				return reportedError(ExitUsage, fmt.Errorf("expected exactly one audio path, got %d argument(s)", len(args)))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.initialize(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTranscription(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	bindConfigFlag(cmd, app)
	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindModelFlags(cmd, app)
	bindModelDownloadFlag(cmd, app)

	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newModelsCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath()))
	}
	return nil
}

func bindConfigFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.configPath, "config", app.configPath, "YAML config file (default $"+config.EnvConfigPath+")")
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs, including engine diagnostics")
	cmd.Flags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", app.model, "Vosk model directory or registered model name (see \"voskscribe models\"); default $"+config.EnvModel)
	cmd.Flags().StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where named models are installed")
}

func bindModelDownloadFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Download a missing named model before transcribing")
}

// initialize merges the config file and environment under any flags given on
// the command line, then builds the logger.
func (a *appState) initialize(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return userError("load config: %w", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("model") {
		a.model = cfg.Model
	}
	if !flags.Changed("model-dir") {
		a.modelDir = cfg.ModelDir
	}
	if !flags.Changed("auto-download") {
		a.autoDownload = cfg.AutoDownload
	}
	if !flags.Changed("no-progress") {
		a.noProgress = cfg.NoProgress
	}
	if !flags.Changed("verbose") {
		a.verbose = cfg.Log.Verbose
	}
	if !flags.Changed("json") {
		a.jsonLogs = cfg.Log.JSON
	}

	logger, err := logging.New(logging.Options{
		Verbose: a.verbose,
		JSON:    a.jsonLogs,
		Color:   a.terminal(os.Stderr),
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *appState) modelStorageDir() (string, error) {
	return platform.ResolveModelDir(a.modelDir)
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) terminal(f *os.File) bool {
	isTerminal := a.isTerminal
	if isTerminal == nil {
		isTerminal = term.IsTerminal
	}
	return isTerminal(int(f.Fd()))
}

// progressEnabled keeps progress rendering off whenever stdout is a
// terminal, so bars on stderr never interleave with transcript lines.
func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return a.terminal(os.Stderr) && !a.terminal(os.Stdout)
}

// recognitionEngine is nil when no factory was wired in; the driver reports
// that as an engine error.
func (a *appState) recognitionEngine() engine.Engine {
	if a.engineFn == nil {
		return nil
	}
	return a.engineFn()
}
