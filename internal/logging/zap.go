package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options select the stderr logger flavor. Stdout belongs to the transcript.
type Options struct {
	Verbose bool
	JSON    bool
	// Color enables ANSI level colors; set it only when stderr is a terminal.
	Color bool
}

func New(opts Options) (*zap.Logger, error) {
	return config(opts).Build()
}

// config keeps a normal run silent: only warnings and errors are written
// unless Verbose lowers the level to debug.
func config(opts Options) zap.Config {
	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	if !opts.JSON {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = ""
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if opts.Color {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.EncoderConfig.EncodeCaller = nil
	}

	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !opts.Verbose

	return cfg
}
