package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/voskscribe/voskscribe/internal/audio"
	"github.com/voskscribe/voskscribe/internal/config"
	"github.com/voskscribe/voskscribe/internal/download"
	"github.com/voskscribe/voskscribe/internal/engine"
	"github.com/voskscribe/voskscribe/internal/transcribe"
	"go.uber.org/zap"
)

func (a *appState) runTranscription(ctx context.Context, out io.Writer, audioPath string) error {
	audioPath = filepath.Clean(audioPath)

	modelPath, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return err
	}

	a.log().Debug("transcribing", zap.String("audio", audioPath), zap.String("model", modelPath))
	progress := a.progressEnabled()
	stopSpinner := startSpinner(progress, "Loading model")
	bar := noopByteProgress()

	summary, err := transcribe.Run(ctx, a.recognitionEngine(), transcribe.Options{
		AudioPath: audioPath,
		ModelPath: modelPath,
		Out:       out,
		Logger:    a.log(),
		OnStreamReady: func(total int64) {
			stopSpinner()
			bar = startByteProgress(progress, "Transcribing", total)
		},
		OnChunk: func(n int) {
			bar.add(n)
		},
	})
	stopSpinner()
	bar.stop()

	if err != nil {
		if errors.Is(err, audio.ErrFormatMismatch) {
			fmt.Fprintln(out, formatDiagnostic)
			return reportedError(ExitUsage, err)
		}
		a.log().Debug("transcription failed", zap.Error(err))
		return fmt.Errorf("transcribe %s: %w", audioPath, err)
	}

	if summary.Blank {
		a.log().Info(noSpeechHint())
	}
	return nil
}

// ensureModelAvailable resolves the configured model to a directory,
// installing a named model first when auto-download is on.
func (a *appState) ensureModelAvailable(ctx context.Context) (string, error) {
	if strings.TrimSpace(a.model) == "" {
		return "", userError("no model configured; pass --model <dir|name> or set %s (see \"voskscribe models\")", config.EnvModel)
	}

	// Custom model paths do not need a storage directory.
	modelDir, dirErr := a.modelStorageDir()

	resolved, err := engine.ResolveModel(a.model, modelDir)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownModel) {
			return "", userError("%w", err)
		}
		if dirErr != nil {
			return "", fmt.Errorf("%w (model directory: %v)", err, dirErr)
		}
		return "", err
	}

	if !resolved.NeedsDownload {
		return resolved.Path, nil
	}

	if !a.autoDownload {
		return "", fmt.Errorf("model %q is missing at %s; run `voskscribe setup --model %s` or use --auto-download", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := a.installModel(ctx, resolved, resolved.SHA256, false); err != nil {
		return "", err
	}
	return resolved.Path, nil
}

// installModel downloads a registry model archive and unpacks it into the
// model directory.
func (a *appState) installModel(ctx context.Context, resolved engine.ResolvedModel, expectedSHA256 string, replace bool) error {
	installer := download.Installer{
		Fetch:      a.downloadFn,
		NoProgress: a.noProgress,
		Logger:     a.log(),
	}
	return installer.Install(ctx, download.ModelArchive{
		Name:        resolved.Name,
		URL:         resolved.URL,
		SHA256:      expectedSHA256,
		Dir:         resolved.Path,
		ArchivePath: resolved.ArchivePath,
		Replace:     replace,
	})
}
