// Package transcribe runs one file through a speech recognizer and prints
// each completed utterance as it is recognized.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/voskscribe/voskscribe/internal/audio"
	"github.com/voskscribe/voskscribe/internal/engine"
	"go.uber.org/zap"
)

const (
	SampleRate  = audio.RequiredSampleRate
	ChunkFrames = 4000
)

// silenceThresholdDBFS only feeds the end-of-run hint; it never gates
// recognition.
const silenceThresholdDBFS = -65

type Options struct {
	AudioPath string
	ModelPath string
	Out       io.Writer
	Logger    *zap.Logger

	// OnStreamReady fires once the model is loaded and the container has
	// been validated, with the size of the PCM payload about to be decoded.
	OnStreamReady func(dataBytes int64)
	// OnChunk fires after each chunk is handed to the recognizer.
	OnChunk func(n int)
}

type Summary struct {
	Chunks     int
	Utterances int
	Blank      bool
	Levels     audio.LevelMetrics
}

// Run loads the model, validates the audio container, and streams the audio
// in ChunkFrames-sized chunks. Each completed utterance's text is written to
// Out on its own line as soon as the recognizer reports it; the final result
// is always written last, even when empty. A container that is not mono
// 16-bit 16 kHz PCM yields audio.ErrFormatMismatch before anything is written.
func Run(ctx context.Context, eng engine.Engine, opts Options) (Summary, error) {
	if eng == nil {
		return Summary{}, errors.New("recognition engine is required")
	}
	if opts.Out == nil {
		return Summary{}, errors.New("output writer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	model, err := eng.LoadModel(opts.ModelPath)
	if err != nil {
		return Summary{}, err
	}
	defer model.Close()

	rec, err := model.NewRecognizer(SampleRate)
	if err != nil {
		return Summary{}, err
	}
	defer rec.Close()

	wav, err := audio.OpenWAV(opts.AudioPath)
	if err != nil {
		return Summary{}, err
	}
	defer wav.Close()

	if opts.OnStreamReady != nil {
		opts.OnStreamReady(wav.DataSize())
	}

	var (
		summary = Summary{Blank: true}
		meter   audio.Meter
		buf     = make([]byte, ChunkFrames*wav.Format().FrameSize())
		started = time.Now()
	)

	emit := func(payload string) error {
		text, err := engine.ExtractText(payload)
		if err != nil {
			return fmt.Errorf("parse recognizer result: %w", err)
		}
		if strings.TrimSpace(text) != "" {
			summary.Blank = false
		}
		if _, err := fmt.Fprintln(opts.Out, text); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		n, err := wav.ReadFrames(buf, ChunkFrames)
		if err != nil {
			return summary, err
		}
		if n == 0 {
			break
		}
		summary.Chunks++
		chunk := buf[:n]
		meter.Add(chunk)

		complete, err := rec.AcceptWaveform(chunk)
		if err != nil {
			return summary, fmt.Errorf("recognize chunk %d: %w", summary.Chunks, err)
		}
		if opts.OnChunk != nil {
			opts.OnChunk(n)
		}
		if !complete {
			continue
		}

		summary.Utterances++
		logger.Debug("utterance complete", zap.Int("chunk", summary.Chunks), zap.Int("utterance", summary.Utterances))
		if err := emit(rec.Result()); err != nil {
			return summary, err
		}
	}

	if err := emit(rec.FinalResult()); err != nil {
		return summary, err
	}

	summary.Levels = meter.Metrics()
	logger.Debug(
		"transcription finished",
		zap.Int("chunks", summary.Chunks),
		zap.Int("utterances", summary.Utterances),
		zap.Float64("rms_dbfs", summary.Levels.RMSdBFS),
		zap.Float64("peak_dbfs", summary.Levels.PeakdBFS),
		zap.Duration("elapsed", time.Since(started)),
	)
	if summary.Blank && summary.Levels.IsSilent(silenceThresholdDBFS) {
		logger.Debug("audio is near-silent", zap.Float64("threshold_dbfs", silenceThresholdDBFS))
	}

	return summary, nil
}
