// Package vosk adapts the Vosk speech recognition library to engine.Engine.
package vosk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	voskapi "github.com/alphacep/vosk-api/go"
	"github.com/voskscribe/voskscribe/internal/engine"
	"go.uber.org/zap"
)

// Engine binds the Kaldi-based Vosk library through cgo.
type Engine struct {
	Logger *zap.Logger
}

func NewEngine(logger *zap.Logger, verbose bool) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Kaldi writes its own diagnostics to stderr; keep them for --verbose only.
	if verbose {
		voskapi.SetLogLevel(0)
	} else {
		voskapi.SetLogLevel(-1)
	}

	return &Engine{Logger: logger}
}

func (e *Engine) LoadModel(path string) (engine.Model, error) {
	if err := ensureModelDir(path); err != nil {
		return nil, err
	}

	e.Logger.Debug("loading vosk model", zap.String("path", path))
	// The error is always nil in the binding; ensureModelDir is the guard.
	m, _ := voskapi.NewModel(path)
	return &model{m: m, logger: e.Logger}, nil
}

type model struct {
	m      *voskapi.VoskModel
	logger *zap.Logger
}

func (m *model) NewRecognizer(sampleRate float64) (engine.Recognizer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	rec, _ := voskapi.NewRecognizer(m.m, sampleRate)
	m.logger.Debug("vosk recognizer ready", zap.Float64("sample_rate", sampleRate))
	return &recognizer{r: rec}, nil
}

func (m *model) Close() {
	m.m.Free()
}

type recognizer struct {
	r *voskapi.VoskRecognizer
}

func (r *recognizer) AcceptWaveform(pcm []byte) (bool, error) {
	switch r.r.AcceptWaveform(pcm) {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, errors.New("vosk recognizer rejected audio chunk")
	}
}

func (r *recognizer) Result() string {
	return r.r.Result()
}

func (r *recognizer) FinalResult() string {
	return r.r.FinalResult()
}

func (r *recognizer) Close() {
	r.r.Free()
}

// ensureModelDir checks for the files the native loader reads before it
// returns a model. The binding reports a failed load as a nil handle with no
// error, and the recognizer would then dereference it, so an incomplete
// directory has to be caught here.
func ensureModelDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("model directory does not exist: %s", path)
		}
		return fmt.Errorf("stat model directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("model path %s is not a directory", path)
	}

	var missing []string
	if !isFile(path, "am", "final.mdl") {
		missing = append(missing, "am/final.mdl")
	}
	if !isFile(path, "conf", "model.conf") && !isFile(path, "conf", "mfcc.conf") {
		missing = append(missing, "conf/model.conf")
	}
	if !isFile(path, "graph", "HCLG.fst") && !(isFile(path, "graph", "HCLr.fst") && isFile(path, "graph", "Gr.fst")) {
		missing = append(missing, "graph/HCLG.fst or graph/HCLr.fst with graph/Gr.fst")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is not a complete vosk model (missing %s)", path, strings.Join(missing, ", "))
	}
	return nil
}

func isFile(parts ...string) bool {
	info, err := os.Stat(filepath.Join(parts...))
	return err == nil && info.Mode().IsRegular()
}
