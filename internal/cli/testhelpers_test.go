package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voskscribe/voskscribe/internal/download"
	"github.com/voskscribe/voskscribe/internal/engine"
)

type scriptedEngine struct {
	// utterances are returned one per completed chunk, in order.
	utterances []string
	final      string
	loadErr    error
	loaded     []string
}

func (e *scriptedEngine) LoadModel(path string) (engine.Model, error) {
	e.loaded = append(e.loaded, path)
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return &scriptedModel{engine: e}, nil
}

type scriptedModel struct {
	engine *scriptedEngine
}

func (m *scriptedModel) NewRecognizer(float64) (engine.Recognizer, error) {
	return &scriptedRecognizer{pending: append([]string(nil), m.engine.utterances...), final: m.engine.final}, nil
}

func (m *scriptedModel) Close() {}

type scriptedRecognizer struct {
	pending []string
	final   string
}

func (r *scriptedRecognizer) AcceptWaveform([]byte) (bool, error) {
	return len(r.pending) > 0, nil
}

func (r *scriptedRecognizer) Result() string {
	text := r.pending[0]
	r.pending = r.pending[1:]
	return fmt.Sprintf("{\n  \"text\" : \"%s\"\n}", text)
}

func (r *scriptedRecognizer) FinalResult() string {
	return fmt.Sprintf("{\n  \"text\" : \"%s\"\n}", r.final)
}

func (r *scriptedRecognizer) Close() {}

func newTestApp(eng engine.Engine) *appState {
	app := newAppState(nil)
	app.engineFn = func() engine.Engine { return eng }
	app.isTerminal = func(int) bool { return false }
	app.downloadFn = func(context.Context, download.Options) error {
		return errors.New("network disabled in tests")
	}
	return app
}

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runAppCommand(t, newTestApp(&scriptedEngine{}), args)
}

func runAppCommand(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(app)
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{}, args...))

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// makeModelDir creates a directory that passes the model layout check.
func makeModelDir(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "am"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "conf"), 0o755))
	return dir
}

func writeTestWAV(t *testing.T, samples []int16, sampleRate int, channels int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(path, makePCM16WAVForTest(samples, sampleRate, channels), 0o644))
	return path
}

// writeModelZip returns an archive holding dirName/conf/model.conf.
func writeModelZip(t *testing.T, path string, dirName string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(dirName + "/conf/model.conf")
	require.NoError(t, err)
	_, err = w.Write([]byte("--sample-frequency=16000\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func makePCM16WAVForTest(samples []int16, sampleRate int, channels int) []byte {
	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}
