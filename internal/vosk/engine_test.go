package vosk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModelFiles(t *testing.T, dir string, files ...string) {
	t.Helper()

	for _, rel := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func TestEnsureModelDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.ErrorContains(t, ensureModelDir(filepath.Join(dir, "missing")), "does not exist")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.ErrorContains(t, ensureModelDir(file), "is not a directory")

	tests := []struct {
		name    string
		files   []string
		missing string
	}{
		{name: "empty", files: nil, missing: "am/final.mdl, conf/model.conf, graph/HCLG.fst"},
		{name: "am only", files: []string{"am/final.mdl"}, missing: "conf/model.conf"},
		{name: "conf only", files: []string{"conf/model.conf"}, missing: "am/final.mdl"},
		{name: "no graph", files: []string{"am/final.mdl", "conf/model.conf"}, missing: "graph/HCLG.fst"},
		{name: "lookahead graph half", files: []string{"am/final.mdl", "conf/model.conf", "graph/HCLr.fst"}, missing: "graph/HCLr.fst with graph/Gr.fst"},
		{name: "static graph", files: []string{"am/final.mdl", "conf/model.conf", "graph/HCLG.fst"}},
		{name: "lookahead graph", files: []string{"am/final.mdl", "conf/model.conf", "graph/HCLr.fst", "graph/Gr.fst"}},
		{name: "legacy conf", files: []string{"am/final.mdl", "conf/mfcc.conf", "graph/HCLG.fst"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model := t.TempDir()
			writeModelFiles(t, model, tt.files...)
			err := ensureModelDir(model)
			if tt.missing == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, "is not a complete vosk model")
			require.ErrorContains(t, err, tt.missing)
		})
	}
}

func TestLoadModelRejectsIncompleteDirectoryBeforeNativeLoad(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(nil, false).LoadModel(filepath.Join(t.TempDir(), "nope"))
	require.ErrorContains(t, err, "model directory does not exist")

	partial := t.TempDir()
	writeModelFiles(t, partial, "conf/model.conf")
	_, err = NewEngine(nil, false).LoadModel(partial)
	require.ErrorContains(t, err, "missing am/final.mdl")
}
