package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fetchZip(t *testing.T, entries map[string]string, seen *Options) Fetcher {
	return func(_ context.Context, opts Options) error {
		if seen != nil {
			*seen = opts
		}
		writeZip(t, opts.Destination, entries)
		return nil
	}
}

func TestInstallUnpacksModel(t *testing.T) {
	t.Parallel()

	storage := t.TempDir()
	dir := filepath.Join(storage, "vosk-model-small-de-0.15")
	var seen Options

	installer := Installer{Fetch: fetchZip(t, map[string]string{
		"vosk-model-small-de-0.15/am/final.mdl":    "am",
		"vosk-model-small-de-0.15/conf/model.conf": "conf",
	}, &seen), NoProgress: true}

	err := installer.Install(context.Background(), ModelArchive{
		Name:   "small-de",
		URL:    "https://models.example/vosk-model-small-de-0.15.zip",
		SHA256: "abc",
		Dir:    dir,
	})
	require.NoError(t, err)
	require.Equal(t, "https://models.example/vosk-model-small-de-0.15.zip", seen.URL)
	require.Equal(t, "abc", seen.ExpectedSHA256)
	require.True(t, seen.NoProgress)
	require.Equal(t, dir+".zip", seen.Destination)

	require.FileExists(t, filepath.Join(dir, "am", "final.mdl"))
	require.NoFileExists(t, dir+".zip")

	entries, err := os.ReadDir(storage)
	require.NoError(t, err)
	require.Len(t, entries, 1, "staging directory must be cleaned up")
}

func TestInstallRejectsArchiveWithoutModelDirectory(t *testing.T) {
	t.Parallel()

	storage := t.TempDir()
	dir := filepath.Join(storage, "vosk-model-small-fr-0.22")
	installer := Installer{Fetch: fetchZip(t, map[string]string{"other-model/conf/model.conf": "x"}, nil)}

	err := installer.Install(context.Background(), ModelArchive{Name: "small-fr", URL: "u", Dir: dir})
	require.Error(t, err)
	require.Contains(t, err.Error(), "other-model")
	require.NoDirExists(t, dir)

	entries, err := os.ReadDir(storage)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestInstallReplacesExistingModel(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "vosk-model-small-es-0.42")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	installer := Installer{Fetch: fetchZip(t, map[string]string{"vosk-model-small-es-0.42/conf/model.conf": "new"}, nil)}

	err := installer.Install(context.Background(), ModelArchive{Name: "small-es", URL: "u", Dir: dir})
	require.Error(t, err, "an installed model stays untouched without Replace")
	require.FileExists(t, stale)

	err = installer.Install(context.Background(), ModelArchive{Name: "small-es", URL: "u", Dir: dir, Replace: true})
	require.NoError(t, err)
	require.NoFileExists(t, stale)
	require.FileExists(t, filepath.Join(dir, "conf", "model.conf"))
}

func TestInstallReportsFetchFailure(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "vosk-model-small-ru-0.22")
	installer := Installer{Fetch: func(context.Context, Options) error {
		return errors.New("connection refused")
	}}

	err := installer.Install(context.Background(), ModelArchive{Name: "small-ru", URL: "u", Dir: dir})
	require.ErrorContains(t, err, `download model "small-ru": connection refused`)
	require.NoDirExists(t, dir)
}
