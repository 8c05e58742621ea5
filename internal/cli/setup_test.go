package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voskscribe/voskscribe/internal/download"
	"github.com/voskscribe/voskscribe/internal/engine"
)

func TestSetupInstallsModel(t *testing.T) {
	t.Parallel()

	storage := t.TempDir()
	model, _ := engine.LookupModel("small-de")
	downloads := 0

	app := newTestApp(&scriptedEngine{})
	app.downloadFn = func(_ context.Context, opts download.Options) error {
		downloads++
		require.Equal(t, "abc123", opts.ExpectedSHA256)
		writeModelZip(t, opts.Destination, model.DirName)
		return nil
	}

	installed := filepath.Join(storage, model.DirName)
	stdout, _, err := runAppCommand(t, app, []string{"setup", "--model", "small-de", "--model-dir", storage, "--sha256", "abc123"})
	require.NoError(t, err)
	require.Equal(t, "Model small-de installed at "+installed+"\n", stdout)
	require.FileExists(t, filepath.Join(installed, "conf", "model.conf"))

	stdout, _, err = runAppCommand(t, app, []string{"setup", "--model", "small-de", "--model-dir", storage})
	require.NoError(t, err)
	require.Equal(t, "Model small-de already present at "+installed+"\n", stdout)
	require.Equal(t, 1, downloads)
}

func TestSetupForceReinstalls(t *testing.T) {
	t.Parallel()

	storage := t.TempDir()
	model, _ := engine.LookupModel("small-fr")
	installed := filepath.Join(storage, model.DirName)
	require.NoError(t, os.MkdirAll(installed, 0o755))
	stale := filepath.Join(installed, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	app := newTestApp(&scriptedEngine{})
	app.downloadFn = func(_ context.Context, opts download.Options) error {
		writeModelZip(t, opts.Destination, model.DirName)
		return nil
	}

	_, _, err := runAppCommand(t, app, []string{"setup", "--model", "small-fr", "--model-dir", storage, "--force"})
	require.NoError(t, err)
	require.NoFileExists(t, stale)
	require.FileExists(t, filepath.Join(installed, "conf", "model.conf"))
}

func TestSetupReportsDownloadFailure(t *testing.T) {
	t.Parallel()

	app := newTestApp(&scriptedEngine{})
	app.downloadFn = func(context.Context, download.Options) error {
		return errors.New("connection refused")
	}

	_, _, err := runAppCommand(t, app, []string{"setup", "--model", "small-ru", "--model-dir", t.TempDir()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "download model \"small-ru\"")
	require.Equal(t, ExitEngine, ExitCode(err))
}

func TestSetupRejectsArchiveWithoutModel(t *testing.T) {
	t.Parallel()

	app := newTestApp(&scriptedEngine{})
	app.downloadFn = func(_ context.Context, opts download.Options) error {
		writeModelZip(t, opts.Destination, "something-else")
		return nil
	}

	_, _, err := runAppCommand(t, app, []string{"setup", "--model", "small-es", "--model-dir", t.TempDir()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "something-else")
}

func TestModelsListsInstallState(t *testing.T) {
	t.Parallel()

	storage := t.TempDir()
	model, _ := engine.LookupModel("small-en-us")
	require.NoError(t, os.MkdirAll(filepath.Join(storage, model.DirName), 0o755))

	stdout, _, err := runCommand(t, []string{"models", "--model-dir", storage})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, len(engine.ModelNames()))
	for _, line := range lines {
		if strings.HasPrefix(line, "small-en-us ") {
			require.Contains(t, line, model.DirName)
			require.True(t, strings.HasSuffix(line, " installed"), line)
			require.NotContains(t, line, "not installed")
			continue
		}
		require.True(t, strings.HasSuffix(line, "not installed"), line)
	}
}
