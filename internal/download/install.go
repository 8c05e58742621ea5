package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ModelArchive names a zipped model and the directory it installs to. The
// archive must hold a top-level directory named like Dir's base name, which is
// how the Vosk model site packs every model.
type ModelArchive struct {
	Name   string
	URL    string
	SHA256 string
	Dir    string
	// ArchivePath defaults to Dir + ".zip".
	ArchivePath string
	// Replace swaps out an existing Dir once the new copy is unpacked.
	Replace bool
}

// Installer downloads model archives and unpacks them next to their target.
type Installer struct {
	Fetch      Fetcher
	NoProgress bool
	Logger     *zap.Logger
}

// Install fetches the archive, unpacks it into a staging directory beside
// m.Dir and renames the model into place. m.Dir is never left half-extracted,
// and the archive and staging directory are removed on every path.
func (i Installer) Install(ctx context.Context, m ModelArchive) error {
	fetch := i.Fetch
	if fetch == nil {
		fetch = DownloadFile
	}
	logger := i.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(m.Dir) == "" {
		return fmt.Errorf("install model %q: target directory is required", m.Name)
	}

	parent := filepath.Dir(m.Dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create model directory %s: %w", parent, err)
	}

	archivePath := m.ArchivePath
	if archivePath == "" {
		archivePath = m.Dir + ".zip"
	}

	logger.Info("downloading model", zap.String("model", m.Name), zap.String("url", m.URL))
	if err := fetch(ctx, Options{
		URL:            m.URL,
		Destination:    archivePath,
		ExpectedSHA256: m.SHA256,
		NoProgress:     i.NoProgress,
		Logger:         logger,
	}); err != nil {
		return fmt.Errorf("download model %q: %w", m.Name, err)
	}
	defer func() {
		if err := os.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove model archive", zap.String("path", archivePath), zap.Error(err))
		}
	}()

	staging, err := os.MkdirTemp(parent, ".install-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	roots, err := ExtractZip(archivePath, staging)
	if err != nil {
		return fmt.Errorf("extract model %q: %w", m.Name, err)
	}

	unpacked := filepath.Join(staging, filepath.Base(m.Dir))
	if info, err := os.Stat(unpacked); err != nil || !info.IsDir() {
		return fmt.Errorf("archive for model %q did not contain %s (found: %s)", m.Name, filepath.Base(m.Dir), strings.Join(roots, ", "))
	}

	if m.Replace {
		if err := os.RemoveAll(m.Dir); err != nil {
			return fmt.Errorf("remove installed model %s: %w", m.Dir, err)
		}
	}
	if err := os.Rename(unpacked, m.Dir); err != nil {
		return fmt.Errorf("move model into %s: %w", m.Dir, err)
	}

	logger.Info("model installed", zap.String("model", m.Name), zap.String("path", m.Dir))
	return nil
}
