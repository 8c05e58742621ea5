package download

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip unpacks archivePath into destDir. Entries that would land
// outside destDir are rejected. It returns the top-level names created.
func ExtractZip(archivePath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	seen := map[string]bool{}
	var roots []string

	for _, f := range zr.File {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if target == filepath.Clean(destDir) {
			continue
		}
		if !strings.HasPrefix(target, root) {
			return nil, fmt.Errorf("archive entry %q escapes %s", f.Name, destDir)
		}

		top := strings.SplitN(strings.TrimPrefix(filepath.ToSlash(f.Name), "./"), "/", 2)[0]
		if top != "" && !seen[top] {
			seen[top] = true
			roots = append(roots, top)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			return nil, fmt.Errorf("archive entry %q is not a regular file", f.Name)
		}

		if err := extractFile(f, target); err != nil {
			return nil, err
		}
	}

	if len(roots) == 0 {
		return nil, errors.New("archive is empty")
	}
	return roots, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}
