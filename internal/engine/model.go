package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modelBaseURL = "https://alphacephei.com/vosk/models/"

var (
	ErrModelNotConfigured = errors.New("no model configured")
	ErrUnknownModel       = errors.New("unknown model")
)

type RegistryModel struct {
	Name    string
	DirName string
	URL     string
	SHA256  string
}

type ResolvedModel struct {
	Name          string
	Path          string
	ArchivePath   string
	URL           string
	SHA256        string
	NeedsDownload bool
	IsCustomPath  bool
}

var registry = map[string]RegistryModel{
	"small-en-us": newRegistryModel("small-en-us", "vosk-model-small-en-us-0.15"),
	"small-ru":    newRegistryModel("small-ru", "vosk-model-small-ru-0.22"),
	"small-de":    newRegistryModel("small-de", "vosk-model-small-de-0.15"),
	"small-fr":    newRegistryModel("small-fr", "vosk-model-small-fr-0.22"),
	"small-es":    newRegistryModel("small-es", "vosk-model-small-es-0.42"),
	"small-cn":    newRegistryModel("small-cn", "vosk-model-small-cn-0.22"),
}

func newRegistryModel(name, dirName string) RegistryModel {
	return RegistryModel{
		Name:    name,
		DirName: dirName,
		URL:     modelBaseURL + dirName + ".zip",
	}
}

func ModelNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func LookupModel(name string) (RegistryModel, bool) {
	model, ok := registry[name]
	if ok {
		return model, true
	}
	// Accept the upstream directory name as an alias.
	for _, m := range registry {
		if m.DirName == name {
			return m, true
		}
	}
	return RegistryModel{}, false
}

// ResolveModel maps a model reference to a directory. A reference is either a
// registry name, installed under modelDir, or a path to an existing model
// directory. There is no fallback model: an empty reference is an error.
func ResolveModel(modelRef, modelDir string) (ResolvedModel, error) {
	modelRef = strings.TrimSpace(modelRef)
	if modelRef == "" {
		return ResolvedModel{}, ErrModelNotConfigured
	}

	if looksLikePath(modelRef) || isDir(modelRef) {
		return resolveCustomModel(modelRef)
	}

	model, ok := LookupModel(modelRef)
	if !ok {
		return ResolvedModel{}, fmt.Errorf("%w %q (known models: %s)", ErrUnknownModel, modelRef, strings.Join(ModelNames(), ", "))
	}
	if strings.TrimSpace(modelDir) == "" {
		return ResolvedModel{}, errors.New("model directory must not be empty for named model")
	}

	modelPath := filepath.Join(modelDir, model.DirName)
	_, statErr := os.Stat(modelPath)
	needsDownload := errors.Is(statErr, os.ErrNotExist)
	if statErr != nil && !needsDownload {
		return ResolvedModel{}, fmt.Errorf("stat model path: %w", statErr)
	}

	return ResolvedModel{
		Name:          model.Name,
		Path:          modelPath,
		ArchivePath:   modelPath + ".zip",
		URL:           model.URL,
		SHA256:        model.SHA256,
		NeedsDownload: needsDownload,
	}, nil
}

func resolveCustomModel(modelRef string) (ResolvedModel, error) {
	customPath := filepath.Clean(modelRef)
	if _, err := os.Stat(customPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ResolvedModel{}, fmt.Errorf("custom model path does not exist: %s", customPath)
		}
		return ResolvedModel{}, fmt.Errorf("stat custom model path: %w", err)
	}

	return ResolvedModel{
		Path:         customPath,
		IsCustomPath: true,
	}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func looksLikePath(input string) bool {
	return strings.ContainsRune(input, os.PathSeparator) || strings.HasPrefix(input, ".")
}
