package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modsmith/modsmith/internal/manifest"
)

// ManifestFile pairs a parsed mod manifest with its on-disk source.
type ManifestFile struct {
	Record manifest.Record
	Path   string
}

// ParseManifestYAML decodes and validates a single manifest payload.
func ParseManifestYAML(data []byte) (manifest.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return manifest.Record{}, fmt.Errorf("mods: manifest payload is empty")
	}
	var rec manifest.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return manifest.Record{}, fmt.Errorf("mods: decode manifest: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return manifest.Record{}, err
	}
	return rec.Normalized(), nil
}

// LoadManifestFile reads a YAML file from disk and returns the parsed manifest.
func LoadManifestFile(path string) (ManifestFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ManifestFile{}, fmt.Errorf("mods: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ManifestFile{}, fmt.Errorf("mods: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ManifestFile{}, fmt.Errorf("mods: read %s: %w", path, err)
	}
	rec, err := ParseManifestYAML(data)
	if err != nil {
		return ManifestFile{}, fmt.Errorf("mods: %s: %w", path, err)
	}
	return ManifestFile{Record: rec, Path: filepath.Clean(path)}, nil
}

// LoadManifestDir scans a directory for *.yaml manifests and returns the
// parsed records. Missing directories are treated as "no mods" to simplify
// startup. Results are sorted by path so the resolver sees a stable input
// order.
func LoadManifestDir(dir string) ([]ManifestFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("mods: read %s: %w", trimmed, err)
	}
	var files []ManifestFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isYAMLFile(name) {
			continue
		}
		path := filepath.Join(trimmed, name)
		file, err := LoadManifestFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
