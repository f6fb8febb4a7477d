package plugins

import (
	"fmt"

	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/manifest"
	"github.com/modsmith/modsmith/internal/plugin"
)

// RegisterMods discovers YAML and Go mod manifests under the configured mods
// directory, registers a plugin factory per manifest, and returns the records
// in discovery order for the resolver. Duplicate ids are rejected outright
// rather than silently picking a winner, and mods disabled in the project
// config never reach the registry.
func RegisterMods(reg *plugin.Registry, cfg *config.Config) ([]manifest.Record, error) {
	if reg == nil || cfg == nil {
		return nil, nil
	}
	dir := cfg.ModsDir()
	files, err := loadAllManifestFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	seen := make(map[string]string)
	records := make([]manifest.Record, 0, len(files))
	for _, file := range files {
		rec := file.Record
		if cfg.Disabled(rec.ID) {
			continue
		}
		if existing, ok := seen[rec.ID]; ok {
			return nil, fmt.Errorf("mods: duplicate mod id %s (%s and %s)", rec.ID, existing, file.Path)
		}
		seen[rec.ID] = file.Path
		recCopy := rec
		if err := reg.Register(recCopy.ID, func(overrides plugin.Config) (plugin.Plugin, error) {
			return newModPlugin(recCopy, dir, overrides)
		}); err != nil {
			return nil, fmt.Errorf("mods: register %s from %s: %w", rec.ID, file.Path, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

func loadAllManifestFiles(dir string) ([]ManifestFile, error) {
	yamlFiles, err := LoadManifestDir(dir)
	if err != nil {
		return nil, err
	}
	goFiles, err := LoadGoManifestDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlFiles, goFiles...), nil
}
