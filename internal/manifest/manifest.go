package manifest

import (
	"fmt"
	"strings"
)

// Record describes one declared mod: its identity plus the dependency and
// incompatibility relationships the resolver orders it by.
//
// The struct mirrors the on-disk schema under .modsmith/mods/*.yaml and is
// intentionally narrow so the host can validate mod metadata before the
// resolver and loader ever see it.
type Record struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string   `json:"version" yaml:"version"`
	// Requires lists mod IDs that must be present and loadable for this mod
	// to load at all.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
	// Optional lists mod IDs that should load before this mod when present,
	// but whose absence is not an error.
	Optional []string `json:"optional,omitempty" yaml:"optional,omitempty"`
	// IncompatibleWith lists mod IDs whose mere presence in the install makes
	// this mod unloadable. The check is one-directional: only the declaring
	// mod is penalized.
	IncompatibleWith []string       `json:"incompatible_with,omitempty" yaml:"incompatible_with,omitempty"`
	Hooks            HookDefinition `json:"hooks,omitempty" yaml:"hooks,omitempty"`
	Config           map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// HookDefinition points at an interpreted Go file carrying the mod's
// lifecycle entry points. Mods without hooks are declaration-only.
type HookDefinition struct {
	Path string            `json:"path,omitempty" yaml:"path,omitempty"`
	Env  map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Normalized returns a trimmed, copy-on-write variant of the record.
func (rec Record) Normalized() Record {
	clone := Record{
		ID:          strings.TrimSpace(rec.ID),
		Name:        strings.TrimSpace(rec.Name),
		Description: strings.TrimSpace(rec.Description),
		Version:     strings.TrimSpace(rec.Version),
		Hooks:       rec.Hooks.normalized(),
	}
	clone.Requires = normalizeIDList(rec.Requires)
	clone.Optional = normalizeIDList(rec.Optional)
	clone.IncompatibleWith = normalizeIDList(rec.IncompatibleWith)
	if len(rec.Config) > 0 {
		clone.Config = make(map[string]any, len(rec.Config))
		for key, value := range rec.Config {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			clone.Config[trimmed] = value
		}
	}
	return clone
}

// Validate ensures the record is well-formed: identity fields present, no
// duplicate or self-referential dependency entries, and no ID declared both
// required and incompatible.
func (rec Record) Validate() error {
	normalized := rec.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("manifest: id is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("manifest %s: version is required", normalized.ID)
	}
	if err := validateIDList("requires", normalized.ID, normalized.Requires); err != nil {
		return err
	}
	if err := validateIDList("optional", normalized.ID, normalized.Optional); err != nil {
		return err
	}
	if err := validateIDList("incompatible_with", normalized.ID, normalized.IncompatibleWith); err != nil {
		return err
	}
	required := make(map[string]struct{}, len(normalized.Requires))
	for _, id := range normalized.Requires {
		required[id] = struct{}{}
	}
	for _, id := range normalized.IncompatibleWith {
		if _, ok := required[id]; ok {
			return fmt.Errorf("manifest %s: %s is both required and incompatible", normalized.ID, id)
		}
	}
	if err := normalized.Hooks.validate(normalized.ID); err != nil {
		return err
	}
	return nil
}

// DisplayName returns the human-facing name, falling back to the ID.
func (rec Record) DisplayName() string {
	if strings.TrimSpace(rec.Name) != "" {
		return rec.Name
	}
	return rec.ID
}

func (def HookDefinition) normalized() HookDefinition {
	clone := HookDefinition{Path: strings.TrimSpace(def.Path)}
	if len(def.Env) > 0 {
		clone.Env = make(map[string]string, len(def.Env))
		for key, value := range def.Env {
			trimmedKey := strings.TrimSpace(key)
			if trimmedKey == "" {
				continue
			}
			clone.Env[trimmedKey] = strings.TrimSpace(value)
		}
	}
	return clone
}

func (def HookDefinition) validate(modID string) error {
	if def.Path == "" && len(def.Env) > 0 {
		return fmt.Errorf("manifest %s: hooks.env requires hooks.path", modID)
	}
	return nil
}

func normalizeIDList(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateIDList(label, modID string, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for idx, id := range ids {
		if id == modID {
			return fmt.Errorf("manifest %s: %s[%d] references itself", modID, label, idx)
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("manifest %s: duplicate %s entry %s", modID, label, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
