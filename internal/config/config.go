// internal/config/config.go
//
// This package handles configuration and the .modsmith directory structure.
// Every game install that uses Modsmith gets a .modsmith/ folder created in
// its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ModsmithDir is the name of the directory we create in each install.
	ModsmithDir = ".modsmith"

	defaultModsDirName = "mods"
)

const defaultProjectConfigYAML = `# modsmith project configuration
version: 1

mods:
  # Directory scanned for mod manifests, relative to .modsmith/.
  dir: mods
  # Mod ids excluded from resolution without uninstalling them.
  disabled: []

loader:
  # Stop initializing mods after the first hook failure. When false the
  # loader records the failure and keeps going.
  halt_on_error: false
`

// ModsConfig declares where manifests live and which mods are switched off.
type ModsConfig struct {
	Dir      string   `yaml:"dir"`
	Disabled []string `yaml:"disabled,omitempty"`
}

// LoaderConfig captures loading policy.
type LoaderConfig struct {
	HaltOnError bool `yaml:"halt_on_error"`
}

// ProjectConfig models .modsmith/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	Mods    ModsConfig   `yaml:"mods"`
	Loader  LoaderConfig `yaml:"loader"`
}

// Config holds the runtime configuration for Modsmith.
type Config struct {
	// ProjectDir is the directory where the user ran `modsmith` from.
	ProjectDir string

	// ModsmithProjectDir is ProjectDir/.modsmith.
	ModsmithProjectDir string

	Project ProjectConfig
}

// InitModsmithDir creates the .modsmith directory structure in the given
// install directory. This is called on every startup.
//
// Structure created:
// .modsmith/
// ├── mods/   <- Mod manifests (*.yaml, *.go) and hook files
// ├── logs/   <- Host activity and resolution diagnostics
// └── state/  <- Persisted state between sessions
func InitModsmithDir(projectDir string) error {
	modsmithDir := filepath.Join(projectDir, ModsmithDir)

	dirs := []string{
		filepath.Join(modsmithDir, defaultModsDirName),
		filepath.Join(modsmithDir, "logs"),
		filepath.Join(modsmithDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(modsmithDir, "config.yaml"))
}

// NewConfig creates a Config populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		ModsmithProjectDir: filepath.Join(projectDir, ModsmithDir),
		Project:            defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ModsDir returns the directory scanned for mod manifests.
func (c *Config) ModsDir() string {
	dir := strings.TrimSpace(c.Project.Mods.Dir)
	if dir == "" {
		dir = defaultModsDirName
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(c.ModsmithProjectDir, dir)
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.ModsmithProjectDir, "logs")
}

// StateDir returns the path to the state directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.ModsmithProjectDir, "state")
}

// LogbookPath returns the host log file location.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "modsmith.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ModsmithProjectDir, "config.yaml")
}

// Disabled reports whether a mod id is switched off in the project config.
func (c *Config) Disabled(id string) bool {
	for _, candidate := range c.Project.Mods.Disabled {
		if strings.EqualFold(strings.TrimSpace(candidate), id) {
			return true
		}
	}
	return false
}

// HaltOnError returns the loader policy for hook failures.
func (c *Config) HaltOnError() bool {
	return c.Project.Loader.HaltOnError
}

// SetDisabled switches a mod off and persists the value back to
// .modsmith/config.yaml.
func (c *Config) SetDisabled(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: mod id is required")
	}
	if c.Disabled(id) {
		return nil
	}
	c.Project.Mods.Disabled = append(c.Project.Mods.Disabled, id)
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Mods:    ModsConfig{Dir: defaultModsDirName},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Mods.Dir) == "" {
		pc.Mods.Dir = defaultModsDirName
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Mods.Dir = strings.TrimSpace(pc.Mods.Dir)
	if len(pc.Mods.Disabled) > 0 {
		cleaned := make([]string, 0, len(pc.Mods.Disabled))
		for _, id := range pc.Mods.Disabled {
			trimmed := strings.TrimSpace(id)
			if trimmed == "" {
				continue
			}
			cleaned = append(cleaned, trimmed)
		}
		pc.Mods.Disabled = cleaned
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if strings.TrimSpace(pc.Mods.Dir) == "" {
		return fmt.Errorf("mods.dir is required")
	}
	seen := make(map[string]struct{}, len(pc.Mods.Disabled))
	for i, id := range pc.Mods.Disabled {
		key := strings.ToLower(id)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("mods.disabled[%d]: duplicate id %s", i, id)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.ModsmithProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure modsmith dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
