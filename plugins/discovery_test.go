package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/plugin"
)

const discoveryYAML = `id: yaml-mod
version: 1.0.0
`

func TestRegisterMods(t *testing.T) {
	cfg := initTestConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.ModsDir(), "mod.yaml"), []byte(discoveryYAML), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	reg := plugin.NewRegistry()
	records, err := RegisterMods(reg, cfg)
	if err != nil {
		t.Fatalf("register mods: %v", err)
	}
	if len(records) != 1 || records[0].ID != "yaml-mod" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if _, err := reg.Resolve("yaml-mod", nil); err != nil {
		t.Fatalf("resolve mod: %v", err)
	}
}

func TestRegisterModsRejectsDuplicates(t *testing.T) {
	cfg := initTestConfig(t)
	for _, name := range []string{"first.yaml", "second.yaml"} {
		if err := os.WriteFile(filepath.Join(cfg.ModsDir(), name), []byte(discoveryYAML), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	reg := plugin.NewRegistry()
	_, err := RegisterMods(reg, cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate mod id") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestRegisterModsSkipsDisabled(t *testing.T) {
	cfg := initTestConfig(t)
	cfg.Project.Mods.Disabled = []string{"yaml-mod"}
	if err := os.WriteFile(filepath.Join(cfg.ModsDir(), "mod.yaml"), []byte(discoveryYAML), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	reg := plugin.NewRegistry()
	records, err := RegisterMods(reg, cfg)
	if err != nil {
		t.Fatalf("register mods: %v", err)
	}
	if records != nil {
		t.Fatalf("expected disabled mod to be skipped, got %+v", records)
	}
}

func initTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	if err := config.InitModsmithDir(root); err != nil {
		t.Fatalf("init modsmith: %v", err)
	}
	cfg, err := config.NewConfig(root)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	return cfg
}
