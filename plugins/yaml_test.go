package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleManifest = `id: storage-hub
name: Storage Hub
version: 1.2.0
requires:
  - core-lib
optional:
  - map-overlay
incompatible_with:
  - legacy-storage
`

func TestParseManifestYAML(t *testing.T) {
	rec, err := ParseManifestYAML([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.ID != "storage-hub" || rec.Version != "1.2.0" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Requires) != 1 || rec.Requires[0] != "core-lib" {
		t.Fatalf("unexpected requires: %v", rec.Requires)
	}
	if len(rec.IncompatibleWith) != 1 || rec.IncompatibleWith[0] != "legacy-storage" {
		t.Fatalf("unexpected incompatibilities: %v", rec.IncompatibleWith)
	}
}

func TestParseManifestYAMLErrors(t *testing.T) {
	if _, err := ParseManifestYAML([]byte("")); err == nil {
		t.Fatalf("expected empty payload to fail validation")
	}
	if _, err := ParseManifestYAML([]byte("id: only-id\n")); err == nil {
		t.Fatalf("expected missing version to fail validation")
	}
}

func TestLoadManifestDir(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "storage-hub.yaml")
	if err := os.WriteFile(path, []byte(sampleManifest), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	files, err := LoadManifestDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(files))
	}
	if files[0].Path != path {
		t.Fatalf("expected path %s, got %s", path, files[0].Path)
	}
	if files[0].Record.ID != "storage-hub" {
		t.Fatalf("unexpected id: %+v", files[0].Record)
	}
}

func TestLoadManifestDirMissing(t *testing.T) {
	files, err := LoadManifestDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if files != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", files)
	}
}

func TestLoadManifestDirStableOrder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta.yaml", "alpha.yaml"} {
		payload := "id: " + name[:len(name)-len(".yaml")] + "\nversion: 1.0.0\n"
		if err := os.WriteFile(filepath.Join(root, name), []byte(payload), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	files, err := LoadManifestDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files) != 2 || files[0].Record.ID != "alpha" || files[1].Record.ID != "zeta" {
		t.Fatalf("expected path-sorted manifests, got %+v", files)
	}
}
