package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const goManifestSource = `package main

func ModManifests() ([]map[string]any, error) {
	return []map[string]any{
		{
			"id":      "go-mod",
			"version": "1.0.0",
			"requires": []string{"core-lib"},
		},
	}, nil
}`

func TestLoadGoManifestDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go-mod.go"), []byte(goManifestSource), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	files, err := LoadGoManifestDir(dir)
	if err != nil {
		t.Fatalf("load go manifests: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(files))
	}
	if files[0].Record.ID != "go-mod" {
		t.Fatalf("unexpected id: %+v", files[0].Record)
	}
	if len(files[0].Record.Requires) != 1 || files[0].Record.Requires[0] != "core-lib" {
		t.Fatalf("unexpected requires: %v", files[0].Record.Requires)
	}
}

func TestLoadGoManifestDirMissingFunc(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write broken manifest: %v", err)
	}
	if _, err := LoadGoManifestDir(dir); err == nil {
		t.Fatalf("expected error for missing ModManifests function")
	}
}

func TestLoadGoManifestDirRejectsBadSignatures(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "takes arguments",
			source: "package main\n\nfunc ModManifests(n int) ([]map[string]any, error) { return nil, nil }",
			want:   "no arguments",
		},
		{
			name:   "wrong return type",
			source: "package main\n\nfunc ModManifests() string { return \"\" }",
			want:   "[]map[string]any",
		},
		{
			name:   "non-error second value",
			source: "package main\n\nfunc ModManifests() ([]map[string]any, string) { return nil, \"oops\" }",
			want:   "error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "bad.go"), []byte(tc.source), 0644); err != nil {
				t.Fatalf("write manifest: %v", err)
			}
			_, err := LoadGoManifestDir(dir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadGoManifestDirRejectsDuplicateIDsInFile(t *testing.T) {
	source := `package main

func ModManifests() ([]map[string]any, error) {
	return []map[string]any{
		{"id": "twin-mod", "version": "1.0.0"},
		{"id": "twin-mod", "version": "2.0.0"},
	}, nil
}`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "twins.go"), []byte(source), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	_, err := LoadGoManifestDir(dir)
	if err == nil || !strings.Contains(err.Error(), "twice") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestLoadGoManifestDirRejectsMissingID(t *testing.T) {
	source := `package main

func ModManifests() ([]map[string]any, error) {
	return []map[string]any{
		{"version": "1.0.0"},
	}, nil
}`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "anon.go"), []byte(source), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	_, err := LoadGoManifestDir(dir)
	if err == nil || !strings.Contains(err.Error(), "id must be a non-empty string") {
		t.Fatalf("expected missing id error, got %v", err)
	}
}
