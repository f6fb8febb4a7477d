package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

const goManifestFuncName = "ModManifests"

// LoadGoManifestDir evaluates every .go file in dir and collects mod
// manifests declared via ModManifests(). Hook files live under
// subdirectories and are ignored here.
func LoadGoManifestDir(dir string) ([]ManifestFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mods: read %s: %w", trimmed, err)
	}
	var files []ManifestFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		fileManifests, err := loadGoManifestFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, fileManifests...)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func loadGoManifestFile(path string) ([]ManifestFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mods: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("mods: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("mods: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(goManifestFuncName)
	if err != nil {
		return nil, fmt.Errorf("mods: %s must define %s() ([]map[string]any, error): %w", path, goManifestFuncName, err)
	}
	raws, callErr := invokeManifestFunc(fnValue)
	if callErr != nil {
		return nil, fmt.Errorf("mods: %s: %w", path, callErr)
	}
	seen := make(map[string]struct{}, len(raws))
	files := make([]ManifestFile, 0, len(raws))
	for idx, raw := range raws {
		id, ok := raw["id"].(string)
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("mods: %s manifest[%d]: id must be a non-empty string", path, idx+1)
		}
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("mods: %s declares mod id %s twice", path, id)
		}
		seen[id] = struct{}{}
		payload, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("mods: %s manifest[%d]: %w", path, idx+1, err)
		}
		parsed, err := ParseManifestYAML(payload)
		if err != nil {
			return nil, fmt.Errorf("mods: %s manifest[%d]: %w", path, idx+1, err)
		}
		files = append(files, ManifestFile{Record: parsed, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return files, nil
}

// invokeManifestFunc calls a manifest file's ModManifests() and hands back the
// raw declarations. Like hook invocation, the signature is checked up front:
// no parameters, a slice of manifest maps, and an optional trailing error.
func invokeManifestFunc(value reflect.Value) ([]map[string]any, error) {
	fn, err := exportedFunc(value, goManifestFuncName)
	if err != nil {
		return nil, err
	}
	fnType := fn.Type()
	if fnType.NumIn() != 0 {
		return nil, fmt.Errorf("%s must take no arguments", goManifestFuncName)
	}
	if fnType.NumOut() == 0 || fnType.NumOut() > 2 {
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goManifestFuncName)
	}
	results := fn.Call(nil)
	if len(results) == 2 {
		if err := errorFromValue(results[1], goManifestFuncName); err != nil {
			return nil, err
		}
	}
	return rawManifests(results[0])
}

// rawManifests coerces the first return value into a slice of manifest maps.
// Interpreted code may produce []map[string]any directly or a looser slice
// whose elements are manifest maps.
func rawManifests(value reflect.Value) ([]map[string]any, error) {
	if raws, ok := value.Interface().([]map[string]any); ok {
		return raws, nil
	}
	if value.Kind() == reflect.Interface {
		value = value.Elem()
	}
	if !value.IsValid() || value.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goManifestFuncName)
	}
	result := make([]map[string]any, value.Len())
	for i := 0; i < value.Len(); i++ {
		entry, ok := value.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", goManifestFuncName, i)
		}
		result[i] = entry
	}
	return result, nil
}
