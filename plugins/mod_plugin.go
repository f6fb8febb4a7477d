package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/modsmith/modsmith/internal/manifest"
	"github.com/modsmith/modsmith/internal/plugin"
)

const hookFuncName = "ModInit"

// modPlugin is the plugin unit behind a declared manifest. Mods that name a
// hook file get their ModInit evaluated through the interpreter at Init time;
// declaration-only mods initialize as a no-op.
type modPlugin struct {
	record  manifest.Record
	config  plugin.Config
	hookDir string
}

func newModPlugin(rec manifest.Record, hookDir string, overrides plugin.Config) (*modPlugin, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	normalized := rec.Normalized()
	return &modPlugin{
		record:  normalized,
		config:  mergeConfigs(normalized.Config, overrides),
		hookDir: hookDir,
	}, nil
}

func (m *modPlugin) Info() plugin.Info {
	return plugin.Info{
		ID:          m.record.ID,
		Name:        m.record.DisplayName(),
		Description: m.record.Description,
		Version:     m.record.Version,
	}
}

// Init runs the mod's hook file, if any. The hook must export
// ModInit(map[string]any) error; the map carries the merged manifest config
// plus any hooks.env entries under the "env" key.
func (m *modPlugin) Init(ctx *plugin.Context) (plugin.Result, error) {
	if ctx == nil {
		return plugin.Result{Status: plugin.StatusFailed}, fmt.Errorf("mods: context is nil")
	}
	path := strings.TrimSpace(m.record.Hooks.Path)
	if path == "" {
		return plugin.Result{Status: plugin.StatusNoOp, Message: fmt.Sprintf("%s declares no hooks", m.record.ID)}, nil
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(m.hookDir, resolved)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return plugin.Result{Status: plugin.StatusFailed}, fmt.Errorf("mods: resolve hook %s: %w", resolved, err)
	}
	if info.IsDir() {
		return plugin.Result{Status: plugin.StatusFailed}, fmt.Errorf("mods: hook %s is a directory", resolved)
	}
	i := interp.New(interp.Options{})
	i.Use(stdlib.Symbols)
	if _, err := i.EvalPath(resolved); err != nil {
		return plugin.Result{Status: plugin.StatusFailed}, fmt.Errorf("mods: interpret hook %s: %w", resolved, err)
	}
	fnValue, err := i.Eval(hookFuncName)
	if err != nil {
		return plugin.Result{Status: plugin.StatusFailed}, fmt.Errorf("mods: hook %s must define %s(map[string]any) error: %w", resolved, hookFuncName, err)
	}
	if err := invokeInitFunc(fnValue, m.hookArgs()); err != nil {
		return plugin.Result{Status: plugin.StatusFailed}, fmt.Errorf("mods: %s: %s: %w", m.record.ID, hookFuncName, err)
	}
	return plugin.Result{Status: plugin.StatusLoaded, Message: fmt.Sprintf("%s initialized from %s", m.record.ID, resolved)}, nil
}

func (m *modPlugin) hookArgs() map[string]any {
	args := make(map[string]any, len(m.config)+1)
	for key, value := range m.config {
		args[key] = value
	}
	if len(m.record.Hooks.Env) > 0 {
		env := make(map[string]string, len(m.record.Hooks.Env))
		for key, value := range m.record.Hooks.Env {
			env[key] = value
		}
		args["env"] = env
	}
	return args
}

// invokeInitFunc validates the hook's signature before calling it: at most
// one parameter that can accept map[string]any, at most one result that is an
// error. Anything else is reported as a failed init, never a panic.
func invokeInitFunc(value reflect.Value, args map[string]any) error {
	fn, err := exportedFunc(value, hookFuncName)
	if err != nil {
		return err
	}
	fnType := fn.Type()
	if fnType.IsVariadic() || fnType.NumIn() > 1 {
		return fmt.Errorf("%s must take at most one map[string]any argument", hookFuncName)
	}
	var in []reflect.Value
	if fnType.NumIn() == 1 {
		if !reflect.TypeOf(args).AssignableTo(fnType.In(0)) {
			return fmt.Errorf("%s parameter must accept map[string]any, not %s", hookFuncName, fnType.In(0))
		}
		in = []reflect.Value{reflect.ValueOf(args)}
	}
	if fnType.NumOut() > 1 {
		return fmt.Errorf("%s must return at most one error", hookFuncName)
	}
	results := fn.Call(in)
	if len(results) == 0 {
		return nil
	}
	return errorFromValue(results[0], hookFuncName)
}

func mergeConfigs(base map[string]any, override plugin.Config) plugin.Config {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	merged := make(plugin.Config)
	for k, v := range base {
		if key := strings.TrimSpace(k); key != "" {
			merged[key] = v
		}
	}
	for k, v := range override {
		if key := strings.TrimSpace(k); key != "" {
			merged[key] = v
		}
	}
	return merged
}
