package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/manifest"
	"github.com/modsmith/modsmith/internal/plugin"
)

func TestResolveSnapshotPopulatesBoard(t *testing.T) {
	app := newTestApp(t, stubDiscovery(nil,
		manifest.Record{ID: "map-pack", Version: "1.0.0", Requires: []string{"core-lib"}},
		manifest.Record{ID: "core-lib", Version: "2.0.0"},
	))
	app = runCommands(t, app, app.Init())
	items := app.modList.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 mods on the board, got %d", len(items))
	}
	first, ok := items[0].(modItem)
	if !ok || first.rec.ID != "core-lib" {
		t.Fatalf("expected core-lib first in load order, got %+v", items[0])
	}
	if !strings.Contains(app.statusMsg, "2 mods resolved") {
		t.Fatalf("unexpected status: %s", app.statusMsg)
	}
}

func TestBoardShowsDiagnostics(t *testing.T) {
	app := newTestApp(t, stubDiscovery(nil,
		manifest.Record{ID: "map-pack", Version: "1.0.0", Requires: []string{"terrain-engine"}},
	))
	app = runCommands(t, app, app.Init())
	lines := diagnosticLines(app)
	if len(lines) == 0 {
		t.Fatalf("expected a missing dependency diagnostic")
	}
	if !strings.Contains(lines[0], "map-pack") || !strings.Contains(lines[0], "terrain-engine") {
		t.Fatalf("unexpected diagnostic: %s", lines[0])
	}
	if view := app.View(); !strings.Contains(view, "DIAGNOSTICS") {
		t.Fatalf("expected diagnostics panel in view")
	}
}

func TestLoadSessionReportsFailures(t *testing.T) {
	app := newTestApp(t, stubDiscovery(map[string]error{"core-lib": errors.New("boom")},
		manifest.Record{ID: "core-lib", Version: "1.0.0"},
	))
	app = runCommands(t, app, app.Init())
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = runCommands(t, model.(*App), cmd)
	if app.report == nil {
		t.Fatalf("expected a session report")
	}
	if app.report.Success() {
		t.Fatalf("expected failing session, got %+v", app.report.Outcomes)
	}
	if !strings.Contains(app.statusMsg, "core-lib") {
		t.Fatalf("expected failure status to name the mod: %s", app.statusMsg)
	}
}

func TestDisableSelectedPersistsAndRefreshes(t *testing.T) {
	app := newTestApp(t, stubDiscovery(nil,
		manifest.Record{ID: "core-lib", Version: "1.0.0"},
	))
	app = runCommands(t, app, app.Init())
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	app = runCommands(t, model.(*App), cmd)
	if !app.config.Disabled("core-lib") {
		t.Fatalf("expected core-lib to be disabled in config")
	}
	if len(app.modList.Items()) != 0 {
		t.Fatalf("expected board to drop the disabled mod")
	}
}

func TestQuitKeys(t *testing.T) {
	app := newTestApp(t, stubDiscovery(nil))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

// stubDiscovery registers a stub plugin per record and honors config-disabled
// mods the way the real discovery does.
func stubDiscovery(failures map[string]error, records ...manifest.Record) Discovery {
	return func(reg *plugin.Registry, cfg *config.Config) ([]manifest.Record, error) {
		var out []manifest.Record
		for _, rec := range records {
			if cfg.Disabled(rec.ID) {
				continue
			}
			rec := rec
			if err := reg.Register(rec.ID, func(plugin.Config) (plugin.Plugin, error) {
				return &stubPlugin{rec: rec, err: failures[rec.ID]}, nil
			}); err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		return out, nil
	}
}

type stubPlugin struct {
	rec manifest.Record
	err error
}

func (s *stubPlugin) Info() plugin.Info {
	return plugin.Info{ID: s.rec.ID, Name: s.rec.DisplayName(), Version: s.rec.Version}
}

func (s *stubPlugin) Init(ctx *plugin.Context) (plugin.Result, error) {
	if s.err != nil {
		return plugin.Result{Status: plugin.StatusFailed}, s.err
	}
	return plugin.Result{Status: plugin.StatusLoaded}, nil
}

func newTestApp(t *testing.T, discover Discovery) *App {
	t.Helper()
	projectDir := t.TempDir()
	if err := config.InitModsmithDir(projectDir); err != nil {
		t.Fatalf("init modsmith dir: %v", err)
	}
	app, err := NewApp(projectDir, WithDiscovery(discover))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func runCommands(t *testing.T, app *App, cmd tea.Cmd) *App {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}
