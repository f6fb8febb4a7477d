// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for Modsmith.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/loader"
	"github.com/modsmith/modsmith/internal/logbook"
	"github.com/modsmith/modsmith/internal/manifest"
	"github.com/modsmith/modsmith/internal/plugin"
	"github.com/modsmith/modsmith/internal/resolver"
	"github.com/modsmith/modsmith/internal/state"
	"github.com/modsmith/modsmith/plugins"
)

// Discovery produces the manifest set the board resolves. The default scans
// the configured mods directory; tests inject their own.
type Discovery func(reg *plugin.Registry, cfg *config.Config) ([]manifest.Record, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithDiscovery overrides how the board discovers mod manifests.
func WithDiscovery(discover Discovery) AppOption {
	return func(a *App) {
		if discover != nil {
			a.discover = discover
		}
	}
}

type resolveFinishedMsg struct {
	records []manifest.Record
	result  resolver.Result
	err     error
}

type loadFinishedMsg struct {
	report loader.Report
	err    error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	config   *config.Config
	logbook  *logbook.Logbook
	discover Discovery

	// UI components
	modList   list.Model
	statusMsg string
	boardErr  string

	// Latest resolution snapshot
	records []manifest.Record
	result  resolver.Result
	report  *loader.Report

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// modItem implements list.Item for entries in the load order.
type modItem struct {
	rec manifest.Record
}

func (i modItem) Title() string {
	return fmt.Sprintf("%s %s", i.rec.DisplayName(), i.rec.Version)
}

func (i modItem) Description() string {
	if desc := strings.TrimSpace(i.rec.Description); desc != "" {
		return desc
	}
	return fmt.Sprintf("id: %s", i.rec.ID)
}

func (i modItem) FilterValue() string { return i.rec.ID }

// NewApp creates a new App instance
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogbookPath())
	if err == nil {
		lb.Info("Session opened · mods dir: %s", cfg.ModsDir())
	}

	modList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	modList.Title = "LOAD ORDER"
	modList.SetShowStatusBar(false)
	modList.SetFilteringEnabled(false)

	app := &App{
		config:   cfg,
		logbook:  lb,
		discover: plugins.RegisterMods,
		modList:  modList,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

func (a *App) Init() tea.Cmd {
	return a.fetchResolveSnapshot()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.modList.SetSize(max(0, msg.Width/2-6), max(0, msg.Height-10))
		return a, nil

	case resolveFinishedMsg:
		if msg.err != nil {
			a.boardErr = msg.err.Error()
			return a, nil
		}
		a.boardErr = ""
		a.records = msg.records
		a.result = msg.result
		a.report = nil
		items := make([]list.Item, len(msg.result.LoadOrder))
		for i, rec := range msg.result.LoadOrder {
			items[i] = modItem{rec: rec}
		}
		a.modList.SetItems(items)
		a.statusMsg = fmt.Sprintf("%d mods resolved, %d excluded", len(msg.result.LoadOrder), len(msg.records)-len(msg.result.LoadOrder))
		return a, nil

	case loadFinishedMsg:
		if msg.err != nil {
			a.boardErr = msg.err.Error()
			return a, nil
		}
		a.boardErr = ""
		report := msg.report
		a.report = &report
		if report.Success() {
			a.statusMsg = fmt.Sprintf("Session %s loaded cleanly", shortSession(report.Session))
		} else {
			a.statusMsg = fmt.Sprintf("Session %s finished with failures: %s", shortSession(report.Session), strings.Join(report.Failed(), ", "))
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "r":
			a.statusMsg = "Refreshing mod board..."
			return a, a.fetchResolveSnapshot()
		case "enter":
			a.statusMsg = "Loading mods..."
			return a, a.runLoadSession()
		case "d":
			return a, a.disableSelected()
		}
	}

	var cmd tea.Cmd
	a.modList, cmd = a.modList.Update(msg)
	return a, cmd
}

// fetchResolveSnapshot re-runs discovery and resolution off the Update loop.
func (a *App) fetchResolveSnapshot() tea.Cmd {
	return func() tea.Msg {
		reg := plugin.NewRegistry()
		records, err := a.discover(reg, a.config)
		if err != nil {
			return resolveFinishedMsg{err: err}
		}
		res, err := resolver.New(a.logbook)
		if err != nil {
			return resolveFinishedMsg{err: err}
		}
		return resolveFinishedMsg{records: records, result: res.Resolve(records)}
	}
}

// runLoadSession initializes the currently resolved load order.
func (a *App) runLoadSession() tea.Cmd {
	result := a.result
	return func() tea.Msg {
		reg := plugin.NewRegistry()
		if _, err := a.discover(reg, a.config); err != nil {
			return loadFinishedMsg{err: err}
		}
		l, err := loader.New(reg)
		if err != nil {
			return loadFinishedMsg{err: err}
		}
		ctx := &plugin.Context{Config: a.config, Logbook: a.logbook}
		report, err := l.Load(ctx, loader.Request{Result: result})
		if err == nil {
			if saveErr := state.NewStore(a.config.StateDir()).SaveSession(report); saveErr != nil {
				a.logbook.Warn("persist session record: %v", saveErr)
			}
		}
		return loadFinishedMsg{report: report, err: err}
	}
}

// disableSelected switches the highlighted mod off and re-resolves.
func (a *App) disableSelected() tea.Cmd {
	item, ok := a.modList.SelectedItem().(modItem)
	if !ok {
		return nil
	}
	if err := a.config.SetDisabled(item.rec.ID); err != nil {
		a.boardErr = err.Error()
		return nil
	}
	a.logbook.Info("Disabled %s from the board", item.rec.ID)
	a.statusMsg = fmt.Sprintf("%s disabled", item.rec.ID)
	return a.fetchResolveSnapshot()
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
