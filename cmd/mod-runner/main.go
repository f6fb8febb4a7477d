package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/loader"
	"github.com/modsmith/modsmith/internal/logbook"
	"github.com/modsmith/modsmith/internal/plugin"
	"github.com/modsmith/modsmith/internal/resolver"
	"github.com/modsmith/modsmith/internal/state"
	"github.com/modsmith/modsmith/plugins"
)

func main() {
	projectDir := flag.String("project", "", "path to the game install directory (defaults to cwd)")
	dryRun := flag.Bool("dry-run", false, "resolve and print the load order without initializing mods")
	only := flag.String("mod", "", "restrict initialization to a single mod id")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitModsmithDir(absoluteProject); err != nil {
		die("init .modsmith: %v", err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	lb, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		die("open logbook: %v", err)
	}

	reg := plugin.NewRegistry()
	records, err := plugins.RegisterMods(reg, cfg)
	if err != nil {
		die("discover mods: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No mods installed.")
		return
	}

	res, err := resolver.New(lb)
	if err != nil {
		die("build resolver: %v", err)
	}
	result := res.Resolve(records)
	printResolution(result)

	if *dryRun {
		return
	}
	if id := strings.TrimSpace(*only); id != "" && result.Excluded(id) {
		die("mod %s was excluded by resolution, refusing to initialize it", id)
	}

	l, err := loader.New(reg)
	if err != nil {
		die("build loader: %v", err)
	}
	ctx := &plugin.Context{Config: cfg, Logbook: lb}
	report, err := l.Load(ctx, loader.Request{Result: result, Only: strings.TrimSpace(*only)})
	if err != nil {
		die("load mods: %v", err)
	}
	printReport(report)
	if err := state.NewStore(cfg.StateDir()).SaveSession(report); err != nil {
		lb.Warn("persist session record: %v", err)
	}
	if !report.Success() {
		os.Exit(1)
	}
}

func printResolution(result resolver.Result) {
	fmt.Printf("Load order (%d mods):\n", len(result.LoadOrder))
	for i, rec := range result.LoadOrder {
		fmt.Printf("  %2d. %s %s\n", i+1, rec.ID, rec.Version)
	}
	if result.Success() {
		return
	}
	fmt.Println("Problems:")
	if len(result.CircularDependencies) > 0 {
		fmt.Printf("  cycle: %s\n", strings.Join(result.CircularDependencies, " -> "))
	}
	for _, id := range sortedIDs(result.MissingDependencies) {
		for _, reason := range result.MissingDependencies[id] {
			fmt.Printf("  %s: %s\n", id, reason)
		}
	}
	for _, id := range sortedIDs(result.Incompatibilities) {
		fmt.Printf("  %s: incompatible with %s\n", id, strings.Join(result.Incompatibilities[id], ", "))
	}
}

func printReport(report loader.Report) {
	fmt.Printf("Session %s:\n", report.Session)
	for _, outcome := range report.Outcomes {
		line := fmt.Sprintf("  %s: %s", outcome.ID, outcome.Status)
		if outcome.Message != "" {
			line += " (" + outcome.Message + ")"
		}
		if outcome.Err != "" {
			line += " error: " + outcome.Err
		}
		fmt.Println(line)
	}
	if report.Halted {
		fmt.Println("Session halted on error.")
	}
}

func sortedIDs(values map[string][]string) []string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
