// cmd/modsmith/main.go
//
// This is the entry point for the Modsmith TUI.
// When you run `modsmith` from a game install directory, this is what executes.
//
// Flow:
// 1. Initialize the .modsmith folder in the current directory
// 2. Launch the mod board TUI

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/modsmith/modsmith/internal/config"
	"github.com/modsmith/modsmith/internal/tui"
)

func main() {
	// The current working directory is the game install we're managing
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitModsmithDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .modsmith directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building mod board: %v\n", err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
