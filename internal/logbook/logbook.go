package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a logbook entry.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (lv Level) String() string {
	switch lv {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logbook journals host activity to an append-only text file under
// .modsmith/logs. Every write is best-effort: open or write failures are
// swallowed, so a broken log file can never change a resolution or load
// outcome. A nil Logbook accepts every call and does nothing, and the type
// satisfies the resolver's diagnostic sink contract.
type Logbook struct {
	path  string
	clock func() time.Time

	mu sync.Mutex
}

// New creates a logbook backed by the given file path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Logbook{path: path, clock: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Debug journals resolver and loader tracing detail.
func (l *Logbook) Debug(format string, args ...any) { l.write(LevelDebug, format, args...) }

// Info journals routine host activity.
func (l *Logbook) Info(format string, args ...any) { l.write(LevelInfo, format, args...) }

// Warn journals recoverable problems.
func (l *Logbook) Warn(format string, args ...any) { l.write(LevelWarn, format, args...) }

// Error journals diagnostics for mods that could not be resolved or loaded.
func (l *Logbook) Error(format string, args ...any) { l.write(LevelError, format, args...) }

func (l *Logbook) write(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	var line strings.Builder
	line.WriteString(l.clock().UTC().Format(time.RFC3339))
	fmt.Fprintf(&line, " %-5s ", level)
	line.WriteString(strings.TrimSpace(fmt.Sprintf(format, args...)))
	line.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line.String())
}

// Tail returns up to maxLines of the most recent entries. The scan keeps a
// fixed-size window while reading so a long-lived log file does not have to
// fit in memory.
func (l *Logbook) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	window := make([]string, 0, maxLines)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(window) == maxLines {
			copy(window, window[1:])
			window = window[:maxLines-1]
		}
		window = append(window, scanner.Text())
	}
	if len(window) == 0 {
		return nil
	}
	return window
}
