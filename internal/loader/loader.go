package loader

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/modsmith/modsmith/internal/manifest"
	"github.com/modsmith/modsmith/internal/plugin"
	"github.com/modsmith/modsmith/internal/resolver"
)

// Loader initializes resolved mods in dependency order.
type Loader struct {
	registry *plugin.Registry
	clock    func() time.Time
}

// Option customizes the loader instance.
type Option func(*Loader)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(l *Loader) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New wires a loader to the plugin registry.
func New(registry *plugin.Registry, opts ...Option) (*Loader, error) {
	if registry == nil {
		return nil, fmt.Errorf("loader: plugin registry is required")
	}
	loader := &Loader{
		registry: registry,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader, nil
}

// Request describes one load session.
type Request struct {
	// Result is the resolver output the session works from. Mods the resolver
	// excluded are reported as skipped, never initialized.
	Result resolver.Result
	// Only optionally restricts initialization to a single mod id. The target's
	// transitive required dependencies still initialize first; everything else
	// in the load order is reported as skipped without failing the session.
	Only string
}

// SkipReason explains why a mod in the report was not initialized.
type SkipReason string

const (
	// SkipReasonDiagnostic marks mods the resolver excluded.
	SkipReasonDiagnostic SkipReason = "diagnostic"
	// SkipReasonHalted marks mods left over after a halt-on-error stop.
	SkipReasonHalted SkipReason = "halted"
	// SkipReasonNotSelected marks mods outside the requested Only closure.
	SkipReasonNotSelected SkipReason = "not-selected"
)

// Outcome records what happened to one mod during a session.
type Outcome struct {
	ID       string        `json:"id"`
	Status   plugin.Status `json:"status"`
	Skip     SkipReason    `json:"skip_reason,omitempty"`
	Message  string        `json:"message,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// Report summarizes a load session.
type Report struct {
	Session   string    `json:"session"`
	StartedAt time.Time `json:"started_at"`
	Outcomes  []Outcome `json:"outcomes"`
	// Halted is set when a mod failure stopped the session before the load
	// order was exhausted.
	Halted bool `json:"halted,omitempty"`
}

// Success reports whether everything the session meant to initialize did so
// cleanly. Mods outside a requested Only closure are deliberately skipped and
// do not count against the session.
func (r Report) Success() bool {
	if r.Halted {
		return false
	}
	for _, outcome := range r.Outcomes {
		if outcome.Status == plugin.StatusFailed {
			return false
		}
		if outcome.Status == plugin.StatusSkipped && outcome.Skip != SkipReasonNotSelected {
			return false
		}
	}
	return true
}

// Failed returns the ids of mods whose Init returned an error.
func (r Report) Failed() []string {
	var ids []string
	for _, outcome := range r.Outcomes {
		if outcome.Status == plugin.StatusFailed {
			ids = append(ids, outcome.ID)
		}
	}
	return ids
}

// Load initializes every mod in the resolved order and returns a report. Mods
// the resolver excluded appear in the report as skipped with the diagnostic
// that excluded them. A failed Init is recorded and the session continues
// unless the project config sets loader.halt_on_error.
func (l *Loader) Load(ctx *plugin.Context, req Request) (Report, error) {
	if ctx == nil {
		return Report{}, fmt.Errorf("loader: plugin context is required")
	}
	report := Report{
		Session:   uuid.NewString(),
		StartedAt: l.clock(),
	}
	ctx = ctx.WithSession(report.Session)
	ctx.Logbook.Info("load session %s: %d mods in order", report.Session, len(req.Result.LoadOrder))
	selected, err := selection(req)
	if err != nil {
		return Report{}, err
	}
	report.Outcomes = append(report.Outcomes, excludedOutcomes(req.Result)...)
	halt := ctx.Config != nil && ctx.Config.HaltOnError()
	halted := false
	for _, rec := range req.Result.LoadOrder {
		if halted {
			report.Outcomes = append(report.Outcomes, Outcome{
				ID:      rec.ID,
				Status:  plugin.StatusSkipped,
				Skip:    SkipReasonHalted,
				Message: "session halted by earlier failure",
			})
			continue
		}
		if selected != nil {
			if _, ok := selected[rec.ID]; !ok {
				report.Outcomes = append(report.Outcomes, Outcome{
					ID:      rec.ID,
					Status:  plugin.StatusSkipped,
					Skip:    SkipReasonNotSelected,
					Message: fmt.Sprintf("not required by %s", req.Only),
				})
				continue
			}
		}
		outcome := l.initOne(ctx, rec.ID)
		report.Outcomes = append(report.Outcomes, outcome)
		if outcome.Status == plugin.StatusFailed && halt {
			halted = true
			report.Halted = true
			ctx.Logbook.Error("load session %s halted: %s failed", report.Session, rec.ID)
		}
	}
	return report, nil
}

func (l *Loader) initOne(ctx *plugin.Context, id string) Outcome {
	started := l.clock()
	p, err := l.registry.Resolve(id, nil)
	if err != nil {
		ctx.Logbook.Error("resolve %s: %v", id, err)
		return Outcome{ID: id, Status: plugin.StatusFailed, Err: err.Error(), Duration: l.clock().Sub(started)}
	}
	result, err := p.Init(ctx)
	outcome := Outcome{
		ID:       id,
		Status:   result.Status,
		Message:  result.Message,
		Duration: l.clock().Sub(started),
	}
	if err != nil {
		outcome.Err = err.Error()
		if outcome.Status == "" {
			outcome.Status = plugin.StatusFailed
		}
		ctx.Logbook.Error("init %s: %v", id, err)
		return outcome
	}
	if outcome.Status == "" {
		outcome.Status = plugin.StatusLoaded
	}
	ctx.Logbook.Info("init %s: %s", id, outcome.Status)
	return outcome
}

// selection resolves the Only restriction into the set of mod ids to
// initialize: the target plus its transitive required dependencies, so a
// single-mod run still honors the init-after-dependencies contract. A nil set
// means everything runs.
func selection(req Request) (map[string]struct{}, error) {
	target := req.Only
	if target == "" {
		return nil, nil
	}
	byID := make(map[string]manifest.Record, len(req.Result.LoadOrder))
	for _, rec := range req.Result.LoadOrder {
		byID[rec.ID] = rec
	}
	if _, ok := byID[target]; !ok {
		return nil, fmt.Errorf("loader: mod %s is not in the load order", target)
	}
	closure := make(map[string]struct{})
	queue := []string{target}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := closure[id]; seen {
			continue
		}
		closure[id] = struct{}{}
		for _, dep := range byID[id].Requires {
			if _, present := byID[dep]; present {
				queue = append(queue, dep)
			}
		}
	}
	return closure, nil
}

// excludedOutcomes converts resolver diagnostics into skipped outcomes, cycle
// members first in detection order, then missing and incompatible mods by id.
func excludedOutcomes(res resolver.Result) []Outcome {
	var outcomes []Outcome
	seen := make(map[string]struct{})
	for _, id := range res.CircularDependencies {
		outcomes = append(outcomes, Outcome{
			ID:      id,
			Status:  plugin.StatusSkipped,
			Skip:    SkipReasonDiagnostic,
			Message: "part of a circular dependency",
		})
		seen[id] = struct{}{}
	}
	for _, id := range sortedKeys(res.MissingDependencies) {
		if _, ok := seen[id]; ok {
			continue
		}
		outcomes = append(outcomes, Outcome{
			ID:      id,
			Status:  plugin.StatusSkipped,
			Skip:    SkipReasonDiagnostic,
			Message: "missing dependencies: " + strings.Join(res.MissingDependencies[id], "; "),
		})
		seen[id] = struct{}{}
	}
	for _, id := range sortedKeys(res.Incompatibilities) {
		if _, ok := seen[id]; ok {
			continue
		}
		outcomes = append(outcomes, Outcome{
			ID:      id,
			Status:  plugin.StatusSkipped,
			Skip:    SkipReasonDiagnostic,
			Message: "incompatible with: " + strings.Join(res.Incompatibilities[id], ", "),
		})
	}
	return outcomes
}

func sortedKeys(values map[string][]string) []string {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
