package resolver

import (
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/modsmith/modsmith/internal/manifest"
)

// Sink receives human-readable resolution diagnostics. Implementations are
// best-effort: a sink that fails to record a line must not surface that
// failure, and nothing the sink does can alter the returned Result.
type Sink interface {
	Error(format string, args ...any)
	Debug(format string, args ...any)
}

// Result is the outcome of a single resolution pass.
type Result struct {
	// LoadOrder lists the manifests that survived every pass, dependencies
	// before dependents. When Success is true it contains every input
	// manifest exactly once.
	LoadOrder []manifest.Record
	// MissingDependencies maps a mod id to the required dependency ids that
	// were absent from the install, or that were themselves excluded.
	MissingDependencies map[string][]string
	// CircularDependencies lists every mod that participates in at least one
	// dependency cycle, in detection order.
	CircularDependencies []string
	// Incompatibilities maps a mod id to the declared incompatible peers that
	// are present in the install.
	Incompatibilities map[string][]string
}

// Success reports whether every input manifest made it into the load order.
func (res Result) Success() bool {
	return len(res.MissingDependencies) == 0 &&
		len(res.CircularDependencies) == 0 &&
		len(res.Incompatibilities) == 0
}

// Excluded reports whether a mod id carries at least one diagnostic.
func (res Result) Excluded(id string) bool {
	if _, ok := res.MissingDependencies[id]; ok {
		return true
	}
	if _, ok := res.Incompatibilities[id]; ok {
		return true
	}
	for _, member := range res.CircularDependencies {
		if member == id {
			return true
		}
	}
	return false
}

// Resolver computes load orders over declared manifest sets. It holds no
// state between calls beyond the injected sink, so a single Resolver is safe
// to share across goroutines.
type Resolver struct {
	sink Sink
}

// New constructs a resolver around a diagnostic sink.
func New(sink Sink) (*Resolver, error) {
	if sink == nil {
		return nil, fmt.Errorf("resolver: diagnostic sink is required")
	}
	return &Resolver{sink: sink}, nil
}

// Resolve runs the full pipeline over the manifest set: availability and
// incompatibility filtering, graph construction, cycle removal, then a Kahn
// topological sort. The input slice is never mutated and a nil slice is the
// valid empty install. Duplicate ids keep their first declaration; ingestion
// is expected to have rejected them already.
func (r *Resolver) Resolve(records []manifest.Record) Result {
	res := Result{
		MissingDependencies: map[string][]string{},
		Incompatibilities:   map[string][]string{},
	}

	input := make([]manifest.Record, 0, len(records))
	byID := make(map[string]manifest.Record, len(records))
	knownIDs := make([]string, 0, len(records))
	for _, rec := range records {
		if _, dup := byID[rec.ID]; dup {
			r.sink.Error("resolver: duplicate manifest id %s ignored, first declaration wins", rec.ID)
			continue
		}
		byID[rec.ID] = rec
		knownIDs = append(knownIDs, rec.ID)
		input = append(input, rec)
	}

	excluded := make(map[string]struct{})
	for _, rec := range input {
		for _, dep := range rec.Requires {
			if _, present := byID[dep]; !present {
				res.MissingDependencies[rec.ID] = append(res.MissingDependencies[rec.ID], dep)
				r.sink.Error("resolver: %s requires %s which is not installed%s", rec.ID, dep, suggestion(dep, knownIDs))
			}
		}
		for _, peer := range rec.IncompatibleWith {
			if _, present := byID[peer]; present {
				res.Incompatibilities[rec.ID] = append(res.Incompatibilities[rec.ID], peer)
				r.sink.Error("resolver: %s cannot load alongside %s", rec.ID, peer)
			}
		}
		if _, miss := res.MissingDependencies[rec.ID]; miss {
			excluded[rec.ID] = struct{}{}
		} else if _, inc := res.Incompatibilities[rec.ID]; inc {
			excluded[rec.ID] = struct{}{}
		}
	}
	r.propagate(input, excluded, &res)

	survivors := make([]manifest.Record, 0, len(input))
	for _, rec := range input {
		if _, skip := excluded[rec.ID]; !skip {
			survivors = append(survivors, rec)
		}
	}

	edges := buildEdges(survivors)

	order := make([]string, 0, len(survivors))
	for _, rec := range survivors {
		order = append(order, rec.ID)
	}
	for _, id := range r.detectCycles(order, edges) {
		res.CircularDependencies = append(res.CircularDependencies, id)
		excluded[id] = struct{}{}
		r.sink.Error("resolver: %s is part of a dependency cycle", id)
	}
	r.propagate(input, excluded, &res)

	remaining := make([]string, 0, len(order))
	present := make(map[string]struct{}, len(order))
	for _, id := range order {
		if _, skip := excluded[id]; !skip {
			remaining = append(remaining, id)
			present[id] = struct{}{}
		}
	}

	for _, id := range topoSort(remaining, present, edges) {
		res.LoadOrder = append(res.LoadOrder, byID[id])
	}

	r.sink.Debug("resolver: %d of %d mods loadable, %d missing deps, %d incompatible, %d cyclic",
		len(res.LoadOrder), len(input), len(res.MissingDependencies), len(res.Incompatibilities), len(res.CircularDependencies))
	return res
}

// propagate extends the excluded set through required edges until it reaches
// a fixpoint: a mod whose required dependency failed to load fails too, and
// the broken dependency is recorded under MissingDependencies. Optional
// dependencies never propagate.
func (r *Resolver) propagate(input []manifest.Record, excluded map[string]struct{}, res *Result) {
	for changed := true; changed; {
		changed = false
		for _, rec := range input {
			if _, skip := excluded[rec.ID]; skip {
				continue
			}
			for _, dep := range rec.Requires {
				if _, broken := excluded[dep]; !broken {
					continue
				}
				res.MissingDependencies[rec.ID] = append(res.MissingDependencies[rec.ID], dep)
				r.sink.Error("resolver: %s requires %s which failed to load", rec.ID, dep)
				excluded[rec.ID] = struct{}{}
				changed = true
			}
		}
	}
}

// buildEdges constructs the outgoing edge list per surviving mod: every
// required dependency plus any optional dependency whose target survived.
// Required targets are guaranteed present among survivors by the filter, so
// no required edge is ever dropped here.
func buildEdges(survivors []manifest.Record) map[string][]string {
	surviving := make(map[string]struct{}, len(survivors))
	for _, rec := range survivors {
		surviving[rec.ID] = struct{}{}
	}
	edges := make(map[string][]string, len(survivors))
	for _, rec := range survivors {
		seen := make(map[string]struct{}, len(rec.Requires)+len(rec.Optional))
		var out []string
		for _, dep := range rec.Requires {
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
		for _, dep := range rec.Optional {
			if _, ok := surviving[dep]; !ok {
				continue
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			out = append(out, dep)
		}
		edges[rec.ID] = out
	}
	return edges
}

// detectCycles walks the graph depth-first from every root in input order and
// returns the ids that participate in any cycle, in detection order. The
// traversal keeps an explicit path so that when it re-enters a node already
// on the active path, everything from that node's first occurrence through
// the current tail is marked as cycle membership.
func (r *Resolver) detectCycles(order []string, edges map[string][]string) []string {
	completed := make(map[string]struct{}, len(order))
	onPath := make(map[string]struct{}, len(order))
	inCycle := make(map[string]struct{})
	var members []string
	var path []string

	var visit func(id string)
	visit = func(id string) {
		if _, done := completed[id]; done {
			return
		}
		if _, active := onPath[id]; active {
			start := 0
			for i, node := range path {
				if node == id {
					start = i
					break
				}
			}
			for _, node := range path[start:] {
				if _, seen := inCycle[node]; seen {
					continue
				}
				inCycle[node] = struct{}{}
				members = append(members, node)
			}
			return
		}
		onPath[id] = struct{}{}
		path = append(path, id)
		for _, dep := range edges[id] {
			visit(dep)
		}
		path = path[:len(path)-1]
		delete(onPath, id)
		completed[id] = struct{}{}
	}

	for _, id := range order {
		visit(id)
	}
	return members
}

// topoSort is Kahn's algorithm with the edge direction inverted: an edge
// A -> B means "A depends on B", so a node's in-degree counts its own edges
// toward nodes still in the graph and a node becomes ready once everything it
// depends on has been placed. Ties resolve FIFO in input order.
func topoSort(remaining []string, present map[string]struct{}, edges map[string][]string) []string {
	inDegree := make(map[string]int, len(remaining))
	dependents := make(map[string][]string, len(remaining))
	for _, id := range remaining {
		degree := 0
		for _, dep := range edges[id] {
			if _, ok := present[dep]; !ok {
				continue
			}
			degree++
			dependents[dep] = append(dependents[dep], id)
		}
		inDegree[id] = degree
	}

	queue := make([]string, 0, len(remaining))
	for _, id := range remaining {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	// The graph is acyclic here, so the queue drains every remaining node.
	sorted := make([]string, 0, len(remaining))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)
		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	return sorted
}

// suggestion fuzzy-matches a missing dependency id against the installed set
// so operators can spot typos straight from the log line.
func suggestion(dep string, knownIDs []string) string {
	matches := fuzzy.Find(dep, knownIDs)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(" (closest installed id: %s)", knownIDs[matches[0].Index])
}
