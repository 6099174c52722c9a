package pricing

import (
	"fmt"
	"sort"

	"github.com/gitrdm/topdubins/pkg/instance"
	"github.com/gitrdm/topdubins/pkg/timeguard"
)

// SelectionMetricMode selects how State.SelectionMetric is computed for
// the I-DSSR unprocessed-label priority queues (spec.md §3).
type SelectionMetricMode int

const (
	// MetricReducedCost orders labels by plain reduced cost.
	MetricReducedCost SelectionMetricMode = iota
	// MetricReducedCostPerLength orders by reduced cost per unit
	// length ("bang for buck").
	MetricReducedCostPerLength
)

// Config holds the per-engine-instance parameters of spec.md §4.2 and
// the CLI flags that select them (spec.md §6: -c, -i, -rd, -u).
type Config struct {
	Interleaved   bool
	Dominance     DominanceConfig
	RouteCap      int
	MetricMode    SelectionMetricMode
	MaxTargetsCap bool // optional numTargetsVisited <= numTargets-1 cap
}

// Engine is the elementary-shortest-path pricing engine of spec.md §4.2:
// DSSR and its bidirectional interleaved variant (I-DSSR), with label
// dominance, half-way pruning, and critical-target tracking via bit sets.
//
// One Engine is owned by exactly one worker goroutine for the lifetime
// of that worker (spec.md §5), so its dominance-mode flag can flip
// in-place during a Solve call without any cross-worker aliasing
// (spec.md §9 "Hazards").
type Engine struct {
	inst  *instance.Instance
	graph *instance.Graph
	cfg   Config
	guard timeguard.TimeGuard

	// Duals for the current column-generation iteration (spec.md §4.2).
	d0         float64
	targetDual []float64
	edgeDual   map[[2]int]float64

	// requiredEdges holds target-pairs a node's mustVisitTargetEdges
	// demands (spec.md §4.4 edge branch, DESIGN.md Open Question #1:
	// compiled into pricing-graph surgery rather than master LP rows).
	// A collected route is rejected unless its TargetPath traverses
	// every required pair consecutively.
	requiredEdges map[[2]int]bool
}

// SetRequiredEdges installs the node's mustVisitTargetEdges (spec.md
// §3/§4.4): every route the engine returns from Solve must traverse
// each pair's (from,to) targets back-to-back. Pass nil to clear.
func (e *Engine) SetRequiredEdges(edges map[[2]int]bool) {
	e.requiredEdges = edges
}

// satisfiesRequiredEdges reports whether targetPath traverses every
// required (from,to) pair as consecutive entries.
func (e *Engine) satisfiesRequiredEdges(targetPath []int) bool {
	for pair := range e.requiredEdges {
		found := false
		for i := 0; i+1 < len(targetPath); i++ {
			if targetPath[i] == pair[0] && targetPath[i+1] == pair[1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NewEngine builds a pricing engine bound to a node's subgraph. graph is
// typically the node's own copy-on-write subgraph (pkg/branch.Node),
// not the shared instance graph.
func NewEngine(inst *instance.Instance, graph *instance.Graph, cfg Config, guard timeguard.TimeGuard) *Engine {
	return &Engine{inst: inst, graph: graph, cfg: cfg, guard: guard}
}

// SetDuals installs the dual vector for the next Solve call (spec.md §4.3
// step 2: "read off d0 ... and per-target duals; call the pricing engine").
func (e *Engine) SetDuals(d0 float64, targetDual []float64, edgeDual map[[2]int]float64) {
	e.d0 = d0
	e.targetDual = targetDual
	e.edgeDual = edgeDual
}

// ErrCriticalCycle reports a pricing-search invariant violation: a route
// revisited a target already marked critical (spec.md §4.2, §7).
type ErrCriticalCycle struct {
	Target int
}

func (e *ErrCriticalCycle) Error() string {
	return fmt.Sprintf("pricing: route revisits critical target %d (dominance/extension bug)", e.Target)
}

// Invariant satisfies plumbing.InvariantError.
func (e *ErrCriticalCycle) Invariant() string { return "critical-target-cycle" }

// Solve runs the DSSR outer loop (spec.md §4.2): mark all targets
// non-critical, run a labeling search, and promote any repeated target
// on the optimal route to critical until the optimal route is
// elementary or no further route is found. It returns every elementary
// negative-reduced-cost route collected across all DSSR iterations,
// deduplicated by vertex path and sorted by it, so a single-worker run
// produces an identical column pool every time regardless of adjacency
// map iteration order.
func (e *Engine) Solve() ([]instance.Route, error) {
	collected, err := e.runDSSR()
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Key() < collected[j].Key()
	})
	return collected, err
}

func (e *Engine) runDSSR() ([]instance.Route, error) {
	critical := instance.NewTargetSet(e.inst.NumTargets)
	strict := e.cfg.Dominance.Strict
	seen := make(map[string]struct{})
	var collected []instance.Route
	triedStrictRecovery := false

	for {
		if e.guard.Expired() {
			return collected, nil
		}

		cfg := e.cfg.Dominance
		cfg.Strict = strict
		optimalRoute, found, err := e.runIteration(critical, cfg, seen, &collected)
		if err != nil {
			return collected, err
		}

		if !found {
			if !strict && !triedStrictRecovery {
				// spec.md §4.2 "Stricter dominance recovery": retry once
				// under strict dominance before giving up.
				strict = true
				triedStrictRecovery = true
				continue
			}
			return collected, nil
		}

		repeats := optimalRoute.RepeatedTargets()
		if len(repeats) == 0 {
			return collected, nil
		}
		for _, t := range repeats {
			if critical.Has(t) {
				return collected, &ErrCriticalCycle{Target: t}
			}
			critical = critical.With(t)
		}
	}
}

// runIteration runs one labeling search (simple or interleaved) under
// the given critical-target set and dominance config, records every
// elementary negative-reduced-cost route it finds into collected
// (deduplicating against seen and respecting the route cap), and
// returns the single least-reduced-cost route found, if any.
func (e *Engine) runIteration(critical instance.TargetSet, cfg DominanceConfig, seen map[string]struct{}, collected *[]instance.Route) (instance.Route, bool, error) {
	var search labelSearch
	if e.cfg.Interleaved {
		search = &interleavedSearch{engine: e, critical: critical, domCfg: cfg}
	} else {
		search = &simpleSearch{engine: e, critical: critical, domCfg: cfg}
	}

	result, err := search.run()
	if err != nil {
		return instance.Route{}, false, err
	}

	// Sort before the cap-limited collection below so which routes make
	// it under the cap does not depend on adjacency-map iteration order.
	sort.Slice(result.routes, func(i, j int) bool {
		return result.routes[i].Key() < result.routes[j].Key()
	})

	for _, r := range result.routes {
		if len(*collected) >= e.cfg.RouteCap {
			break
		}
		if _, ok := seen[r.Key()]; ok {
			continue
		}
		if !r.IsElementary() {
			continue
		}
		if !e.satisfiesRequiredEdges(r.TargetPath) {
			continue
		}
		seen[r.Key()] = struct{}{}
		*collected = append(*collected, r)
	}

	if result.optimal == nil {
		return instance.Route{}, false, nil
	}
	return labelsToRoute(e.inst, result.optimal.forward, result.optimal.backward, result.optimal.joinLen, result.optimal.reducedCost), true, nil
}

// searchResult is what either search variant produces: the single
// least-reduced-cost joined path found (optimal) and every elementary
// negative-reduced-cost route discovered along the way.
type searchResult struct {
	optimal *joinedPath
	routes  []instance.Route
}

type joinedPath struct {
	forward, backward *State
	joinLen           float64
	reducedCost       float64
}

type labelSearch interface {
	run() (searchResult, error)
}
