package pricing

import (
	"container/heap"

	"github.com/gitrdm/topdubins/pkg/instance"
)

// labelHeap is a min-heap of labels ordered by SelectionMetric, used as
// the two unprocessed-label priority queues of I-DSSR (spec.md §4.2b).
type labelHeap []*State

func (h labelHeap) Len() int            { return len(h) }
func (h labelHeap) Less(i, j int) bool  { return h[i].SelectionMetric < h[j].SelectionMetric }
func (h labelHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *labelHeap) Push(x interface{}) { *h = append(*h, x.(*State)) }
func (h *labelHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// interleavedSearch implements spec.md §4.2b: two min-priority queues of
// unprocessed labels, alternately popped, each popped label attempting
// joins with opposite-direction labels on its adjacent vertices before
// being extended one edge further.
type interleavedSearch struct {
	engine   *Engine
	critical instance.TargetSet
	domCfg   DominanceConfig
}

func (s *interleavedSearch) run() (searchResult, error) {
	e := s.engine
	inst := e.inst

	fwdStore := newLabelStore(s.domCfg)
	bwdStore := newLabelStore(s.domCfg)

	fwdHeap := &labelHeap{}
	bwdHeap := &labelHeap{}
	heap.Init(fwdHeap)
	heap.Init(bwdHeap)

	s.seed(fwdStore, fwdHeap, inst.SourceTarget, true)
	s.seed(bwdStore, bwdHeap, inst.DestTarget, false)

	var result searchResult
	var best *joinedPath
	bestRC := 0.0
	popForward := true

	for fwdHeap.Len() > 0 || bwdHeap.Len() > 0 {
		if e.guard.Expired() {
			break
		}
		if e.cfg.RouteCap > 0 && len(result.routes) >= e.cfg.RouteCap {
			break
		}

		var l *State
		var forward bool
		switch {
		case popForward && fwdHeap.Len() > 0:
			l = heap.Pop(fwdHeap).(*State)
			forward = true
		case bwdHeap.Len() > 0:
			l = heap.Pop(bwdHeap).(*State)
			forward = false
		case fwdHeap.Len() > 0:
			l = heap.Pop(fwdHeap).(*State)
			forward = true
		default:
			continue
		}
		popForward = !popForward

		if l.Dominated {
			continue
		}

		s.tryJoins(l, forward, fwdStore, bwdStore, &result, &best, &bestRC)

		if !eligibleForExtension(l, inst.Budget) {
			continue
		}
		s.extendAndEnqueue(l, forward, fwdStore, bwdStore, fwdHeap, bwdHeap)
	}

	result.optimal = best
	return result, nil
}

func (s *interleavedSearch) seed(store *labelStore, h *labelHeap, target int, forward bool) {
	inst := s.engine.inst
	for _, v := range inst.VerticesInTarget[target] {
		term := NewTerminalState(v, forward, inst.NumTargets)
		store.Insert(term)
		heap.Push(h, term)
	}
}

// tryJoins attempts a join between l and every opposite-direction label
// on l's adjacent vertices (spec.md §4.2b).
func (s *interleavedSearch) tryJoins(l *State, forward bool, fwdStore, bwdStore *labelStore, result *searchResult, best **joinedPath, bestRC *float64) {
	e := s.engine
	inst := e.inst

	visit := func(other int, weight float64) {
		var f, b *State
		var edgeLen float64
		var partners []*State
		if forward {
			partners = bwdStore.At(other)
			edgeLen = weight
		} else {
			partners = fwdStore.At(other)
			edgeLen = weight
		}
		for _, p := range partners {
			if p.Dominated {
				continue
			}
			if forward {
				f, b = l, p
			} else {
				f, b = p, l
			}
			total, ok := joinFeasible(inst, f, b, edgeLen, e.d0, e.edgeDual)
			if !ok {
				continue
			}
			if !halfWayAccept(f, b) {
				continue
			}
			r := labelsToRoute(inst, f, b, edgeLen, total)
			if r.IsElementary() {
				result.routes = append(result.routes, r)
			}
			if *best == nil || total < *bestRC {
				*best = &joinedPath{forward: f, backward: b, joinLen: edgeLen, reducedCost: total}
				*bestRC = total
			}
		}
	}

	if forward {
		e.graph.Successors(l.Vertex, visit)
	} else {
		e.graph.Predecessors(l.Vertex, visit)
	}
}

func (s *interleavedSearch) extendAndEnqueue(l *State, forward bool, fwdStore, bwdStore *labelStore, fwdHeap, bwdHeap *labelHeap) {
	e := s.engine
	inst := e.inst

	store, h := fwdStore, fwdHeap
	if !forward {
		store, h = bwdStore, bwdHeap
	}

	visit := func(w int, weight float64) {
		if !feasibleExtension(inst, l, w, weight, s.critical, e.cfg.MaxTargetsCap) {
			return
		}
		child := extendState(inst, l, w, weight, s.critical, e.edgeDual, e.targetDual, e.cfg.MetricMode)
		if store.Insert(child) {
			heap.Push(h, child)
		}
	}

	if forward {
		e.graph.Successors(l.Vertex, visit)
	} else {
		e.graph.Predecessors(l.Vertex, visit)
	}
}
