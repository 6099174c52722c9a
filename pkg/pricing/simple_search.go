package pricing

import "github.com/gitrdm/topdubins/pkg/instance"

// simpleSearch implements spec.md §4.2a: grow every label out of a
// working set of vertices until the set empties, then join every
// forward/backward label pair across every edge of the subgraph.
type simpleSearch struct {
	engine   *Engine
	critical instance.TargetSet
	domCfg   DominanceConfig
}

func (s *simpleSearch) run() (searchResult, error) {
	e := s.engine
	inst := e.inst

	fwdStore := newLabelStore(s.domCfg)
	bwdStore := newLabelStore(s.domCfg)

	fwdQueue, fwdQueued := s.seed(fwdStore, inst.SourceTarget, true)
	bwdQueue, bwdQueued := s.seed(bwdStore, inst.DestTarget, false)

	for len(fwdQueue) > 0 || len(bwdQueue) > 0 {
		if e.guard.Expired() {
			break
		}
		if len(fwdQueue) > 0 {
			v := fwdQueue[0]
			fwdQueue = fwdQueue[1:]
			delete(fwdQueued, v)
			s.expand(fwdStore, v, true, &fwdQueue, fwdQueued)
		}
		if len(bwdQueue) > 0 {
			v := bwdQueue[0]
			bwdQueue = bwdQueue[1:]
			delete(bwdQueued, v)
			s.expand(bwdStore, v, false, &bwdQueue, bwdQueued)
		}
	}

	return s.joinAll(fwdStore, bwdStore)
}

// seed installs terminal labels at every vertex belonging to target and
// returns the initial working-set queue.
func (s *simpleSearch) seed(store *labelStore, target int, forward bool) ([]int, map[int]bool) {
	inst := s.engine.inst
	var queue []int
	queued := make(map[int]bool)
	for _, v := range inst.VerticesInTarget[target] {
		term := NewTerminalState(v, forward, inst.NumTargets)
		store.Insert(term)
		if !queued[v] {
			queue = append(queue, v)
			queued[v] = true
		}
	}
	return queue, queued
}

// expand extends every not-yet-extended, extension-eligible label at v
// one edge further, pushing any newly-affected vertex onto queue.
func (s *simpleSearch) expand(store *labelStore, v int, forward bool, queue *[]int, queued map[int]bool) {
	e := s.engine
	inst := e.inst
	labels := store.At(v)
	for _, l := range labels {
		if l.Dominated || l.Extended {
			continue
		}
		l.Extended = true
		if !eligibleForExtension(l, inst.Budget) {
			continue
		}
		visit := func(w int, weight float64) {
			if !feasibleExtension(inst, l, w, weight, s.critical, e.cfg.MaxTargetsCap) {
				return
			}
			child := extendState(inst, l, w, weight, s.critical, e.edgeDual, e.targetDual, e.cfg.MetricMode)
			if store.Insert(child) && !queued[w] {
				*queue = append(*queue, w)
				queued[w] = true
			}
		}
		if forward {
			e.graph.Successors(v, visit)
		} else {
			e.graph.Predecessors(v, visit)
		}
	}
}

// joinAll attempts, for every directed edge (i,j) in the subgraph, to
// join every live forward label at i with every live backward label at
// j (spec.md §4.2a). Like the interleaved variant it stops outright
// once the configured cap on elementary routes is reached — the cap is
// a search-stop condition, not a post-hoc truncation.
func (s *simpleSearch) joinAll(fwdStore, bwdStore *labelStore) (searchResult, error) {
	e := s.engine
	inst := e.inst

	var result searchResult
	var best *joinedPath
	bestRC := 0.0

	capped := func() bool {
		return e.cfg.RouteCap > 0 && len(result.routes) >= e.cfg.RouteCap
	}

	for i := 0; i < e.graph.NumVertices() && !capped(); i++ {
		if !e.graph.HasVertex(i) {
			continue
		}
		fwdLabels := fwdStore.At(i)
		if len(fwdLabels) == 0 {
			continue
		}
		e.graph.Successors(i, func(j int, weight float64) {
			if capped() {
				return
			}
			bwdLabels := bwdStore.At(j)
			for _, f := range fwdLabels {
				if f.Dominated {
					continue
				}
				for _, b := range bwdLabels {
					if capped() {
						return
					}
					if b.Dominated {
						continue
					}
					total, ok := joinFeasible(inst, f, b, weight, e.d0, e.edgeDual)
					if !ok {
						continue
					}
					if !halfWayAccept(f, b) {
						continue
					}
					r := labelsToRoute(inst, f, b, weight, total)
					if r.IsElementary() {
						result.routes = append(result.routes, r)
					}
					if best == nil || total < bestRC {
						best = &joinedPath{forward: f, backward: b, joinLen: weight, reducedCost: total}
						bestRC = total
					}
				}
			}
		})
	}

	result.optimal = best
	return result, nil
}
