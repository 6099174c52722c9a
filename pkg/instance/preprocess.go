package instance

// PreprocessRoundTrip removes every vertex v for which
// min(src->v) + min(v->dst) > budget, using a single multi-source/
// multi-sink shortest-edge relaxation rather than a full shortest path
// (spec.md §4.5). The source and destination targets are pseudo targets
// with zero-length connectors to the real source/sink vertex clusters,
// so the source vertex set already spans every depot heading.
//
// This runs once at load time over the full instance graph; pkg/branch
// re-runs the same pass per node against each node's (smaller) subgraph.
func PreprocessRoundTrip(inst *Instance) {
	RoundTripPrune(inst.Graph, inst.VerticesInTarget[inst.SourceTarget], inst.VerticesInTarget[inst.DestTarget], inst.Budget)
}

// RoundTripPrune deletes every vertex whose best source->v->dest length
// exceeds budget from g. sources and dests name the source/sink vertex
// sets (the pseudo vertex plus its depot cluster).
//
// Per spec.md §4.5 this is a single pass recording the best direct edge
// length out of the source set and into the destination set — not a
// shortest-path computation. Dubins lengths need not satisfy the
// triangle inequality, so a multi-hop relaxation would be a different
// (and weaker) pruning criterion than the one-edge bound used here.
func RoundTripPrune(g *Graph, sources, dests []int, budget float64) {
	fromSrc := relaxFrom(g, sources, budget)
	toDst := relaxTo(g, dests, budget)

	endpoint := make(map[int]bool, len(sources)+len(dests))
	for _, s := range sources {
		endpoint[s] = true
	}
	for _, d := range dests {
		endpoint[d] = true
	}

	for v := 0; v < g.NumVertices(); v++ {
		if !g.HasVertex(v) || endpoint[v] {
			// Source/destination vertices are the trip endpoints, not
			// round-trip candidates; the one-edge maps cannot see across
			// the graph to the opposite pseudo vertex.
			continue
		}
		a, okA := fromSrc[v]
		b, okB := toDst[v]
		if !okA || !okB || a+b > budget {
			g.RemoveVertex(v)
		}
	}
}

// relaxFrom records, in one pass over the source set's out-edges, the
// best direct edge length from any vertex in sources. Source vertices
// themselves sit at distance 0.
func relaxFrom(g *Graph, sources []int, budget float64) map[int]float64 {
	dist := make(map[int]float64)
	for _, s := range sources {
		dist[s] = 0
	}
	for _, s := range sources {
		g.Successors(s, func(w int, weight float64) {
			if weight > budget {
				return
			}
			if cur, ok := dist[w]; !ok || weight < cur {
				dist[w] = weight
			}
		})
	}
	return dist
}

// relaxTo is the mirror of relaxFrom along the destination set's
// in-edges.
func relaxTo(g *Graph, dests []int, budget float64) map[int]float64 {
	dist := make(map[int]float64)
	for _, d := range dests {
		dist[d] = 0
	}
	for _, d := range dests {
		g.Predecessors(d, func(u int, weight float64) {
			if weight > budget {
				return
			}
			if cur, ok := dist[u]; !ok || weight < cur {
				dist[u] = weight
			}
		})
	}
	return dist
}
