package coordinator

import "github.com/gitrdm/topdubins/pkg/branch"

// nodeQueue is the open-node best-bound max-priority queue of spec.md
// §3/§9: ordered by (-ParentLPObjective, id), the bound a queued,
// not-yet-solved node inherits from its parent, so the best bound is
// always at the head and ties break on the deterministic, monotonically
// increasing node id.
type nodeQueue []*branch.Node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].ParentLPObjective != q[j].ParentLPObjective {
		return q[i].ParentLPObjective > q[j].ParentLPObjective // max-heap on bound
	}
	return q[i].ID < q[j].ID
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*branch.Node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// headBound returns the best (largest) bound among the queued nodes,
// or negInf if the queue is empty.
func (q nodeQueue) headBound() float64 {
	if len(q) == 0 {
		return negInf
	}
	return q[0].ParentLPObjective
}
