package setcover

import (
	"context"

	"github.com/gitrdm/topdubins/pkg/bnb"
	"github.com/gitrdm/topdubins/pkg/timeguard"
)

const negInf = -1e300

// mipFractionalTol is the tolerance used to decide whether an LP
// variable is "integral enough" (spec.md §4.4 also uses this notion
// for branching on the node's own LP solution).
const mipFractionalTol = 1e-7

// mipNode is one node of the 0/1 set-cover branch-and-bound tree
// (spec.md §4.3 step 4). It implements pkg/bnb.Problem, reusing the
// same generic best-bound engine spec.md scenario S1 exercises,
// rather than a second bespoke tree walker.
type mipNode struct {
	model *Model
	lower []float64
	upper []float64

	solved bool
	sol    Solution
	lpOK   bool
}

// newMIPRoot builds the root node: every route variable free in [0,1].
func newMIPRoot(model *Model) *mipNode {
	n := len(model.routes)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = 1
	}
	return &mipNode{model: model, lower: lower, upper: upper}
}

func (n *mipNode) solve() {
	if n.solved {
		return
	}
	n.solved = true
	sol, err := n.model.solveBounded(n.lower, n.upper)
	if err != nil {
		n.lpOK = false
		return
	}
	n.lpOK = true
	n.sol = sol
}

func (n *mipNode) Bound() float64 {
	n.solve()
	if !n.lpOK {
		return negInf
	}
	return n.sol.Objective
}

func (n *mipNode) Value() float64 {
	n.solve()
	return n.sol.Objective
}

func (n *mipNode) Feasible() bool {
	n.solve()
	return n.lpOK && n.fractionalIndex() < 0
}

func (n *mipNode) fractionalIndex() int {
	for j, v := range n.sol.X {
		if v > mipFractionalTol && v < 1-mipFractionalTol {
			return j
		}
	}
	return -1
}

func (n *mipNode) Branch() []bnb.Problem {
	n.solve()
	if !n.lpOK {
		return nil
	}
	j := n.fractionalIndex()
	if j < 0 {
		return nil
	}
	return []bnb.Problem{
		&mipNode{model: n.model, lower: fixedBound(n.lower, j, 0), upper: fixedBound(n.upper, j, 0)},
		&mipNode{model: n.model, lower: fixedBound(n.lower, j, 1), upper: fixedBound(n.upper, j, 1)},
	}
}

func fixedBound(xs []float64, idx int, v float64) []float64 {
	out := append([]float64(nil), xs...)
	out[idx] = v
	return out
}

// SolveMIP solves the 0/1 set-cover incumbent over the current route
// pool (spec.md §4.3 step 4), honoring the shared deadline. It returns
// the incumbent solution and the subset of routes selected (x=1); if no
// integer-feasible assignment exists (an empty pool, or every route
// infeasible under the box constraints), ok is false.
func SolveMIP(model *Model, guard timeguard.TimeGuard) (sol Solution, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), guard.Remaining())
	defer cancel()

	result := bnb.Solve(ctx, newMIPRoot(model))
	if result.BestSolution == nil {
		return Solution{}, false
	}
	best := result.BestSolution.(*mipNode)
	return best.sol, true
}

// SelectedRoutes returns the routes whose MIP variable rounds to 1.
func (m *Model) SelectedRoutes(sol Solution) []int {
	var idx []int
	for j, v := range sol.X {
		if v > 0.5 {
			idx = append(idx, j)
		}
	}
	return idx
}
