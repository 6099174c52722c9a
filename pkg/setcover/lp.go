package setcover

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible reports that the set-cover LP has no feasible
// assignment on the current route pool and variable bounds (spec.md
// §4.3 step 3, §7 "LP-infeasible-at-root").
var ErrInfeasible = errors.New("setcover: LP infeasible")

const simplexTol = 1e-10

// SolveLP solves the LP relaxation (spec.md §4.3 "Set-cover LP"):
// maximize sum(route.score * x) subject to the route-cap constraint,
// every per-target at-most-one constraint, and 0<=x<=1. On top of the
// primal solution it recovers d0 (the route-cap dual) and the
// per-target duals (spec.md §4.3 "Dual recovery") by solving the
// explicit dual LP, since lp.Simplex exposes only the primal optimum.
func (m *Model) SolveLP() (Solution, error) {
	n := len(m.routes)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for j := range upper {
		upper[j] = 1
	}
	sol, err := m.solveBounded(lower, upper)
	if err != nil {
		return Solution{}, err
	}
	if err := m.recoverDuals(&sol); err != nil {
		return Solution{}, err
	}
	return sol, nil
}

// solveBounded solves the primal LP with per-route bounds lower[j] <=
// x_j <= upper[j], used by SolveLP (lower=0, upper=1) and by the MIP
// branch-and-bound (mip.go) to fix variables to 0 or 1 along a branch.
//
// gonum's lp.Simplex solves in standard equality form (min c^Tx s.t.
// Ax=b, x>=0); a bounded variable x_j is substituted with x_j' =
// x_j - lower[j] >= 0, shifting the route-cap and per-target row
// right-hand sides by lower[j] times that column's coefficient, and
// folding lower[j]*score[j] into the objective as a constant. Every
// row — route-cap, per-target, and the per-route box x_j' <=
// upper[j]-lower[j] — gets its own slack column, except a must-visit
// target's row, which gets none, turning the at-most-one row into
// the equality spec.md §4.3 calls for.
func (m *Model) solveBounded(lower, upper []float64) (Solution, error) {
	n := len(m.routes)
	if n == 0 {
		return Solution{}, ErrInfeasible
	}

	numConstraintRows := 1 + len(m.targetRow) + n
	numSlack := numConstraintRows
	for t := range m.targetRow {
		if m.mustVisit[t] {
			numSlack--
		}
	}
	cols := n + numSlack

	A := mat.NewDense(numConstraintRows, cols, nil)
	b := make([]float64, numConstraintRows)
	c := make([]float64, cols)

	row := 0
	slack := n
	for j := 0; j < n; j++ {
		A.Set(row, j, 1)
		b[row] -= lower[j]
	}
	A.Set(row, slack, 1)
	slack++
	b[row] += float64(m.inst.NumVehicles)
	row++

	for _, t := range m.sortedConstraintTargets() {
		for j := range m.routes {
			if !routeVisits(m.routes[j], t) {
				continue
			}
			A.Set(row, j, 1)
			b[row] -= lower[j]
		}
		if !m.mustVisit[t] {
			// <=1 at-most-one constraint: slack absorbs any shortfall.
			A.Set(row, slack, 1)
			slack++
		}
		b[row] += 1
		row++
	}

	objectiveConstant := 0.0
	for j := 0; j < n; j++ {
		A.Set(row, j, 1)
		A.Set(row, slack, 1)
		slack++
		b[row] = upper[j] - lower[j]
		row++
	}

	for j, r := range m.routes {
		c[j] = -r.Score // gonum minimizes; negate to maximize score
		objectiveConstant += -r.Score * lower[j]
	}

	obj, x, err := lp.Simplex(c, A, b, simplexTol, nil)
	if err != nil {
		return Solution{}, fmt.Errorf("%w: %v", ErrInfeasible, err)
	}

	xShifted := make([]float64, n)
	for j := 0; j < n; j++ {
		xShifted[j] = x[j] + lower[j]
	}

	return Solution{
		X:         xShifted,
		Objective: -(obj + objectiveConstant),
	}, nil
}

// recoverDuals solves the dual of the set-cover relaxation and writes
// d0 and the per-target duals into sol (spec.md §4.3 "Dual recovery").
//
// For the maximization primal
//
//	max s^T x  s.t.  sum x_j <= V,  sum_{j covers t} x_j <= 1 (or ==1),
//	                 x_j <= 1,  x >= 0
//
// the dual is
//
//	min V*d0 + sum_t r_t + sum_j w_j
//	s.t. d0 + sum_{t covered by j} r_t + w_j >= s_j  for every route j
//	     d0, r_t, w_j >= 0  (r_t free for must-visit equality rows)
//
// expressed in gonum's equality standard form with a surplus column per
// route row and a split r_t = r_t+ - r_t- for the free duals.
func (m *Model) recoverDuals(sol *Solution) error {
	n := len(m.routes)
	targets := m.sortedConstraintTargets()

	var free []int // targets whose dual is free (must-visit equality row)
	for _, t := range targets {
		if m.mustVisit[t] {
			free = append(free, t)
		}
	}

	// Column layout: d0 | r_t (one per constraint target) | r_t- (one
	// per free target) | w_j | surplus_j.
	colOfTarget := make(map[int]int, len(targets))
	for i, t := range targets {
		colOfTarget[t] = 1 + i
	}
	colOfNeg := make(map[int]int, len(free))
	for i, t := range free {
		colOfNeg[t] = 1 + len(targets) + i
	}
	wBase := 1 + len(targets) + len(free)
	surplusBase := wBase + n
	cols := surplusBase + n

	A := mat.NewDense(n, cols, nil)
	b := make([]float64, n)
	c := make([]float64, cols)

	c[0] = float64(m.inst.NumVehicles)
	for _, t := range targets {
		c[colOfTarget[t]] = 1
	}
	for _, t := range free {
		c[colOfNeg[t]] = -1
	}
	for j := 0; j < n; j++ {
		c[wBase+j] = 1
	}

	for j, r := range m.routes {
		A.Set(j, 0, 1)
		for _, t := range targets {
			if !routeVisits(r, t) {
				continue
			}
			A.Set(j, colOfTarget[t], 1)
			if neg, ok := colOfNeg[t]; ok {
				A.Set(j, neg, -1)
			}
		}
		A.Set(j, wBase+j, 1)
		A.Set(j, surplusBase+j, -1)
		b[j] = r.Score
	}

	_, y, err := lp.Simplex(c, A, b, simplexTol, nil)
	if err != nil {
		return fmt.Errorf("setcover: dual recovery: %w", err)
	}

	sol.D0 = y[0]
	sol.TargetDual = make([]float64, m.inst.NumTargets)
	for _, t := range targets {
		d := y[colOfTarget[t]]
		if neg, ok := colOfNeg[t]; ok {
			d -= y[neg]
		}
		sol.TargetDual[t] = d
	}
	return nil
}

// sortedConstraintTargets returns the targets carrying a covering
// constraint row, in ascending id order so row layout is deterministic
// regardless of map iteration.
func (m *Model) sortedConstraintTargets() []int {
	out := make([]int, 0, len(m.targetRow))
	for t := range m.targetRow {
		out = append(out, t)
	}
	sortInts(out)
	return out
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
