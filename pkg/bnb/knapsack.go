package bnb

// Knapsack is the continuous-knapsack branch-and-bound Problem used by
// spec.md scenario S1: profits/weights/capacity, branching on whether
// each item is included. The LP-relaxation bound (fractional knapsack,
// items taken in value-density order) is the classic textbook bound;
// this is the one domain-independent problem in the repo, grounded on
// the teacher's convention of exercising a generic solver core against
// several unrelated toy problems (examples/tsp-small, examples/n-queens).
type Knapsack struct {
	profits  []float64
	weights  []float64
	capacity float64

	// decided[i] == 0: undecided, 1: included, -1: excluded.
	decided []int8
	index   int // next undecided item to branch on, by density order
	order   []int
}

// NewKnapsack builds the root node for a 0/1 knapsack instance.
func NewKnapsack(profits, weights []float64, capacity float64) *Knapsack {
	order := densityOrder(profits, weights)
	return &Knapsack{
		profits:  profits,
		weights:  weights,
		capacity: capacity,
		decided:  make([]int8, len(profits)),
		order:    order,
	}
}

func densityOrder(profits, weights []float64) []int {
	n := len(profits)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < n; i++ {
		j := i
		for j > 0 && density(profits, weights, idx[j-1]) < density(profits, weights, idx[j]) {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	return idx
}

func density(profits, weights []float64, i int) float64 {
	if weights[i] == 0 {
		return profits[i]
	}
	return profits[i] / weights[i]
}

// usedWeight and takenProfit sum over already-decided (included) items.
func (k *Knapsack) usedWeight() float64 {
	w := 0.0
	for i, d := range k.decided {
		if d == 1 {
			w += k.weights[i]
		}
	}
	return w
}

func (k *Knapsack) takenProfit() float64 {
	p := 0.0
	for i, d := range k.decided {
		if d == 1 {
			p += k.profits[i]
		}
	}
	return p
}

// Bound computes the fractional-relaxation upper bound: the profit
// already locked in, plus greedily filling remaining capacity by
// density order over the still-undecided items, taking a fractional
// slice of the item that doesn't fully fit.
func (k *Knapsack) Bound() float64 {
	bound := k.takenProfit()
	remaining := k.capacity - k.usedWeight()
	if remaining < 0 {
		return negInf // infeasible: over capacity
	}
	for _, i := range k.order {
		if k.decided[i] != 0 {
			continue
		}
		if k.weights[i] <= remaining {
			bound += k.profits[i]
			remaining -= k.weights[i]
		} else if remaining > 0 {
			bound += k.profits[i] * (remaining / k.weights[i])
			remaining = 0
		}
	}
	return bound
}

// Feasible reports whether every item has been decided (a complete,
// capacity-respecting assignment).
func (k *Knapsack) Feasible() bool {
	if k.usedWeight() > k.capacity {
		return false
	}
	for _, d := range k.decided {
		if d == 0 {
			return false
		}
	}
	return true
}

// Value returns the total profit of the included items.
func (k *Knapsack) Value() float64 {
	return k.takenProfit()
}

// Branch fixes the next undecided item (in density order) in and out,
// producing two children. A child that would exceed capacity by
// including the item is dropped rather than enqueued.
func (k *Knapsack) Branch() []Problem {
	next := -1
	for _, i := range k.order {
		if k.decided[i] == 0 {
			next = i
			break
		}
	}
	if next == -1 {
		return nil
	}

	exclude := k.clone()
	exclude.decided[next] = -1

	var children []Problem
	if k.usedWeight()+k.weights[next] <= k.capacity {
		include := k.clone()
		include.decided[next] = 1
		children = append(children, include)
	}
	children = append(children, exclude)
	return children
}

func (k *Knapsack) clone() *Knapsack {
	decided := make([]int8, len(k.decided))
	copy(decided, k.decided)
	return &Knapsack{
		profits:  k.profits,
		weights:  k.weights,
		capacity: k.capacity,
		decided:  decided,
		order:    k.order,
	}
}
