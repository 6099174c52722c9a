package plumbing

import "math"

// Bound is an upper bound that may be reported as the literal string
// "infinity" (spec.md §6: "root_upper_bound (or 'infinity')") when no
// node has yet produced a finite LP bound.
type Bound float64

// Infinity is the sentinel Bound value serialized as the string
// "infinity".
var Infinity Bound = Bound(math.Inf(1))

// MarshalYAML implements yaml.Marshaler.
func (b Bound) MarshalYAML() (any, error) {
	if math.IsInf(float64(b), 1) {
		return "infinity", nil
	}
	return float64(b), nil
}

// SolutionRecord is the YAML output map of spec.md §6, written by the
// CLI driver (cmd/topdubins) via gopkg.in/yaml.v3 — the output writer
// itself is an external collaborator per spec.md §1; this struct is
// the schema it serializes.
type SolutionRecord struct {
	InstanceName string `yaml:"instance_name"`
	InstancePath string `yaml:"instance_path"`
	Algorithm    string `yaml:"algorithm"`

	TimeLimitSeconds      float64 `yaml:"time_limit_in_seconds"`
	TurnRadius            float64 `yaml:"turn_radius"`
	NumDiscretizations    int     `yaml:"number_of_discretizations"`
	NumReducedCostColumns int     `yaml:"number_of_reduced_cost_columns"`
	NumSolverCoroutines   int     `yaml:"number_of_solver_coroutines"`
	Search                string  `yaml:"search"`
	Budget                float64 `yaml:"budget"`

	RootLowerBound    float64 `yaml:"root_lower_bound"`
	RootUpperBound    Bound   `yaml:"root_upper_bound"`
	RootLPOptimal     bool    `yaml:"root_lp_optimal"`
	RootGapPercentage float64 `yaml:"root_gap_percentage"`

	FinalLowerBound    float64 `yaml:"final_lower_bound"`
	FinalUpperBound    Bound   `yaml:"final_upper_bound"`
	FinalGapPercentage float64 `yaml:"final_gap_percentage"`

	OptimalityReached   bool    `yaml:"optimality_reached"`
	NumNodesSolved      int     `yaml:"number_of_nodes_solved"`
	MaximumParallel     int     `yaml:"maximum_parallel_solves"`
	SolutionTimeSeconds float64 `yaml:"solution_time_in_seconds"`
}

// GapPercentage computes 100*(ub-lb)/|lb| the way spec.md's
// root/final gap percentages are defined, guarding against a division
// by a near-zero lower bound (an all-zero-score instance).
func GapPercentage(lb, ub float64) float64 {
	if math.IsInf(ub, 1) {
		return 100
	}
	denom := math.Abs(lb)
	if denom < 1e-9 {
		denom = 1e-9
	}
	return 100 * (ub - lb) / denom
}
