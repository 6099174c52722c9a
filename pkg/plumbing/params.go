package plumbing

import "time"

// Algorithm selects the top-level solve strategy (spec.md §6 flag -a).
// Branch-and-cut is an external collaborator (the black-box LP/MIP
// solver's own cutting-plane mode) referenced only through Params;
// this module implements AlgorithmBranchAndPrice.
type Algorithm int

const (
	AlgorithmBranchAndCut   Algorithm = 1
	AlgorithmBranchAndPrice Algorithm = 2
)

// Params bundles every CLI-controlled run parameter (spec.md §6 CLI
// table), shared between cmd/topdubins (which parses and validates
// flags into one of these) and pkg/coordinator (which consumes it).
type Params struct {
	InstanceName string // -n
	InstanceDir  string // -p
	OutputPath   string // -o, must end ".yaml"

	Algorithm Algorithm // -a

	ColumnCap        int           // -c: per-node cap on negative-reduced-cost columns
	Discretizations  int           // -d: heading discretizations
	Interleaved      bool          // -i: 0=simple DSSR, 1=interleaved I-DSSR
	TurnRadius       float64       // -r
	RelaxedDominance bool          // -rd: 1=relaxed, 0=strict
	Workers          int           // -s: worker count
	Deadline         time.Duration // -t, seconds
	NumTargetsCapDim bool          // -u: use numTargetsVisited as extra dominance dimension

	Epsilon float64 // internal convergence/pruning tolerance, not a CLI flag
}

// DefaultParams returns the spec.md §6 CLI defaults, before any flag
// overrides are applied.
func DefaultParams() Params {
	return Params{
		OutputPath:       "./logs/results.yaml",
		Algorithm:        AlgorithmBranchAndPrice,
		ColumnCap:        500,
		Discretizations:  2,
		Interleaved:      false,
		TurnRadius:       1.0,
		RelaxedDominance: true,
		Workers:          8,
		Deadline:         3600 * time.Second,
		NumTargetsCapDim: false,
		Epsilon:          1e-4,
	}
}
