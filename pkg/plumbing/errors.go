// Package plumbing holds the cross-cutting data the rest of the engine
// shares but that belongs to no single component (spec.md §2
// "Plumbing"): the CLI-derived parameter bundle, the YAML solution
// record, and the sentinel error kinds of spec.md §7.
package plumbing

import "errors"

// Sentinel error kinds (spec.md §7). Each surfaces as one abort with a
// human-readable reason; none are recoverable inside the engine.
var (
	// ErrCLIInvalid reports a validation failure for a flag value
	// (spec.md §6 CLI table, §7 "CLI-invalid").
	ErrCLIInvalid = errors.New("topdubins: invalid CLI argument")

	// ErrLPInfeasibleAtRoot reports that the root set-cover LP could
	// not be constructed: no columns and no feasible slacks (spec.md
	// §7 "LP-infeasible-at-root").
	ErrLPInfeasibleAtRoot = errors.New("topdubins: root LP infeasible")
)

// InvariantError is satisfied by the two hard-abort invariant violations
// of spec.md §7 (bound-monotonicity, critical-target cycle): both
// indicate a solver or dominance bug rather than an ordinary runtime
// condition, so the coordinator aborts the run instead of pruning the
// node gracefully. branch.ErrBoundMonotonicity and pricing.ErrCriticalCycle
// each carry their own kind-specific context (node id, target) and both
// implement this interface so a caller can tell "this is a bug" apart
// from an ordinary error with one type switch, without the two packages
// importing each other.
type InvariantError interface {
	error
	Invariant() string
}
