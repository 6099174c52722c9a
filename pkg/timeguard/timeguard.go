// Package timeguard implements the monotonic wall-clock deadline gate
// shared across the engine (spec.md §4.6, §5).
package timeguard

import "time"

// TimeGuard is a monotonic wall-clock gate shared by every long-running
// loop in the engine (pricing search pops, column-generation iterations,
// the coordinator's dispatch loop) so a single deadline, set once at
// startup, is honored everywhere without threading a raw time.Time
// through every call site. Grounded on the teacher's use of
// context.Context deadlines in pkg/minikanren/search.go and
// parallel_search.go, narrowed here to the single monotonic-clock
// check spec.md §5 calls for ("a shared monotonic deadline is checked
// at...").
type TimeGuard struct {
	deadline time.Time
}

// NewTimeGuard returns a guard that expires after d from now. A
// non-positive d means "no deadline."
func NewTimeGuard(d time.Duration) TimeGuard {
	if d <= 0 {
		return TimeGuard{}
	}
	return TimeGuard{deadline: time.Now().Add(d)}
}

// Expired reports whether the deadline has passed. A zero-value
// TimeGuard never expires.
func (g TimeGuard) Expired() bool {
	if g.deadline.IsZero() {
		return false
	}
	return time.Now().After(g.deadline)
}

// Remaining returns the time left before the deadline, or the largest
// representable duration if there is no deadline.
func (g TimeGuard) Remaining() time.Duration {
	if g.deadline.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return time.Until(g.deadline)
}
