package instance

import "math"

// Pose is an oriented 2D configuration: position plus heading (radians).
type Pose struct {
	X, Y, Theta float64
}

// Dubins computes the length of the shortest curvature-constrained path
// between two oriented poses for a vehicle with a fixed minimum turn
// radius. Spec.md §1 places the Dubins-curve geometry library out of
// scope as an external collaborator referenced only through its
// interface; this is the default implementation behind that interface,
// grounded on the injected-collaborator pattern of
// viamrobotics/rdk's dubinsRRT.go (NewDubinsRRTMotionPlanner(..., d Dubins)).
type Dubins interface {
	// Length returns the shortest path length from 'from' to 'to' for
	// the given turn radius.
	Length(from, to Pose, turnRadius float64) float64
}

// DefaultDubins is the reference Dubins implementation: the minimum
// over the six CSC/CCC path families (LSL, LSR, RSL, RSR, LRL, RLR).
type DefaultDubins struct{}

// Length implements Dubins.
func (DefaultDubins) Length(from, to Pose, turnRadius float64) float64 {
	if turnRadius <= 0 {
		return euclidean(from, to)
	}
	// Normalize into the turn-radius-1 frame used by the closed-form
	// Dubins segment formulas, then scale the result back out.
	dx, dy := to.X-from.X, to.Y-from.Y
	d := math.Hypot(dx, dy) / turnRadius
	theta := math.Atan2(dy, dx)
	alpha := normalizeAngle(from.Theta - theta)
	beta := normalizeAngle(to.Theta - theta)

	best := math.Inf(1)
	for _, fam := range []func(alpha, beta, d float64) (float64, float64, float64, bool){
		lsl, lsr, rsl, rsr, lrl, rlr,
	} {
		t, p, q, ok := fam(alpha, beta, d)
		if !ok {
			continue
		}
		total := t + p + q
		if total < best {
			best = total
		}
	}
	if math.IsInf(best, 1) {
		return euclidean(from, to)
	}
	return best * turnRadius
}

func euclidean(a, b Pose) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func normalizeAngle(a float64) float64 {
	for a < 0 {
		a += 2 * math.Pi
	}
	for a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// The six path-family solvers below follow the classical closed-form
// Dubins construction (Shkel & Lumelsky); each returns the three segment
// lengths (t, p, q) in the unit-radius frame and whether the family is
// feasible for the given alpha/beta/d.

func lsl(alpha, beta, d float64) (t, p, q float64, ok bool) {
	sa, sb := math.Sin(alpha), math.Sin(beta)
	ca, cb := math.Cos(alpha), math.Cos(beta)
	pSq := 2 + d*d - 2*math.Cos(alpha-beta) + 2*d*(sa-sb)
	if pSq < 0 {
		return 0, 0, 0, false
	}
	tmp := math.Atan2(cb-ca, d+sa-sb)
	t = normalizeAngle(-alpha + tmp)
	p = math.Sqrt(pSq)
	q = normalizeAngle(beta - tmp)
	return t, p, q, true
}

func rsr(alpha, beta, d float64) (t, p, q float64, ok bool) {
	sa, sb := math.Sin(alpha), math.Sin(beta)
	ca, cb := math.Cos(alpha), math.Cos(beta)
	pSq := 2 + d*d - 2*math.Cos(alpha-beta) + 2*d*(sb-sa)
	if pSq < 0 {
		return 0, 0, 0, false
	}
	tmp := math.Atan2(ca-cb, d-sa+sb)
	t = normalizeAngle(alpha - tmp)
	p = math.Sqrt(pSq)
	q = normalizeAngle(-beta + tmp)
	return t, p, q, true
}

func lsr(alpha, beta, d float64) (t, p, q float64, ok bool) {
	sa, sb := math.Sin(alpha), math.Sin(beta)
	ca, cb := math.Cos(alpha), math.Cos(beta)
	pSq := -2 + d*d + 2*math.Cos(alpha-beta) + 2*d*(sa+sb)
	if pSq < 0 {
		return 0, 0, 0, false
	}
	pl := math.Sqrt(pSq)
	tmp := math.Atan2(-ca-cb, d+sa+sb) - math.Atan2(-2, pl)
	t = normalizeAngle(-alpha + tmp)
	q = normalizeAngle(-normalizeAngle(beta) + tmp)
	p = pl
	return t, p, q, true
}

func rsl(alpha, beta, d float64) (t, p, q float64, ok bool) {
	sa, sb := math.Sin(alpha), math.Sin(beta)
	ca, cb := math.Cos(alpha), math.Cos(beta)
	pSq := d*d - 2 + 2*math.Cos(alpha-beta) - 2*d*(sa+sb)
	if pSq < 0 {
		return 0, 0, 0, false
	}
	pl := math.Sqrt(pSq)
	tmp := math.Atan2(ca+cb, d-sa-sb) - math.Atan2(2, pl)
	t = normalizeAngle(alpha - tmp)
	q = normalizeAngle(beta - tmp)
	p = pl
	return t, p, q, true
}

func lrl(alpha, beta, d float64) (t, p, q float64, ok bool) {
	sa, sb := math.Sin(alpha), math.Sin(beta)
	ca, cb := math.Cos(alpha), math.Cos(beta)
	tmp := (6 - d*d + 2*math.Cos(alpha-beta) + 2*d*(sa-sb)) / 8
	if math.Abs(tmp) > 1 {
		return 0, 0, 0, false
	}
	p = normalizeAngle(2*math.Pi - math.Acos(tmp))
	t = normalizeAngle(-alpha + math.Atan2(ca-cb, d-sa+sb) + p/2)
	q = normalizeAngle(beta - alpha - t + p)
	return t, p, q, true
}

func rlr(alpha, beta, d float64) (t, p, q float64, ok bool) {
	sa, sb := math.Sin(alpha), math.Sin(beta)
	ca, cb := math.Cos(alpha), math.Cos(beta)
	tmp := (6 - d*d + 2*math.Cos(alpha-beta) + 2*d*(sb-sa)) / 8
	if math.Abs(tmp) > 1 {
		return 0, 0, 0, false
	}
	p = normalizeAngle(2*math.Pi - math.Acos(tmp))
	t = normalizeAngle(alpha - math.Atan2(ca-cb, d+sa-sb) + p/2)
	q = normalizeAngle(alpha - beta - t + p)
	return t, p, q, true
}

// EdgeLength returns the travel length between two target headings at
// discretization d: Euclidean when d == 1 (no heading constraint to
// honor), Dubins length otherwise (spec.md §6).
func EdgeLength(geo Dubins, from, to Pose, turnRadius float64, discretizations int) float64 {
	if discretizations <= 1 {
		return euclidean(from, to)
	}
	return geo.Length(from, to, turnRadius)
}
