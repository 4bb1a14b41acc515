package agent

import "math"

// NormalizeAngle wraps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// ShortestAngleDelta returns the signed rotation in (-π, π] that takes
// from to to.
func ShortestAngleDelta(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// AngularDistance returns the unsigned angle between a and b, in [0, π].
func AngularDistance(a, b float64) float64 {
	return math.Abs(ShortestAngleDelta(a, b))
}
