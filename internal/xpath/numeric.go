package xpath

import "math"

func nan() float64        { return math.NaN() }
func isNaN(f float64) bool { return math.IsNaN(f) }
func isInf(f float64) bool { return math.IsInf(f, 0) }
