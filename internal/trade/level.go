package trade

import "math"

// LevelDelta returns how many levels an actor at (level, totalExp) gains or
// loses when its total experience changes by delta.
//
// Closed-form inverse of the experience curve, three ranges:
// levels 0-16, 17-31, 32+.
func LevelDelta(level, totalExp, delta int) int {
	if delta == 0 {
		return 0
	}
	return int(levelAt(totalExp+delta)) - level
}

// Границы участков кривой в очках опыта (уровни 17 и 32).
const (
	midLevelStart  = 394
	highLevelStart = 1628
)

func levelAt(total int) float64 {
	total = max(total, 0)
	t := float64(total)
	switch {
	case total < midLevelStart:
		return lowLevel(t)
	case total < highLevelStart:
		return midLevel(t)
	default:
		return highLevel(t)
	}
}

func lowLevel(t float64) float64  { return math.Sqrt(t+9) - 3 }
func midLevel(t float64) float64  { return 0.632456 * (math.Sqrt(t-195.975) + 12.8072) }
func highLevel(t float64) float64 { return 0.471405 * (math.Sqrt(t-752.986) + 38.3016) }
