package model

// Experience curve (total experience points per level).
//
//	level 0..16:  total = L² + 6L
//	level 17..31: total = 2.5L² − 40.5L + 360
//	level 32+:    total = 4.5L² − 162.5L + 2220

// ExpToNextLevel returns the experience needed to advance from level to level+1.
func ExpToNextLevel(level int) int {
	switch {
	case level <= 15:
		return 2*level + 7
	case level <= 30:
		return 5*level - 38
	default:
		return 9*level - 158
	}
}

// TotalExperienceForLevel returns the total experience at the start of level.
func TotalExperienceForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	switch {
	case level <= 16:
		return level*level + 6*level
	case level <= 31:
		// 2.5L² − 40.5L + 360, целочисленно: (5L² − 81L + 720) / 2
		return (5*level*level - 81*level + 720) / 2
	default:
		return (9*level*level - 325*level + 4440) / 2
	}
}

// LevelForExperience returns the level reached with the given total experience.
func LevelForExperience(total int) int {
	if total <= 0 {
		return 0
	}
	level := 0
	for total >= TotalExperienceForLevel(level+1) {
		level++
	}
	return level
}
