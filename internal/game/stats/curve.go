// Package stats implements level-scaled champion statistics and the
// armor/magic resist mitigation pipeline.
package stats

// LevelingAttackSpeedBonus is the percent attack speed every champion gains
// simply by leveling, applied on top of the growth curve.
const LevelingAttackSpeedBonus = 0.25

// LeveledValue returns the value of a stat with the given base, bonus and
// per-level growth at level.
//
// Precondition: level >= 1.
// Postcondition: LeveledValue(b, x, g, 1) == b + x; non-decreasing in level when g >= 0.
func LeveledValue(base, bonus, growth float64, level int) float64 {
	n := float64(level - 1)
	return base + bonus + (growth*n)*(0.7025+0.0175*n)
}

// AttackSpeedAt returns attacks per second at level.
// bonus is the sum of percent bonus attack speed from every source other than
// the growth curve, including LevelingAttackSpeedBonus.
//
// Precondition: level >= 1.
func AttackSpeedAt(base, ratio, growth, bonus float64, level int) float64 {
	n := float64(level - 1)
	return base + ((bonus + (growth*n)*(0.7025+0.0175*n)) * ratio)
}
