package stats

// ArmorReduction returns the defender's effective armor against an attacker
// with penetration src.
//
// The defender's armor is split into base and bonus proportions. Flat armor
// reduction is taken from each proportionally. If armor remains positive,
// percent armor reduction applies to both parts, percent bonus armor
// penetration to the bonus part only, and lethality to the recombined total,
// which lethality alone cannot push below zero. If flat reduction already drove
// armor to zero or below, that negative value is returned untouched.
//
// Postcondition: Returns 0 when the defender has no armor.
func (s *Stats) ArmorReduction(src Penetration) float64 {
	total := s.Armor
	if total == 0 {
		return 0
	}

	bonus := s.Bonus.Armor
	base := total - bonus

	baseProp := base / total
	bonusProp := bonus / total

	base -= src.ArmorReduction * baseProp
	bonus -= src.ArmorReduction * bonusProp

	if base+bonus > 0 {
		base *= 1 - src.PercentArmorReduction
		bonus *= 1 - src.PercentArmorReduction

		bonus *= 1 - src.PercentBonusArmorPen

		effective := base + bonus
		if effective-src.Lethality < 0 {
			return 0
		}
		return effective - src.Lethality
	}

	return base + bonus
}

// MagicResistReduction returns the defender's effective magic resist against
// an attacker with penetration src. Flat reduction applies first; percent
// reduction, percent penetration and flat penetration apply only while the
// result is still positive.
//
// Postcondition: Returns 0 when the defender has no magic resist.
func (s *Stats) MagicResistReduction(src Penetration) float64 {
	mr := s.MagicResist
	if mr == 0 {
		return 0
	}

	mr -= src.MagicResistReduction

	if mr > 0 {
		mr *= 1 - src.PercentMagicResistReduction
		mr *= 1 - src.PercentMagicResistPen
		mr -= src.MagicResistPen
	}

	return mr
}

// DamageTaken converts raw damage d into damage taken through effective
// mitigation m. Negative mitigation amplifies damage.
//
// Postcondition: DamageTaken(0, d) == d; DamageTaken(100, d) == d/2.
func DamageTaken(m, d float64) float64 {
	if m >= 0 {
		return (100 / (100 + m)) * d
	}
	return (2 - 100/(100-m)) * d
}
