package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/duelsim/internal/game/damage"
)

// ErrInvalidLevel is returned when a level below 1 is requested.
var ErrInvalidLevel = errors.New("invalid level")

// Growth is a base value and the amount it grows per level.
type Growth struct {
	Base   float64 `yaml:"base"`
	Growth float64 `yaml:"growth"`
}

// Base holds the immutable per-champion stat curves supplied by the catalog.
type Base struct {
	Health            Growth  `yaml:"health"`
	HealthRegen       Growth  `yaml:"health_regen"`
	Resource          Growth  `yaml:"resource"`
	ResourceRegen     Growth  `yaml:"resource_regen"`
	AttackDamage      Growth  `yaml:"attack_damage"`
	Armor             Growth  `yaml:"armor"`
	MagicResist       Growth  `yaml:"magic_resist"`
	AttackSpeed       float64 `yaml:"attack_speed"`
	AttackSpeedRatio  float64 `yaml:"attack_speed_ratio"`
	AttackSpeedGrowth float64 `yaml:"attack_speed_growth"`
	AttackWindup      float64 `yaml:"attack_windup"`
	MoveSpeed         int     `yaml:"move_speed"`
	Range             int     `yaml:"range"`
	CritChance        float64 `yaml:"crit_chance"`
	BonusCritDamage   float64 `yaml:"bonus_crit_damage"`
}

// Bonus holds flat stat deltas from items and runes. Bonus values are inputs
// to ApplyLevel and are never rewritten by it, so releveling cannot count a
// bonus twice.
type Bonus struct {
	Health          float64 `yaml:"health"`
	HealthRegen     float64 `yaml:"health_regen"`
	Resource        float64 `yaml:"resource"`
	ResourceRegen   float64 `yaml:"resource_regen"`
	AttackDamage    float64 `yaml:"attack_damage"`
	AttackSpeed     float64 `yaml:"attack_speed"` // percent, e.g. 0.25 = +25%
	Armor           float64 `yaml:"armor"`
	MagicResist     float64 `yaml:"magic_resist"`
	MoveSpeed       int     `yaml:"move_speed"`
	Range           int     `yaml:"range"`
	CritChance      float64 `yaml:"crit_chance"`
	BonusCritDamage float64 `yaml:"bonus_crit_damage"`
}

// Add returns the field-wise sum of b and o.
func (b Bonus) Add(o Bonus) Bonus {
	return Bonus{
		Health:          b.Health + o.Health,
		HealthRegen:     b.HealthRegen + o.HealthRegen,
		Resource:        b.Resource + o.Resource,
		ResourceRegen:   b.ResourceRegen + o.ResourceRegen,
		AttackDamage:    b.AttackDamage + o.AttackDamage,
		AttackSpeed:     b.AttackSpeed + o.AttackSpeed,
		Armor:           b.Armor + o.Armor,
		MagicResist:     b.MagicResist + o.MagicResist,
		MoveSpeed:       b.MoveSpeed + o.MoveSpeed,
		Range:           b.Range + o.Range,
		CritChance:      b.CritChance + o.CritChance,
		BonusCritDamage: b.BonusCritDamage + o.BonusCritDamage,
	}
}

// Penetration holds the terms a stat record applies against another record's
// armor and magic resist when it is the attacker.
type Penetration struct {
	Lethality                   float64 `yaml:"lethality"`
	ArmorReduction              float64 `yaml:"armor_reduction"`
	PercentArmorReduction       float64 `yaml:"percent_armor_reduction"`
	PercentBonusArmorPen        float64 `yaml:"percent_bonus_armor_pen"`
	MagicResistReduction        float64 `yaml:"mr_reduction"`
	PercentMagicResistReduction float64 `yaml:"percent_mr_reduction"`
	PercentMagicResistPen       float64 `yaml:"percent_mr_pen"`
	MagicResistPen              float64 `yaml:"mr_pen"`
}

// Add returns the field-wise sum of p and o.
func (p Penetration) Add(o Penetration) Penetration {
	return Penetration{
		Lethality:                   p.Lethality + o.Lethality,
		ArmorReduction:              p.ArmorReduction + o.ArmorReduction,
		PercentArmorReduction:       p.PercentArmorReduction + o.PercentArmorReduction,
		PercentBonusArmorPen:        p.PercentBonusArmorPen + o.PercentBonusArmorPen,
		MagicResistReduction:        p.MagicResistReduction + o.MagicResistReduction,
		PercentMagicResistReduction: p.PercentMagicResistReduction + o.PercentMagicResistReduction,
		PercentMagicResistPen:       p.PercentMagicResistPen + o.PercentMagicResistPen,
		MagicResistPen:              p.MagicResistPen + o.MagicResistPen,
	}
}

// Shields holds the three independent shield pools.
type Shields struct {
	Generic  float64
	Physical float64
	Magical  float64
}

// Total returns the sum of all shield pools.
func (s Shields) Total() float64 { return s.Generic + s.Physical + s.Magical }

// Stats is the mutable stat record owned by one combatant.
// It is a plain value: copying it yields an independent record.
type Stats struct {
	Base        Base
	Bonus       Bonus
	Penetration Penetration

	Level         int
	MaxHealth     float64
	Health        float64
	HealthRegen   float64
	Resource      float64
	ResourceRegen float64
	AttackDamage  float64
	AttackSpeed   float64
	// Armor and MagicResist are leveled totals that include Bonus.Armor and
	// Bonus.MagicResist.
	Armor           float64
	MagicResist     float64
	MoveSpeed       int
	Range           int
	CritChance      float64
	BonusCritDamage float64

	Shields Shields
}

// New returns a Stats record for base leveled to 1.
//
// Postcondition: Level == 1 and Health == MaxHealth.
func New(base Base) Stats {
	s := Stats{Base: base}
	if err := s.ApplyLevel(1); err != nil {
		panic("stats: New: " + err.Error())
	}
	return s
}

// ApplyLevel recomputes every leveled stat for level from Base and Bonus, and
// restores Health to the new MaxHealth. Shields and Penetration are left as-is.
//
// Precondition: level >= 1.
// Postcondition: Returns an error wrapping ErrInvalidLevel if level < 1. Calling
// ApplyLevel twice with the same level yields the same record.
func (s *Stats) ApplyLevel(level int) error {
	if level < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	b, x := s.Base, s.Bonus
	s.Level = level
	s.MaxHealth = math.Round(LeveledValue(b.Health.Base, x.Health, b.Health.Growth, level))
	s.Health = s.MaxHealth
	s.HealthRegen = math.Round(LeveledValue(b.HealthRegen.Base, x.HealthRegen, b.HealthRegen.Growth, level))
	s.Resource = math.Round(LeveledValue(b.Resource.Base, x.Resource, b.Resource.Growth, level))
	s.ResourceRegen = math.Round(LeveledValue(b.ResourceRegen.Base, x.ResourceRegen, b.ResourceRegen.Growth, level))
	s.AttackDamage = math.Round(LeveledValue(b.AttackDamage.Base, x.AttackDamage, b.AttackDamage.Growth, level))
	s.AttackSpeed = AttackSpeedAt(b.AttackSpeed, b.AttackSpeedRatio, b.AttackSpeedGrowth, LevelingAttackSpeedBonus+x.AttackSpeed, level)
	s.Armor = math.Round(LeveledValue(b.Armor.Base, x.Armor, b.Armor.Growth, level))
	s.MagicResist = math.Round(LeveledValue(b.MagicResist.Base, x.MagicResist, b.MagicResist.Growth, level))
	s.MoveSpeed = b.MoveSpeed + x.MoveSpeed
	s.Range = b.Range + x.Range
	s.CritChance = math.Min(b.CritChance+x.CritChance, 1)
	s.BonusCritDamage = b.BonusCritDamage + x.BonusCritDamage
	return nil
}

// IsDefeated reports whether health has reached zero.
func (s *Stats) IsDefeated() bool { return s.Health <= 0 }

// CritMultiplier returns the damage multiplier applied to a critical base attack.
//
// Postcondition: Returns 1 + CritChance*(0.75 + BonusCritDamage).
func (s *Stats) CritMultiplier() float64 {
	return 1 + (s.CritChance * (0.75 + s.BonusCritDamage))
}

// Absorbed reports how an applied Damage was split between shields and health.
type Absorbed struct {
	PhysicalShield float64
	MagicalShield  float64
	GenericShield  float64
	Health         float64
}

// Total returns everything consumed from shields and health.
func (a Absorbed) Total() float64 {
	return a.PhysicalShield + a.MagicalShield + a.GenericShield + a.Health
}

// TakeDamage applies d in fixed order: physical damage hits the physical shield,
// then the generic shield, then health; magical damage hits the magical shield,
// then the generic shield, then health; true damage hits only the generic shield,
// then health. Health is rounded after each damage type and clamped at zero.
//
// Postcondition: Health >= 0 and every shield pool >= 0.
func (s *Stats) TakeDamage(d damage.Damage) Absorbed {
	var a Absorbed

	phys := d.Physical
	a.PhysicalShield += damage.Absorb(&phys, &s.Shields.Physical)
	a.GenericShield += damage.Absorb(&phys, &s.Shields.Generic)
	a.Health += s.loseHealth(phys)

	mag := d.Magical
	a.MagicalShield += damage.Absorb(&mag, &s.Shields.Magical)
	a.GenericShield += damage.Absorb(&mag, &s.Shields.Generic)
	a.Health += s.loseHealth(mag)

	tru := d.True
	a.GenericShield += damage.Absorb(&tru, &s.Shields.Generic)
	a.Health += s.loseHealth(tru)

	s.mustBeConsistent()
	return a
}

func (s *Stats) loseHealth(amount float64) float64 {
	if amount <= 0 || s.Health <= 0 {
		return 0
	}
	before := s.Health
	s.Health = math.Round(s.Health - amount)
	if s.Health < 0 {
		s.Health = 0
	}
	return before - s.Health
}

// mustBeConsistent panics when the damage pipeline has left a negative pool.
func (s *Stats) mustBeConsistent() {
	if s.Health < 0 || s.Shields.Generic < 0 || s.Shields.Physical < 0 || s.Shields.Magical < 0 {
		panic(fmt.Sprintf("stats: invariant violated: health=%v shields=%+v", s.Health, s.Shields))
	}
}
