package stats_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelsim/internal/game/damage"
	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

func aatroxBase() stats.Base {
	return stats.Base{
		Health:            stats.Growth{Base: 685, Growth: 114},
		HealthRegen:       stats.Growth{Base: 3, Growth: 1},
		AttackDamage:      stats.Growth{Base: 60, Growth: 5},
		Armor:             stats.Growth{Base: 38, Growth: 4.45},
		MagicResist:       stats.Growth{Base: 32, Growth: 2.05},
		AttackSpeed:       0.651,
		AttackSpeedRatio:  0.651,
		AttackSpeedGrowth: 0.025,
		AttackWindup:      0.23384,
		MoveSpeed:         345,
		Range:             175,
	}
}

func TestLeveledValue_LevelOneIsBasePlusBonus(t *testing.T) {
	assert.Equal(t, 700.0, stats.LeveledValue(685, 15, 114, 1))
}

func TestAttackSpeedAt_LevelOne(t *testing.T) {
	got := stats.AttackSpeedAt(0.651, 0.651, 0.025, stats.LevelingAttackSpeedBonus, 1)
	assert.InDelta(t, 0.81375, got, 1e-9)
}

func TestNew_LevelOne(t *testing.T) {
	s := stats.New(aatroxBase())
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 685.0, s.MaxHealth)
	assert.Equal(t, 685.0, s.Health)
	assert.Equal(t, 60.0, s.AttackDamage)
	assert.Equal(t, 38.0, s.Armor)
	assert.Equal(t, 32.0, s.MagicResist)
	assert.Equal(t, 345, s.MoveSpeed)
	assert.Equal(t, 175, s.Range)
}

func TestApplyLevel_LevelTwo(t *testing.T) {
	s := stats.New(aatroxBase())
	require.NoError(t, s.ApplyLevel(2))

	assert.Equal(t, 767.0, s.Health)
	assert.Equal(t, 4.0, s.HealthRegen)
	assert.Equal(t, 0.0, s.Resource)
	assert.Equal(t, 64.0, s.AttackDamage)
	assert.InDelta(t, 0.825468, s.AttackSpeed, 1e-6)
	assert.Equal(t, 41.0, s.Armor)
	assert.Equal(t, 33.0, s.MagicResist)
}

func TestApplyLevel_RejectsLevelBelowOne(t *testing.T) {
	s := stats.New(aatroxBase())
	err := s.ApplyLevel(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stats.ErrInvalidLevel))
	assert.Equal(t, 1, s.Level, "a rejected level must not mutate the record")
}

func TestApplyLevel_BonusNotDoubleCounted(t *testing.T) {
	s := stats.New(aatroxBase())
	s.Bonus.Armor = 40
	require.NoError(t, s.ApplyLevel(1))
	assert.Equal(t, 78.0, s.Armor)
	require.NoError(t, s.ApplyLevel(1))
	assert.Equal(t, 78.0, s.Armor, "releveling must not fold the bonus in twice")
}

func TestCritMultiplier(t *testing.T) {
	s := stats.New(aatroxBase())
	assert.Equal(t, 1.0, s.CritMultiplier())
	s.CritChance = 1
	assert.Equal(t, 1.75, s.CritMultiplier())
	s.BonusCritDamage = 0.5
	assert.Equal(t, 2.25, s.CritMultiplier())
}

func TestTakeDamage_HealthOnly(t *testing.T) {
	s := stats.New(aatroxBase())
	a := s.TakeDamage(damage.Damage{Physical: stats.DamageTaken(38, 60)})
	assert.Equal(t, 642.0, s.Health)
	assert.Equal(t, 43.0, a.Health)
}

func TestTakeDamage_PhysicalShieldFirst(t *testing.T) {
	s := stats.New(aatroxBase())
	s.Shields.Physical = 100
	s.Shields.Generic = 100

	a := s.TakeDamage(damage.Damage{Physical: 60})

	assert.Equal(t, 40.0, s.Shields.Physical)
	assert.Equal(t, 100.0, s.Shields.Generic)
	assert.Equal(t, 685.0, s.Health)
	assert.Equal(t, 60.0, a.PhysicalShield)
}

func TestTakeDamage_OverflowsIntoGenericThenHealth(t *testing.T) {
	s := stats.New(aatroxBase())
	s.Shields.Physical = 100
	s.Shields.Generic = 100
	s.Health = 100

	s.TakeDamage(damage.Damage{Physical: 260})

	assert.Equal(t, 0.0, s.Shields.Physical)
	assert.Equal(t, 0.0, s.Shields.Generic)
	assert.Equal(t, 40.0, s.Health)
}

func TestTakeDamage_MagicalIgnoresPhysicalShield(t *testing.T) {
	s := stats.New(aatroxBase())
	s.Shields.Physical = 100
	s.Shields.Magical = 10

	s.TakeDamage(damage.Damage{Magical: 30})

	assert.Equal(t, 100.0, s.Shields.Physical)
	assert.Equal(t, 0.0, s.Shields.Magical)
	assert.Equal(t, 665.0, s.Health)
}

func TestTakeDamage_TrueOnlyGenericShield(t *testing.T) {
	s := stats.New(aatroxBase())
	s.Shields.Physical = 50
	s.Shields.Magical = 50
	s.Shields.Generic = 20

	s.TakeDamage(damage.Damage{True: 30})

	assert.Equal(t, 50.0, s.Shields.Physical)
	assert.Equal(t, 50.0, s.Shields.Magical)
	assert.Equal(t, 0.0, s.Shields.Generic)
	assert.Equal(t, 675.0, s.Health)
}

func TestTakeDamage_ClampsAtZero(t *testing.T) {
	s := stats.New(aatroxBase())
	s.TakeDamage(damage.Damage{True: 5000})
	assert.Equal(t, 0.0, s.Health)
	assert.True(t, s.IsDefeated())
}

func TestPropertyLeveledValue_MonotonicInLevel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.Float64Range(0, 5000).Draw(rt, "base")
		growth := rapid.Float64Range(0, 500).Draw(rt, "growth")
		level := rapid.IntRange(1, 17).Draw(rt, "level")
		assert.LessOrEqual(rt,
			stats.LeveledValue(base, 0, growth, level),
			stats.LeveledValue(base, 0, growth, level+1))
	})
}

func TestPropertyApplyLevel_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		level := rapid.IntRange(1, 18).Draw(rt, "level")
		s := stats.New(aatroxBase())
		s.Bonus.Armor = rapid.Float64Range(0, 200).Draw(rt, "bonus_armor")
		s.Bonus.MagicResist = rapid.Float64Range(0, 200).Draw(rt, "bonus_mr")
		require.NoError(rt, s.ApplyLevel(level))
		first := s
		require.NoError(rt, s.ApplyLevel(level))
		assert.Equal(rt, first, s)
	})
}

func TestPropertyTakeDamage_NeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := stats.New(aatroxBase())
		s.Shields = stats.Shields{
			Generic:  rapid.Float64Range(0, 500).Draw(rt, "generic"),
			Physical: rapid.Float64Range(0, 500).Draw(rt, "physical"),
			Magical:  rapid.Float64Range(0, 500).Draw(rt, "magical"),
		}
		s.TakeDamage(damage.Damage{
			Physical: rapid.Float64Range(0, 2000).Draw(rt, "phys_dmg"),
			Magical:  rapid.Float64Range(0, 2000).Draw(rt, "mag_dmg"),
			True:     rapid.Float64Range(0, 2000).Draw(rt, "true_dmg"),
		})
		assert.GreaterOrEqual(rt, s.Health, 0.0)
		assert.GreaterOrEqual(rt, s.Shields.Generic, 0.0)
		assert.GreaterOrEqual(rt, s.Shields.Physical, 0.0)
		assert.GreaterOrEqual(rt, s.Shields.Magical, 0.0)
	})
}

// TestPropertyTakeDamage_ShieldsConserveDamage checks that when shields cover
// the hit, every point of physical damage is accounted for by shields alone.
func TestPropertyTakeDamage_ShieldsConserveDamage(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dmg := float64(rapid.IntRange(0, 1000).Draw(rt, "damage"))
		phys := float64(rapid.IntRange(0, 1000).Draw(rt, "physical_shield"))
		generic := float64(rapid.IntRange(0, 1000).Draw(rt, "generic_shield"))
		if phys+generic < dmg {
			generic = dmg - phys
		}
		s := stats.New(aatroxBase())
		s.Shields = stats.Shields{Physical: phys, Generic: generic}

		a := s.TakeDamage(damage.Damage{Physical: dmg})

		assert.Equal(rt, dmg, a.PhysicalShield+a.GenericShield+a.Health)
		assert.Equal(rt, 0.0, a.Health)
		assert.Equal(rt, 685.0, s.Health)
	})
}
