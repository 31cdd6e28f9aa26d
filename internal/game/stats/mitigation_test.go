package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

func TestArmorReduction_FullPipeline(t *testing.T) {
	defender := stats.New(aatroxBase())
	defender.Armor = 300
	defender.Bonus.Armor = 200

	src := stats.Penetration{
		Lethality:             10,
		PercentBonusArmorPen:  0.45,
		ArmorReduction:        30,
		PercentArmorReduction: 0.30,
	}

	assert.InDelta(t, 122.3, defender.ArmorReduction(src), 1e-9)
}

func TestArmorReduction_FlatReductionBelowZeroStaysNegative(t *testing.T) {
	defender := stats.New(aatroxBase())
	defender.Armor = 18
	defender.Bonus.Armor = 0

	src := stats.Penetration{
		Lethality:             10,
		PercentBonusArmorPen:  0.45,
		ArmorReduction:        30,
		PercentArmorReduction: 0.30,
	}

	assert.InDelta(t, -12.0, defender.ArmorReduction(src), 1e-9)
}

func TestArmorReduction_LethalityFloorsAtZero(t *testing.T) {
	defender := stats.New(aatroxBase())
	defender.Armor = 20
	assert.Equal(t, 0.0, defender.ArmorReduction(stats.Penetration{Lethality: 50}))
}

func TestArmorReduction_ZeroArmor(t *testing.T) {
	defender := stats.New(aatroxBase())
	defender.Armor = 0
	assert.Equal(t, 0.0, defender.ArmorReduction(stats.Penetration{ArmorReduction: 30}))
}

func TestMagicResistReduction_FullPipeline(t *testing.T) {
	defender := stats.New(aatroxBase())
	defender.MagicResist = 80

	src := stats.Penetration{
		MagicResistPen:              10,
		PercentMagicResistPen:       0.35,
		MagicResistReduction:        20,
		PercentMagicResistReduction: 0.30,
	}

	assert.InDelta(t, 17.3, defender.MagicResistReduction(src), 1e-9)

	defender.MagicResist = 18
	assert.InDelta(t, -2.0, defender.MagicResistReduction(src), 1e-9)
}

func TestMagicResistReduction_ZeroBaselineNotAmplified(t *testing.T) {
	defender := stats.New(aatroxBase())
	defender.MagicResist = 0
	assert.Equal(t, 0.0, defender.MagicResistReduction(stats.Penetration{MagicResistReduction: 40}))
}

func TestDamageTaken_Examples(t *testing.T) {
	assert.Equal(t, 60.0, stats.DamageTaken(0, 60))
	assert.Equal(t, 30.0, stats.DamageTaken(100, 60))
	assert.InDelta(t, 43.478260869565, stats.DamageTaken(38, 60), 1e-9)
	// -100 armor: 2 - 100/200 = 1.5x
	assert.Equal(t, 90.0, stats.DamageTaken(-100, 60))
}

func TestPropertyDamageTaken_ZeroMitigationIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.Float64Range(0, 1e6).Draw(rt, "damage")
		assert.Equal(rt, d, stats.DamageTaken(0, d))
	})
}

func TestPropertyDamageTaken_HundredHalves(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.Float64Range(0, 1e6).Draw(rt, "damage")
		assert.Equal(rt, d/2, stats.DamageTaken(100, d))
	})
}

func TestPropertyDamageTaken_NegativeAmplifies(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := rapid.Float64Range(-500, -0.001).Draw(rt, "mitigation")
		d := rapid.Float64Range(1, 1e4).Draw(rt, "damage")
		got := stats.DamageTaken(m, d)
		assert.Greater(rt, got, d)
		assert.Less(rt, got, 2*d)
	})
}
