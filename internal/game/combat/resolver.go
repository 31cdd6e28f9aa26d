package combat

import (
	"github.com/cory-johannsen/duelsim/internal/game/damage"
	"github.com/cory-johannsen/duelsim/internal/game/dice"
	"github.com/cory-johannsen/duelsim/internal/game/effect"
	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// AttackResult holds the outcome of a single auto-attack.
type AttackResult struct {
	Attacker string
	Defender string
	// Raw is the base attack damage before mitigation, crit included.
	Raw damage.Damage
	// OnHit is the limited-use on-hit damage before mitigation.
	OnHit damage.Damage
	// Dealt is the sum of Raw and OnHit, each mitigated on its own.
	Dealt damage.Damage
	Crit  bool
	// EffectiveArmor and EffectiveMagicResist are the defender's values after
	// the attacker's penetration terms.
	EffectiveArmor       float64
	EffectiveMagicResist float64
	Absorbed             stats.Absorbed
	// Applied lists the on-hit effects now afflicting the defender because of this hit.
	Applied  []effect.ID
	Defeated bool
}

// Attack resolves one auto-attack from attacker against defender.
//
// The attacker's base attack damage is rolled for a critical strike when its
// crit chance is positive. Every limited-use effect the attacker grants with
// uses remaining adds its flat damage to a separate on-hit accumulator and then
// spends one use. Both accumulators are mitigated on their own and summed:
// physical damage by the defender's armor and magical damage by its magic
// resist, both after the attacker's penetration; true damage is not mitigated.
// The sum goes through the defender's shields and health. Finally the attacker's
// stacking and damage-over-time effects are afflicted on the defender.
//
// Precondition: attacker and defender must be non-nil and distinct; src must be non-nil.
// Postcondition: defender.Stats.Health >= 0; no limited-use effect has Uses < 0.
func Attack(attacker, defender *Combatant, src dice.Source) AttackResult {
	if attacker == nil || defender == nil {
		panic("combat: Attack precondition violated: nil combatant")
	}
	if attacker == defender {
		panic("combat: Attack precondition violated: attacker and defender must be distinct")
	}

	r := AttackResult{Attacker: attacker.Name, Defender: defender.Name}

	base := attacker.Stats.AttackDamage
	if attacker.Stats.CritChance > 0 && src.Float64() <= attacker.Stats.CritChance {
		r.Crit = true
		base *= attacker.Stats.CritMultiplier()
	}
	r.Raw = damage.Of(damage.Physical, base)

	limited := attacker.Granted.LimitedUses()
	for _, e := range limited {
		if e.Uses > 0 {
			r.OnHit.AddTo(e.Type, e.Damage)
		}
	}

	r.EffectiveArmor = defender.Stats.ArmorReduction(attacker.Stats.Penetration)
	r.EffectiveMagicResist = defender.Stats.MagicResistReduction(attacker.Stats.Penetration)
	r.Dealt = r.mitigate(r.Raw).Add(r.mitigate(r.OnHit))
	r.Absorbed = defender.Stats.TakeDamage(r.Dealt)

	for _, e := range limited {
		e.Consume()
	}

	for _, e := range attacker.Granted.Stackings() {
		defender.Afflicting.AfflictStacking(e, attacker.Stats.Penetration)
		r.Applied = append(r.Applied, e.ID)
	}
	for _, e := range attacker.Granted.Durations() {
		defender.Afflicting.AfflictDuration(e, attacker.Stats.Penetration)
		r.Applied = append(r.Applied, e.ID)
	}

	r.Defeated = defender.IsDefeated()
	return r
}

func (r AttackResult) mitigate(d damage.Damage) damage.Damage {
	return damage.Damage{
		Physical: stats.DamageTaken(r.EffectiveArmor, d.Physical),
		Magical:  stats.DamageTaken(r.EffectiveMagicResist, d.Magical),
		True:     d.True,
	}
}

// TickDamage records damage one afflicting effect dealt on one tick.
type TickDamage struct {
	Effect   effect.ID
	Kind     effect.Kind
	Stacks   int
	Dealt    damage.Damage
	Absorbed stats.Absorbed
}

// TickAfflictions applies every damage-over-time and stacking effect due on
// tick and then counts one tick period off each effect's remaining damage time.
// Damage-over-time effects fire when their rate divides tick; stacking effects
// fire once per second. Both are mitigated by the combatant's current armor and
// magic resist against the penetration captured when the effect landed. An
// effect found with no damage time left is removed instead and its id returned
// in spent.
//
// Precondition: tick >= 0.
// Postcondition: Stats.Health >= 0. For every id in spent, Afflicting.Has(id) is false.
func (c *Combatant) TickAfflictions(tick int) (out []TickDamage, spent []effect.ID) {
	for _, e := range c.Afflicting.Durations() {
		if e.DamageTimeLeft <= 0 {
			c.Afflicting.Remove(e.ID)
			spent = append(spent, e.ID)
			continue
		}
		if e.Rate.Due(tick) && !c.IsDefeated() {
			out = append(out, c.sufferTick(e.ID, effect.KindDuration, 0, e.Type, e.DamagePerTick, e.Source))
		}
		e.DamageTimeLeft -= TickPeriod
	}

	for _, e := range c.Afflicting.Stackings() {
		if e.DamageTimeLeft <= 0 {
			c.Afflicting.Remove(e.ID)
			spent = append(spent, e.ID)
			continue
		}
		if effect.PerSecond.Due(tick) && e.Stacks > 0 && !c.IsDefeated() {
			out = append(out, c.sufferTick(e.ID, effect.KindStacking, e.Stacks, e.Type, e.DamagePerStack*float64(e.Stacks), e.Source))
		}
		e.DamageTimeLeft -= TickPeriod
	}

	return out, spent
}

func (c *Combatant) sufferTick(id effect.ID, kind effect.Kind, stacks int, t damage.Type, amount float64, src stats.Penetration) TickDamage {
	var dealt damage.Damage
	switch t {
	case damage.Physical:
		dealt.Physical = stats.DamageTaken(c.Stats.ArmorReduction(src), amount)
	case damage.Magical:
		dealt.Magical = stats.DamageTaken(c.Stats.MagicResistReduction(src), amount)
	default:
		dealt.True = amount
	}
	return TickDamage{
		Effect:   id,
		Kind:     kind,
		Stacks:   stacks,
		Dealt:    dealt,
		Absorbed: c.Stats.TakeDamage(dealt),
	}
}
