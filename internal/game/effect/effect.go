// Package effect implements the on-hit effect kinds a combatant can grant and
// suffer: limited-use, stacking and damage-over-time.
package effect

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duelsim/internal/game/damage"
	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// Kind distinguishes the three effect variants.
type Kind int

const (
	KindLimitedUse Kind = iota
	KindStacking
	KindDuration
)

// String returns the name used in content files.
func (k Kind) String() string {
	switch k {
	case KindLimitedUse:
		return "limited_use"
	case KindStacking:
		return "stacking"
	case KindDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// TickRate is the period, in simulation ticks, between two damage ticks of a
// damage-over-time effect. At 30 ticks per second the four rates fire once per
// second, twice, roughly four and roughly eight times per second.
type TickRate int

const (
	PerSecond        TickRate = 30
	PerHalfSecond    TickRate = 15
	PerQuarterSecond TickRate = 8
	PerEighthSecond  TickRate = 4
)

// Valid reports whether r is one of the four supported rates.
func (r TickRate) Valid() bool {
	switch r {
	case PerSecond, PerHalfSecond, PerQuarterSecond, PerEighthSecond:
		return true
	}
	return false
}

// Due reports whether a damage tick fires on the given simulation tick.
//
// Precondition: r.Valid().
func (r TickRate) Due(tick int) bool {
	return tick%int(r) == 0
}

// UnmarshalYAML accepts a tick count (30, 15, 8, 4).
func (r *TickRate) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err != nil {
		return err
	}
	rate := TickRate(n)
	if !rate.Valid() {
		return fmt.Errorf("effect: tick rate must be one of 30, 15, 8, 4; got %d", n)
	}
	*r = rate
	return nil
}

// Effect is implemented only by the three variants in this package.
type Effect interface {
	EffectID() ID
	Kind() Kind
	isEffect()
}

// Lifetime is the optional shelf life shared by every variant.
// An effect with Finite == false never expires from time alone.
type Lifetime struct {
	TimeLeft time.Duration
	Finite   bool
}

// Decay removes one tick period from a finite lifetime.
//
// Postcondition: Returns true iff the lifetime is finite and TimeLeft <= 0.
func (l *Lifetime) Decay(period time.Duration) bool {
	if !l.Finite {
		return false
	}
	l.TimeLeft -= period
	return l.TimeLeft <= 0
}

// LimitedUseOnHit adds flat damage to a limited number of attacks.
type LimitedUseOnHit struct {
	ID     ID
	Damage float64
	Type   damage.Type
	Uses   int
	Lifetime
}

func (e *LimitedUseOnHit) EffectID() ID { return e.ID }
func (e *LimitedUseOnHit) Kind() Kind   { return KindLimitedUse }
func (e *LimitedUseOnHit) isEffect()    {}

// Consume spends one use.
//
// Postcondition: Uses >= 0.
func (e *LimitedUseOnHit) Consume() {
	if e.Uses > 0 {
		e.Uses--
	}
}

// StackingOnHit deals DamagePerStack per stack once per second while
// DamageTimeLeft is positive. Stacks only change on reapplication or through
// RemoveStack.
type StackingOnHit struct {
	ID             ID
	DamagePerStack float64
	Type           damage.Type
	MaxStacks      int
	Stacks         int
	DamageTimeLeft time.Duration
	Lifetime
	// Source is the applier's penetration, captured when the effect landed.
	Source stats.Penetration
}

func (e *StackingOnHit) EffectID() ID { return e.ID }
func (e *StackingOnHit) Kind() Kind   { return KindStacking }
func (e *StackingOnHit) isEffect()    {}

// AddStack increments Stacks unless already at MaxStacks.
//
// Postcondition: Stacks <= MaxStacks.
func (e *StackingOnHit) AddStack() {
	if e.Stacks < e.MaxStacks {
		e.Stacks++
	}
}

// RemoveStack decrements Stacks, stopping at zero.
//
// Postcondition: Stacks >= 0.
func (e *StackingOnHit) RemoveStack() {
	if e.Stacks > 0 {
		e.Stacks--
	}
}

// DurationOnHit deals DamagePerTick every Rate ticks while DamageTimeLeft is positive.
type DurationOnHit struct {
	ID             ID
	DamagePerTick  float64
	Type           damage.Type
	Rate           TickRate
	DamageTimeLeft time.Duration
	Lifetime
	Source stats.Penetration
}

func (e *DurationOnHit) EffectID() ID { return e.ID }
func (e *DurationOnHit) Kind() Kind   { return KindDuration }
func (e *DurationOnHit) isEffect()    {}
