// Package combat implements a single combatant's side of a duel: auto-attack
// resolution, on-hit effect propagation and damage-over-time ticks.
package combat

import (
	"time"

	"github.com/cory-johannsen/duelsim/internal/game/effect"
	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// TicksPerSecond is the fixed simulation rate.
const TicksPerSecond = 30

// TickPeriod is the simulated time covered by one tick.
const TickPeriod = time.Second / TicksPerSecond

// Combatant is one participant in a duel.
// Granted holds the effects this combatant applies to targets it hits.
// Afflicting holds the effects other combatants have applied to it.
type Combatant struct {
	Name       string
	Level      int
	Stats      stats.Stats
	Granted    *effect.Registry
	Afflicting *effect.Registry
}

// NewCombatant creates a Combatant with empty effect registries.
//
// Postcondition: Granted and Afflicting are non-nil.
func NewCombatant(name string, s stats.Stats) *Combatant {
	return &Combatant{
		Name:       name,
		Level:      s.Level,
		Stats:      s,
		Granted:    effect.NewRegistry(),
		Afflicting: effect.NewRegistry(),
	}
}

// Clone returns an independent deep copy of c.
//
// Postcondition: Mutating the clone, including its registries, never affects c.
func (c *Combatant) Clone() *Combatant {
	return &Combatant{
		Name:       c.Name,
		Level:      c.Level,
		Stats:      c.Stats,
		Granted:    c.Granted.Clone(),
		Afflicting: c.Afflicting.Clone(),
	}
}

// IsDefeated reports whether the combatant's health has reached zero.
func (c *Combatant) IsDefeated() bool { return c.Stats.IsDefeated() }

// Decay removes one tick period from every finite effect the combatant grants
// or suffers and purges the expired ones.
//
// Postcondition: Returns the expired ids, granted first, each group sorted by name.
func (c *Combatant) Decay(period time.Duration) []effect.ID {
	expired := c.Granted.Decay(period)
	return append(expired, c.Afflicting.Decay(period)...)
}
