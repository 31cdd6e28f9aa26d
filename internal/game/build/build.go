// Package build composes a champion template, a level and a set of items into
// a ready-to-fight combatant.
package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/duelsim/internal/game/catalog"
	"github.com/cory-johannsen/duelsim/internal/game/combat"
	"github.com/cory-johannsen/duelsim/internal/game/effect"
	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// Build is a champion at a level with items and extra granted effects.
// A Build is a template: producing a combatant from it never mutates it.
type Build struct {
	Champion *catalog.Champion
	Level    int
	Items    []*ItemDef
	// Effects names on-hit effects granted on top of those from Items.
	Effects []string
}

// Validate reports whether the build can produce a combatant.
//
// Postcondition: Returns an error wrapping stats.ErrInvalidLevel when Level < 1.
func (b *Build) Validate() error {
	if b.Champion == nil {
		return fmt.Errorf("build: champion must not be nil")
	}
	if b.Level < 1 {
		return fmt.Errorf("build %q: %w: %d", b.Champion.ID, stats.ErrInvalidLevel, b.Level)
	}
	for i, it := range b.Items {
		if it == nil {
			return fmt.Errorf("build %q: items[%d] must not be nil", b.Champion.ID, i)
		}
	}
	return nil
}

// Stats returns the leveled stat record with every item folded into the bonus
// and penetration terms.
//
// Precondition: b.Validate() == nil.
// Postcondition: Stats.Bonus is the sum of item bonuses; Health == MaxHealth.
func (b *Build) Stats() (stats.Stats, error) {
	if err := b.Validate(); err != nil {
		return stats.Stats{}, err
	}
	s := stats.Stats{Base: b.Champion.Base}
	for _, it := range b.Items {
		s.Bonus = s.Bonus.Add(it.Bonus)
		s.Penetration = s.Penetration.Add(it.Penetration)
	}
	if err := s.ApplyLevel(b.Level); err != nil {
		return stats.Stats{}, err
	}
	return s, nil
}

// EffectNames returns the effects granted by the items followed by b.Effects,
// with duplicates removed and order preserved.
func (b *Build) EffectNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		k := strings.ToLower(strings.TrimSpace(name))
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}
	for _, it := range b.Items {
		for _, e := range it.Effects {
			add(e)
		}
	}
	for _, e := range b.Effects {
		add(e)
	}
	return out
}

// Combatant produces a fresh combatant for this build, instantiating each
// granted effect from effects.
//
// Precondition: effects may be nil only when EffectNames() is empty.
// Postcondition: The returned combatant shares no mutable state with b or effects.
func (b *Build) Combatant(effects *effect.Catalog) (*combat.Combatant, error) {
	s, err := b.Stats()
	if err != nil {
		return nil, err
	}
	c := combat.NewCombatant(b.Champion.Name, s)
	for _, name := range b.EffectNames() {
		if effects == nil {
			return nil, fmt.Errorf("build %q: %w: %q (no effect catalog)", b.Champion.ID, effect.ErrUnknownEffect, name)
		}
		e, err := effects.Instantiate(name)
		if err != nil {
			return nil, fmt.Errorf("build %q: %w", b.Champion.ID, err)
		}
		c.Granted.Grant(e)
	}
	return c, nil
}

// Spec names the parts of a build before they are resolved.
type Spec struct {
	Champion string
	Level    int
	Items    []string
	Effects  []string
}

// Resolver turns a Spec into a Build using the configured catalogs.
type Resolver struct {
	champions catalog.Catalog
	items     *ItemRegistry
	effects   *effect.Catalog
}

// NewResolver creates a Resolver.
//
// Precondition: champions must be non-nil. items and effects may be nil when
// no spec names an item or effect.
func NewResolver(champions catalog.Catalog, items *ItemRegistry, effects *effect.Catalog) *Resolver {
	if champions == nil {
		panic("build: NewResolver precondition violated: champions must not be nil")
	}
	return &Resolver{champions: champions, items: items, effects: effects}
}

// Effects returns the effect catalog used to instantiate granted effects.
func (r *Resolver) Effects() *effect.Catalog { return r.effects }

// Resolve looks up every name in spec.
//
// Postcondition: Missing champions and items return an error wrapping
// catalog.ErrUnknownEntity; missing effects wrap effect.ErrUnknownEffect.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (*Build, error) {
	champ, err := r.champions.Lookup(ctx, spec.Champion)
	if err != nil {
		return nil, fmt.Errorf("resolving champion: %w", err)
	}
	b := &Build{Champion: champ, Level: spec.Level, Effects: spec.Effects}
	for _, id := range spec.Items {
		var it *ItemDef
		ok := false
		if r.items != nil {
			it, ok = r.items.Item(id)
		}
		if !ok {
			return nil, fmt.Errorf("resolving item: %w: item %q", catalog.ErrUnknownEntity, id)
		}
		b.Items = append(b.Items, it)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	for _, name := range b.EffectNames() {
		if r.effects == nil {
			return nil, fmt.Errorf("resolving effect: %w: %q", effect.ErrUnknownEffect, name)
		}
		if _, ok := r.effects.Get(name); !ok {
			return nil, fmt.Errorf("resolving effect: %w: %q", effect.ErrUnknownEffect, name)
		}
	}
	return b, nil
}
