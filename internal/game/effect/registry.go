package effect

import (
	"sort"
	"time"

	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// Registry holds one combatant's effects in one direction: either the effects
// it grants to targets it hits, or the effects currently afflicting it.
// An ID is held by at most one variant. Lookups and removals of absent IDs are no-ops.
// It is not safe for concurrent use; the owning scenario serialises access.
type Registry struct {
	limited  map[ID]*LimitedUseOnHit
	stacking map[ID]*StackingOnHit
	duration map[ID]*DurationOnHit
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		limited:  make(map[ID]*LimitedUseOnHit),
		stacking: make(map[ID]*StackingOnHit),
		duration: make(map[ID]*DurationOnHit),
	}
}

// Grant stores a copy of e unless an effect with the same ID, of any variant,
// is already present.
//
// Precondition: e must be non-nil.
// Postcondition: Returns true iff e was added.
func (r *Registry) Grant(e Effect) bool {
	if r.Has(e.EffectID()) {
		return false
	}
	switch v := e.(type) {
	case *LimitedUseOnHit:
		cp := *v
		r.limited[v.ID] = &cp
	case *StackingOnHit:
		cp := *v
		r.stacking[v.ID] = &cp
	case *DurationOnHit:
		cp := *v
		r.duration[v.ID] = &cp
	default:
		panic("effect: Registry.Grant precondition violated: unknown effect variant")
	}
	return true
}

// AfflictStacking applies a stacking effect landed by an attacker with
// penetration src. The first application starts at one stack; later
// applications add a stack up to MaxStacks and refresh the damage timer.
//
// Postcondition: Returns the afflicting record; Stacks <= MaxStacks.
func (r *Registry) AfflictStacking(e *StackingOnHit, src stats.Penetration) *StackingOnHit {
	if existing, ok := r.stacking[e.ID]; ok {
		existing.AddStack()
		existing.DamageTimeLeft = e.DamageTimeLeft
		existing.Source = src
		return existing
	}
	cp := *e
	cp.Stacks = 1
	if cp.MaxStacks < 1 {
		cp.MaxStacks = 1
	}
	cp.Source = src
	r.stacking[e.ID] = &cp
	return &cp
}

// AfflictDuration applies a damage-over-time effect landed by an attacker with
// penetration src. Reapplication refreshes DamageTimeLeft to the incoming value
// rather than extending it.
//
// Postcondition: Returns the afflicting record.
func (r *Registry) AfflictDuration(e *DurationOnHit, src stats.Penetration) *DurationOnHit {
	if existing, ok := r.duration[e.ID]; ok {
		existing.DamageTimeLeft = e.DamageTimeLeft
		existing.Source = src
		return existing
	}
	cp := *e
	cp.Source = src
	r.duration[e.ID] = &cp
	return &cp
}

// LimitedUse returns the limited-use effect with id.
func (r *Registry) LimitedUse(id ID) (*LimitedUseOnHit, bool) {
	e, ok := r.limited[id]
	return e, ok
}

// Stacking returns the stacking effect with id.
func (r *Registry) Stacking(id ID) (*StackingOnHit, bool) {
	e, ok := r.stacking[id]
	return e, ok
}

// Duration returns the damage-over-time effect with id.
func (r *Registry) Duration(id ID) (*DurationOnHit, bool) {
	e, ok := r.duration[id]
	return e, ok
}

// Has reports whether any variant with id is present.
func (r *Registry) Has(id ID) bool {
	_, a := r.limited[id]
	_, b := r.stacking[id]
	_, c := r.duration[id]
	return a || b || c
}

// Remove deletes id from every variant map. Absent ids are a no-op.
//
// Postcondition: Has(id) is false.
func (r *Registry) Remove(id ID) {
	delete(r.limited, id)
	delete(r.stacking, id)
	delete(r.duration, id)
}

// Len returns the number of effects across all variants.
func (r *Registry) Len() int {
	return len(r.limited) + len(r.stacking) + len(r.duration)
}

// LimitedUses returns the limited-use effects ordered by name.
// The pointed-to records are shared with the registry.
func (r *Registry) LimitedUses() []*LimitedUseOnHit {
	out := make([]*LimitedUseOnHit, 0, len(r.limited))
	for _, e := range r.limited {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Stackings returns the stacking effects ordered by name.
func (r *Registry) Stackings() []*StackingOnHit {
	out := make([]*StackingOnHit, 0, len(r.stacking))
	for _, e := range r.stacking {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Durations returns the damage-over-time effects ordered by name.
func (r *Registry) Durations() []*DurationOnHit {
	out := make([]*DurationOnHit, 0, len(r.duration))
	for _, e := range r.duration {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Decay removes one tick period from every finite effect and purges those at
// or under zero.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
// Effects with Finite == false are not affected.
func (r *Registry) Decay(period time.Duration) []ID {
	var expired []ID
	for id, e := range r.limited {
		if e.Decay(period) {
			expired = append(expired, id)
			delete(r.limited, id)
		}
	}
	for id, e := range r.stacking {
		if e.Decay(period) {
			expired = append(expired, id)
			delete(r.stacking, id)
		}
	}
	for id, e := range r.duration {
		if e.Decay(period) {
			expired = append(expired, id)
			delete(r.duration, id)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].String() < expired[j].String() })
	return expired
}

// Clone returns a deep copy of r.
//
// Postcondition: Mutating the clone never affects r.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for id, e := range r.limited {
		cp := *e
		out.limited[id] = &cp
	}
	for id, e := range r.stacking {
		cp := *e
		out.stacking[id] = &cp
	}
	for id, e := range r.duration {
		cp := *e
		out.duration[id] = &cp
	}
	return out
}
