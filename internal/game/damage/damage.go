// Package damage provides the three-component damage value used by the
// combat pipeline and the shield absorption primitive.
package damage

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type identifies which mitigation applies to a damage component.
type Type int

const (
	Physical Type = iota
	Magical
	True
)

// String returns the lower-case name used in YAML and SQL.
func (t Type) String() string {
	switch t {
	case Physical:
		return "physical"
	case Magical:
		return "magical"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

// ParseType parses a damage type name, case-insensitively.
//
// Postcondition: Returns a valid Type or a non-nil error.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physical":
		return Physical, nil
	case "magical", "magic":
		return Magical, nil
	case "true":
		return True, nil
	default:
		return 0, fmt.Errorf("damage: unknown damage type %q", s)
	}
}

// UnmarshalYAML lets Type appear as a plain string in content files.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Damage is an additive physical/magical/true damage value.
type Damage struct {
	Physical float64
	Magical  float64
	True     float64
}

// Of returns a Damage with amount in the component selected by t.
func Of(t Type, amount float64) Damage {
	var d Damage
	d.AddTo(t, amount)
	return d
}

// Add returns the component-wise sum of d and o.
func (d Damage) Add(o Damage) Damage {
	return Damage{
		Physical: d.Physical + o.Physical,
		Magical:  d.Magical + o.Magical,
		True:     d.True + o.True,
	}
}

// AddTo adds amount to the component selected by t in place.
func (d *Damage) AddTo(t Type, amount float64) {
	switch t {
	case Physical:
		d.Physical += amount
	case Magical:
		d.Magical += amount
	case True:
		d.True += amount
	}
}

// Component returns the amount stored for t.
func (d Damage) Component(t Type) float64 {
	switch t {
	case Physical:
		return d.Physical
	case Magical:
		return d.Magical
	case True:
		return d.True
	default:
		return 0
	}
}

// Total returns the sum of all three components.
func (d Damage) Total() float64 {
	return d.Physical + d.Magical + d.True
}

// Absorb moves as much of *component as possible into *pool.
// The pool is reduced by the absorbed amount and clamped at zero; the
// component is reduced by the same amount.
//
// Precondition: component and pool must be non-nil.
// Postcondition: *pool >= 0; *component >= 0 when it started >= 0; the returned
// amount equals the reduction of both.
func Absorb(component, pool *float64) float64 {
	if *pool <= 0 || *component <= 0 {
		return 0
	}
	absorbed := *component
	if absorbed > *pool {
		absorbed = *pool
	}
	*pool -= absorbed
	*component -= absorbed
	if *pool < 0 {
		*pool = 0
	}
	return absorbed
}
