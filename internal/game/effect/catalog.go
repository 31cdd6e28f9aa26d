package effect

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duelsim/internal/game/damage"
)

// ErrUnknownEffect is returned when a name has no registered definition.
var ErrUnknownEffect = errors.New("unknown effect")

// Def is the static definition of an on-hit effect, loaded from YAML.
// Durations use time.ParseDuration syntax; an empty Duration means the effect
// never expires on its own.
type Def struct {
	ID             string      `yaml:"id"`
	Name           string      `yaml:"name"`
	Description    string      `yaml:"description"`
	Kind           string      `yaml:"kind"` // "limited_use" | "stacking" | "duration"
	DamageType     damage.Type `yaml:"damage_type"`
	Damage         float64     `yaml:"damage"`
	Uses           int         `yaml:"uses"`
	DamagePerStack float64     `yaml:"damage_per_stack"`
	MaxStacks      int         `yaml:"max_stacks"`
	DamagePerTick  float64     `yaml:"damage_per_tick"`
	TickRate       TickRate    `yaml:"tick_rate"`
	DamageDuration string      `yaml:"damage_duration"`
	Duration       string      `yaml:"duration"`
}

// Validate reports every problem with d in a single error.
//
// Postcondition: Returns nil iff Instantiate will succeed.
func (d *Def) Validate() error {
	var errs []string
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, "id must not be empty")
	}
	if _, err := parseLifetime(d.Duration); err != nil {
		errs = append(errs, err.Error())
	}
	switch d.Kind {
	case KindLimitedUse.String():
		if d.Uses < 0 {
			errs = append(errs, fmt.Sprintf("uses must be >= 0, got %d", d.Uses))
		}
		if d.Damage < 0 {
			errs = append(errs, "damage must be >= 0")
		}
	case KindStacking.String():
		if d.MaxStacks < 1 {
			errs = append(errs, fmt.Sprintf("max_stacks must be >= 1, got %d", d.MaxStacks))
		}
		if d.DamagePerStack < 0 {
			errs = append(errs, "damage_per_stack must be >= 0")
		}
		if _, err := parseDamageDuration(d.DamageDuration); err != nil {
			errs = append(errs, err.Error())
		}
	case KindDuration.String():
		if !d.TickRate.Valid() {
			errs = append(errs, fmt.Sprintf("tick_rate must be one of 30, 15, 8, 4; got %d", d.TickRate))
		}
		if d.DamagePerTick < 0 {
			errs = append(errs, "damage_per_tick must be >= 0")
		}
		if _, err := parseDamageDuration(d.DamageDuration); err != nil {
			errs = append(errs, err.Error())
		}
	default:
		errs = append(errs, fmt.Sprintf("kind must be limited_use, stacking or duration; got %q", d.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("effect %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Instantiate builds a fresh effect value from d. Stacking effects start at
// zero stacks; the first affliction sets them to one.
//
// Precondition: d.Validate() == nil.
func (d *Def) Instantiate() (Effect, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	life, _ := parseLifetime(d.Duration)
	id := Intern(d.ID)
	switch d.Kind {
	case KindLimitedUse.String():
		return &LimitedUseOnHit{ID: id, Damage: d.Damage, Type: d.DamageType, Uses: d.Uses, Lifetime: life}, nil
	case KindStacking.String():
		dt, _ := parseDamageDuration(d.DamageDuration)
		return &StackingOnHit{
			ID:             id,
			DamagePerStack: d.DamagePerStack,
			Type:           d.DamageType,
			MaxStacks:      d.MaxStacks,
			DamageTimeLeft: dt,
			Lifetime:       life,
		}, nil
	default:
		dt, _ := parseDamageDuration(d.DamageDuration)
		return &DurationOnHit{
			ID:             id,
			DamagePerTick:  d.DamagePerTick,
			Type:           d.DamageType,
			Rate:           d.TickRate,
			DamageTimeLeft: dt,
			Lifetime:       life,
		}, nil
	}
}

func parseLifetime(s string) (Lifetime, error) {
	if strings.TrimSpace(s) == "" {
		return Lifetime{}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return Lifetime{}, fmt.Errorf("duration: %w", err)
	}
	if d <= 0 {
		return Lifetime{}, fmt.Errorf("duration must be positive, got %s", d)
	}
	return Lifetime{TimeLeft: d, Finite: true}, nil
}

func parseDamageDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("damage_duration must be set")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("damage_duration: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("damage_duration must be positive, got %s", d)
	}
	return d, nil
}

// Catalog holds every known effect definition keyed by lower-case id.
type Catalog struct {
	defs map[string]*Def
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Def)}
}

// Register validates def and adds it, overwriting any entry with the same id.
//
// Precondition: def must not be nil.
func (c *Catalog) Register(def *Def) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.defs[strings.ToLower(strings.TrimSpace(def.ID))] = def
	return nil
}

// Get returns the definition for name.
func (c *Catalog) Get(name string) (*Def, bool) {
	d, ok := c.defs[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names returns every registered id in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.defs))
	for k := range c.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Instantiate returns a fresh effect for name.
//
// Postcondition: Returns an error wrapping ErrUnknownEffect if name is not registered.
func (c *Catalog) Instantiate(name string) (Effect, error) {
	d, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
	}
	return d.Instantiate()
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def and
// returns a populated Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := cat.Register(&def); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
	}
	return cat, nil
}
