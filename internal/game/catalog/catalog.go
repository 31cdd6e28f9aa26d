// Package catalog resolves champion names to their base stat templates.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// ErrUnknownEntity is returned when a champion name is not in the catalog.
var ErrUnknownEntity = errors.New("unknown entity")

// Champion is a reusable champion template loaded from YAML or the database.
type Champion struct {
	ID   string     `yaml:"id"`
	Name string     `yaml:"name"`
	Base stats.Base `yaml:"stats"`
}

// Validate checks the template's identity and stat curves.
//
// Precondition: c must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, base health is
// positive, and no base stat is negative; otherwise every violation is reported.
func (c *Champion) Validate() error {
	var errs []string
	if strings.TrimSpace(c.ID) == "" {
		errs = append(errs, "id must not be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	b := c.Base
	if b.Health.Base <= 0 {
		errs = append(errs, "stats.health.base must be > 0")
	}
	for name, v := range map[string]float64{
		"attack_damage.base": b.AttackDamage.Base,
		"armor.base":         b.Armor.Base,
		"magic_resist.base":  b.MagicResist.Base,
		"attack_speed":       b.AttackSpeed,
		"attack_speed_ratio": b.AttackSpeedRatio,
		"crit_chance":        b.CritChance,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("stats.%s must be >= 0", name))
		}
	}
	if b.CritChance > 1 {
		errs = append(errs, "stats.crit_chance must be <= 1")
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("champion %q: %s", c.ID, strings.Join(errs, "; "))
	}
	return nil
}

// Catalog looks champions up by name.
type Catalog interface {
	// Lookup returns the champion whose id or display name matches name,
	// case-insensitively.
	//
	// Postcondition: Returns an error wrapping ErrUnknownEntity on a miss.
	Lookup(ctx context.Context, name string) (*Champion, error)
}

// Registry is an in-memory Catalog keyed by lower-case id and display name.
type Registry struct {
	byKey map[string]*Champion
	ids   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Champion)}
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Register validates c and adds it under both its id and its display name.
//
// Precondition: c must not be nil.
// Postcondition: Returns an error if c is invalid or its id is already registered.
func (r *Registry) Register(c *Champion) error {
	if err := c.Validate(); err != nil {
		return err
	}
	id := key(c.ID)
	if existing, ok := r.byKey[id]; ok && key(existing.ID) == id {
		return fmt.Errorf("catalog: champion id %q already registered", c.ID)
	}
	r.byKey[id] = c
	if n := key(c.Name); n != id {
		if _, taken := r.byKey[n]; !taken {
			r.byKey[n] = c
		}
	}
	r.ids = append(r.ids, id)
	sort.Strings(r.ids)
	return nil
}

// Lookup implements Catalog.
func (r *Registry) Lookup(_ context.Context, name string) (*Champion, error) {
	c, ok := r.byKey[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: champion %q", ErrUnknownEntity, name)
	}
	return c, nil
}

// All returns every registered champion ordered by id.
func (r *Registry) All() []*Champion {
	out := make([]*Champion, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byKey[id])
	}
	return out
}

// LoadChampionFromBytes parses and validates a single champion template.
//
// Postcondition: Returns a validated *Champion, or an error.
func LoadChampionFromBytes(data []byte) (*Champion, error) {
	var c Champion
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing champion YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadDirectory reads every *.yaml file in dir into a new Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry, or an error on the first parse,
// validation or duplicate failure; on error the partial result is discarded.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading champion dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		c, err := LoadChampionFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
