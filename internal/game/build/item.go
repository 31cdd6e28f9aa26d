package build

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// ItemDef is a static item definition loaded from YAML: flat stat deltas,
// penetration terms and the names of on-hit effects the item grants.
type ItemDef struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Bonus       stats.Bonus       `yaml:"bonus"`
	Penetration stats.Penetration `yaml:"penetration"`
	Effects     []string          `yaml:"effects"`
}

// Validate checks the item's identity and bounded terms.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, every percent term
// lies in [0, 1], and no effect name is blank.
func (d *ItemDef) Validate() error {
	var errs []string
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, "id must not be empty")
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	p := d.Penetration
	for name, v := range map[string]float64{
		"percent_armor_reduction": p.PercentArmorReduction,
		"percent_bonus_armor_pen": p.PercentBonusArmorPen,
		"percent_mr_reduction":    p.PercentMagicResistReduction,
		"percent_mr_pen":          p.PercentMagicResistPen,
		"crit_chance":             d.Bonus.CritChance,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0, 1], got %v", name, v))
		}
	}
	for i, e := range d.Effects {
		if strings.TrimSpace(e) == "" {
			errs = append(errs, fmt.Sprintf("effects[%d] must not be empty", i))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("item %q: %s", d.ID, strings.Join(errs, "; "))
	}
	return nil
}

// ItemRegistry holds all loaded item definitions indexed by lower-case id.
type ItemRegistry struct {
	items map[string]*ItemDef
}

// NewItemRegistry returns an empty ItemRegistry.
func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{items: make(map[string]*ItemDef)}
}

// Register validates d and adds it to the registry.
//
// Precondition: d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d is invalid or d.ID is already registered.
func (r *ItemRegistry) Register(d *ItemDef) error {
	if err := d.Validate(); err != nil {
		return err
	}
	id := strings.ToLower(strings.TrimSpace(d.ID))
	if _, exists := r.items[id]; exists {
		return fmt.Errorf("build: ItemRegistry.Register: item ID %q already registered", d.ID)
	}
	r.items[id] = d
	return nil
}

// Item returns the ItemDef for id and whether it was found.
func (r *ItemRegistry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[strings.ToLower(strings.TrimSpace(id))]
	return d, ok
}

// All returns every registered item ordered by id.
func (r *ItemRegistry) All() []*ItemDef {
	out := make([]*ItemDef, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadItemDirectory reads every *.yaml file in dir into a new ItemRegistry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated registry, or an error on the first parse,
// validation or duplicate failure.
func LoadItemDirectory(dir string) (*ItemRegistry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
	}
	reg := NewItemRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var d ItemDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&d); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
