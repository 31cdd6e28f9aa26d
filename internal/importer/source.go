package importer

import (
	"context"

	"github.com/cory-johannsen/duelsim/internal/game/catalog"
)

// Source loads champion templates from a format-specific location.
//
// Precondition: dir must exist and contain the expected layout for the format.
// Postcondition: returns the validated champions ordered by id, or a non-nil error.
type Source interface {
	Load(dir string) ([]*catalog.Champion, error)
}

// Store persists champion templates, replacing any with the same id.
type Store interface {
	Upsert(ctx context.Context, c *catalog.Champion) error
}

// YAMLSource reads the content/champions layout: one champion per *.yaml file.
type YAMLSource struct{}

// Load implements Source.
func (YAMLSource) Load(dir string) ([]*catalog.Champion, error) {
	reg, err := catalog.LoadDirectory(dir)
	if err != nil {
		return nil, err
	}
	return reg.All(), nil
}
