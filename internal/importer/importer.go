// Package importer copies champion templates from content files into a
// persistent catalog store.
package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Importer orchestrates champion import from a Source to a Store.
type Importer struct {
	source Source
	store  Store
	logger *zap.Logger
}

// New constructs an Importer. A nil logger discards output.
//
// Precondition: source and store must be non-nil.
// Postcondition: returns a non-nil Importer.
func New(source Source, store Store, logger *zap.Logger) *Importer {
	if source == nil || store == nil {
		panic("importer.New: source and store must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{source: source, store: store, logger: logger}
}

// Run loads every champion under dir and upserts each into the store.
//
// Precondition: dir must satisfy the source's layout requirements.
// Postcondition: returns the number of champions written. On error, champions
// before the failing one remain written.
func (imp *Importer) Run(ctx context.Context, dir string) (int, error) {
	overall := time.Now()

	champions, err := imp.source.Load(dir)
	if err != nil {
		return 0, fmt.Errorf("loading source: %w", err)
	}
	imp.logger.Info("champions loaded", zap.Int("count", len(champions)), zap.String("dir", dir))

	for i, c := range champions {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := imp.store.Upsert(ctx, c); err != nil {
			return i, fmt.Errorf("storing champion %q: %w", c.ID, err)
		}
		imp.logger.Debug("champion stored", zap.String("id", c.ID), zap.String("name", c.Name))
	}

	imp.logger.Info("import complete",
		zap.Int("count", len(champions)),
		zap.Duration("elapsed", time.Since(overall)),
	)
	return len(champions), nil
}
