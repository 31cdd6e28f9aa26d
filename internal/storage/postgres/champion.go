package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/duelsim/internal/game/catalog"
	"github.com/cory-johannsen/duelsim/internal/game/stats"
)

// ErrChampionNotFound is returned when a champion lookup yields no results.
// It wraps catalog.ErrUnknownEntity so callers can test either.
var ErrChampionNotFound = fmt.Errorf("champion not found: %w", catalog.ErrUnknownEntity)

// ChampionRepository stores champion templates. Stat curves are kept as the
// same YAML document the content files use.
type ChampionRepository struct {
	db *pgxpool.Pool
}

// NewChampionRepository creates a ChampionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewChampionRepository(db *pgxpool.Pool) *ChampionRepository {
	return &ChampionRepository{db: db}
}

// Lookup implements catalog.Catalog. An id match is preferred over a
// display-name match.
//
// Postcondition: Returns the champion, or an error wrapping ErrChampionNotFound.
func (r *ChampionRepository) Lookup(ctx context.Context, name string) (*catalog.Champion, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	var (
		c   catalog.Champion
		doc string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, stats
		 FROM champions
		 WHERE lower(id) = $1 OR lower(name) = $1
		 ORDER BY (lower(id) = $1) DESC
		 LIMIT 1`,
		key,
	).Scan(&c.ID, &c.Name, &doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrChampionNotFound, name)
		}
		return nil, fmt.Errorf("querying champion: %w", err)
	}
	if err := decodeStats(doc, &c.Base); err != nil {
		return nil, fmt.Errorf("champion %q: %w", c.ID, err)
	}
	return &c, nil
}

// Upsert inserts c or replaces the stored champion with the same id.
//
// Precondition: c must not be nil.
// Postcondition: Returns an error if c is invalid or the write fails.
func (r *ChampionRepository) Upsert(ctx context.Context, c *catalog.Champion) error {
	if err := c.Validate(); err != nil {
		return err
	}
	doc, err := yaml.Marshal(c.Base)
	if err != nil {
		return fmt.Errorf("encoding champion stats: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO champions (id, name, stats)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, stats = EXCLUDED.stats, updated_at = NOW()`,
		strings.ToLower(strings.TrimSpace(c.ID)), c.Name, string(doc),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("champion name %q already used by another id", c.Name)
		}
		return fmt.Errorf("upserting champion: %w", err)
	}
	return nil
}

// List returns every stored champion ordered by id.
func (r *ChampionRepository) List(ctx context.Context) ([]*catalog.Champion, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, stats FROM champions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing champions: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Champion
	for rows.Next() {
		var (
			c   catalog.Champion
			doc string
		)
		if err := rows.Scan(&c.ID, &c.Name, &doc); err != nil {
			return nil, fmt.Errorf("scanning champion: %w", err)
		}
		if err := decodeStats(doc, &c.Base); err != nil {
			return nil, fmt.Errorf("champion %q: %w", c.ID, err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating champions: %w", err)
	}
	return out, nil
}

// Delete removes the champion with the given id.
//
// Postcondition: Returns ErrChampionNotFound if no row was deleted.
func (r *ChampionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM champions WHERE id = $1`, strings.ToLower(strings.TrimSpace(id)))
	if err != nil {
		return fmt.Errorf("deleting champion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrChampionNotFound, id)
	}
	return nil
}

func decodeStats(doc string, b *stats.Base) error {
	if err := yaml.Unmarshal([]byte(doc), b); err != nil {
		return fmt.Errorf("decoding stats: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// SQLSTATE 23505 is unique_violation
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
