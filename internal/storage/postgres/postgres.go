// Package postgres stores the champion catalog in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelsim/internal/config"
)

// SchemaCheckTimeout bounds the readiness query OpenCatalog runs.
const SchemaCheckTimeout = 5 * time.Second

// ErrSchemaMissing is returned when the database answers but the champions
// table has not been migrated.
var ErrSchemaMissing = errors.New("champion catalog schema missing (run cmd/migrate)")

// Pool is the connection pool behind the champion catalog.
type Pool struct {
	db *pgxpool.Pool
}

// NewPool connects to the database described by cfg.
//
// Precondition: cfg must pass config validation for a postgres catalog.
// Postcondition: Returns a Pool whose database answered a ping, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{db: db}, nil
}

// CheckSchema verifies within timeout that the champions table exists.
//
// Postcondition: Returns nil when it does, an error wrapping ErrSchemaMissing
// when the database answers without it, and any other error otherwise.
func (p *Pool) CheckSchema(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var table *string
	if err := p.db.QueryRow(ctx, `SELECT to_regclass('champions')::text`).Scan(&table); err != nil {
		return fmt.Errorf("checking champion schema: %w", err)
	}
	if table == nil {
		return ErrSchemaMissing
	}
	return nil
}

// Champions returns a repository over the pool.
func (p *Pool) Champions() *ChampionRepository {
	return NewChampionRepository(p.db)
}

// Close releases every connection. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.db.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.db
}

// OpenCatalog connects to the database and checks that the champion schema
// is in place.
//
// Postcondition: On success the caller owns the returned Pool and must Close it.
// On error no connection is left open.
func OpenCatalog(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	start := time.Now()
	p, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.CheckSchema(ctx, SchemaCheckTimeout); err != nil {
		p.Close()
		return nil, err
	}
	logger.Info("champion catalog connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return p, nil
}
