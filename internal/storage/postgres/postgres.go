// Package postgres stores saved games in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
)

// DefaultHealthTimeout bounds the ping Open performs before handing out the pool.
const DefaultHealthTimeout = 5 * time.Second

// Pool owns the connection pool the save repositories share.
type Pool struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to the database described by cfg and verifies it answers.
//
// Precondition: cfg passed config validation; logger must be non-nil.
// Postcondition: Returns a reachable Pool or a non-nil error; nothing is left open on error.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	start := time.Now()
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
	p := &Pool{pool: db, logger: logger}
	if err := p.Health(ctx, DefaultHealthTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Host),
		zap.String("name", cfg.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return p, nil
}

// Health pings the database within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Saves returns the repository for slot on this pool.
func (p *Pool) Saves(slot string) *SaveRepository {
	return NewSaveRepository(p.pool, slot)
}

// Close releases the pool. It is not usable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
	p.logger.Debug("database pool closed")
}
