// Package storage persists the records of retired dogs to PostgreSQL
// and serves the leaderboard from them. Records are append-only; a row
// once inserted never changes.
package storage

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lootcity/gameserver/game/model"
)

const (
	createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS pgcrypto`

	createTableSQL = `CREATE TABLE IF NOT EXISTS retired_players (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    score INTEGER NOT NULL,
    play_time_ms BIGINT NOT NULL
)`

	insertRecordSQL = `INSERT INTO retired_players (name, score, play_time_ms) VALUES ($1, $2, $3)`

	selectRecordsSQL = `SELECT name, score, play_time_ms
FROM retired_players
ORDER BY score DESC, play_time_ms, name
OFFSET $1 LIMIT $2`
)

// DB is the retired-record sink backed by a bounded pgx connection
// pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to the database at dbURL, sizes the pool to the hardware
// concurrency and ensures the retired_players table exists. Failures
// here are fatal at startup.
func New(ctx context.Context, dbURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	conns := runtime.NumCPU()
	if conns < 1 {
		conns = 1
	}
	cfg.MaxConns = int32(conns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) init(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, createExtensionSQL); err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	if _, err := db.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create retired_players table: %w", err)
	}
	return nil
}

// SaveRecord appends one retirement record.
func (db *DB) SaveRecord(ctx context.Context, record model.PlayerRecord) error {
	_, err := db.pool.Exec(ctx, insertRecordSQL, record.Name, record.Score, record.PlayTimeMS)
	if err != nil {
		return fmt.Errorf("failed to insert retired player: %w", err)
	}
	return nil
}

// Records returns a leaderboard page ordered by score descending, then
// play time ascending, then name. Out-of-range arguments are clamped to
// sane values; the HTTP layer enforces the request limits.
func (db *DB) Records(ctx context.Context, start, maxItems int) ([]model.PlayerRecord, error) {
	if start < 0 {
		start = 0
	}
	if maxItems < 0 {
		maxItems = 0
	}

	rows, err := db.pool.Query(ctx, selectRecordsSQL, start, maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to query retired players: %w", err)
	}
	defer rows.Close()

	var records []model.PlayerRecord
	for rows.Next() {
		var r model.PlayerRecord
		if err := rows.Scan(&r.Name, &r.Score, &r.PlayTimeMS); err != nil {
			return nil, fmt.Errorf("failed to scan retired player row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read retired player rows: %w", err)
	}

	return records, nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}
