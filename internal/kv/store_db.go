package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.pool.Ping(ctx)
	})
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, `
			SELECT value
			FROM kv_entries
			WHERE key = $1
		`, key).Scan(&value)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres get failed: %w", err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO kv_entries (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		`, key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres set failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key)
		return err
	})
	if err != nil {
		return fmt.Errorf("postgres delete failed: %w", err)
	}
	return nil
}
