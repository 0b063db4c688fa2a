package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewPostgres(log *slog.Logger, pool *pgxpool.Pool) *Postgres {
	return &Postgres{log: log, pool: pool}
}

// EnsureSchema creates the entity and outbox tables if they are missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS entities (
		partition TEXT NOT NULL,
		row_key TEXT NOT NULL,
		etag TEXT NOT NULL,
		body JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (partition, row_key)
	)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS outbox (
		id BIGSERIAL PRIMARY KEY,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		type TEXT NOT NULL,
		payload JSONB NOT NULL,
		traceparent TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		relay_id TEXT,
		lease_until TIMESTAMPTZ,
		retry_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

func (s *Postgres) Get(ctx context.Context, partition, key string) (Entity, error) {
	e := Entity{Partition: partition, Key: key}
	err := s.pool.QueryRow(ctx,
		`SELECT etag, body, updated_at FROM entities WHERE partition=$1 AND row_key=$2`,
		partition, key).Scan(&e.ETag, &e.Body, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entity{}, ErrNotFound
	}
	if err != nil {
		return Entity{}, err
	}
	return e, nil
}

func (s *Postgres) List(ctx context.Context, partition string) ([]Entity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT row_key, etag, body, updated_at FROM entities WHERE partition=$1 ORDER BY row_key`,
		partition)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e := Entity{Partition: partition}
		if err := rows.Scan(&e.Key, &e.ETag, &e.Body, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Postgres) Insert(ctx context.Context, e Entity) (Entity, error) {
	e.ETag = uuid.NewString()
	e.UpdatedAt = time.Now().UTC()
	ct, err := s.pool.Exec(ctx,
		`INSERT INTO entities (partition, row_key, etag, body, updated_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (partition, row_key) DO NOTHING`,
		e.Partition, e.Key, e.ETag, e.Body, e.UpdatedAt)
	if err != nil {
		return Entity{}, err
	}
	if ct.RowsAffected() == 0 {
		return Entity{}, ErrConflict
	}
	return e, nil
}

// Update writes the entity only when the stored etag still matches the one
// the caller last read. A zero-row update is disambiguated into ErrNotFound
// or ErrConflict with a follow-up existence check.
func (s *Postgres) Update(ctx context.Context, e Entity) (Entity, error) {
	next := uuid.NewString()
	now := time.Now().UTC()
	ct, err := s.pool.Exec(ctx,
		`UPDATE entities SET etag=$1, body=$2, updated_at=$3
		 WHERE partition=$4 AND row_key=$5 AND etag=$6`,
		next, e.Body, now, e.Partition, e.Key, e.ETag)
	if err != nil {
		return Entity{}, err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM entities WHERE partition=$1 AND row_key=$2)`,
			e.Partition, e.Key).Scan(&exists); err != nil {
			return Entity{}, err
		}
		if !exists {
			return Entity{}, ErrNotFound
		}
		return Entity{}, ErrConflict
	}
	e.ETag = next
	e.UpdatedAt = now
	return e, nil
}

func (s *Postgres) Delete(ctx context.Context, partition, key string) error {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM entities WHERE partition=$1 AND row_key=$2`, partition, key)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
