package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"carriercheck/internal/domain"
	"carriercheck/pkg/platform/sentinel"
	"carriercheck/pkg/requestcontext"
)

// farFuture stands in for "never expires" so expires_at stays NOT NULL.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// PostgresStore persists results as JSONB rows. Expired rows are invisible to
// Get and removed by PurgeExpired.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Put upserts the document. A zero expiresAt is stored as farFuture.
func (s *PostgresStore) Put(ctx context.Context, id string, r *domain.Result, expiresAt time.Time) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	if expiresAt.IsZero() {
		expiresAt = farFuture
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO intake_results (request_id, document, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (request_id) DO UPDATE
		SET document = EXCLUDED.document,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at`,
		id, data, expiresAt, requestcontext.Now(ctx),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Result, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT document FROM intake_results
		WHERE request_id = $1 AND expires_at > $2`,
		id, requestcontext.Now(ctx),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find result: %w", err)
	}
	return decode(data)
}

// PurgeExpired deletes rows expired as of now.
func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM intake_results WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired results: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
