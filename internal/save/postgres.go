package save

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps saves in the listaris_saves table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates the table if needed.
func NewPostgresStore(ctx context.Context, db *pgxpool.Pool) (*PostgresStore, error) {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listaris_saves (
			key TEXT PRIMARY KEY,
			body JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create listaris_saves: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := p.db.QueryRow(ctx, `
		SELECT body::text
		FROM listaris_saves
		WHERE key = $1
	`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (p *PostgresStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO listaris_saves (key, body, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`, key, string(body))
	return err
}
