package issuer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "namegate/pkg/domain"
)

// PostgresStore persists the issuer whitelist in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issuer store and ensures its
// schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	const schema = `
CREATE TABLE IF NOT EXISTS registrar_issuers (
	address  BYTEA PRIMARY KEY,
	added_at TIMESTAMPTZ NOT NULL
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure issuer schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Add(ctx context.Context, issuer id.Address) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registrar_issuers (address, added_at) VALUES ($1, $2)
		 ON CONFLICT (address) DO NOTHING`,
		issuer.Bytes(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, issuer id.Address) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM registrar_issuers WHERE address = $1`, issuer.Bytes())
	if err != nil {
		return fmt.Errorf("remove issuer: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsIssuer(ctx context.Context, issuer id.Address) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrar_issuers WHERE address = $1)`,
		issuer.Bytes(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check issuer: %w", err)
	}
	return exists, nil
}
