package store

import (
	"context"
	"database/sql"
	"fmt"

	id "namegate/pkg/domain"
)

// PostgresAccountStore persists smart account signer sets in PostgreSQL.
type PostgresAccountStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store and ensures its
// schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*PostgresAccountStore, error) {
	s := &PostgresAccountStore{db: db}
	const schema = `
CREATE TABLE IF NOT EXISTS smart_account_signers (
	account BYTEA NOT NULL,
	signer  BYTEA NOT NULL,
	PRIMARY KEY (account, signer)
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure account schema: %w", err)
	}
	return s, nil
}

func (s *PostgresAccountStore) Register(ctx context.Context, account id.Address, signers ...id.Address) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin register account: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM smart_account_signers WHERE account = $1`, account.Bytes()); err != nil {
		return fmt.Errorf("clear account signers: %w", err)
	}
	for _, signer := range signers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO smart_account_signers (account, signer) VALUES ($1, $2)`,
			account.Bytes(), signer.Bytes()); err != nil {
			return fmt.Errorf("insert account signer: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresAccountStore) Signers(ctx context.Context, account id.Address) ([]id.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT signer FROM smart_account_signers WHERE account = $1`, account.Bytes())
	if err != nil {
		return nil, fmt.Errorf("query account signers: %w", err)
	}
	defer rows.Close()

	var signers []id.Address
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan account signer: %w", err)
		}
		var addr id.Address
		copy(addr[:], b)
		signers = append(signers, addr)
	}
	return signers, rows.Err()
}
