package invite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	id "namegate/pkg/domain"
)

// PostgresLedger persists consumed invite identifiers in PostgreSQL.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed invite ledger and ensures its
// schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*PostgresLedger, error) {
	l := &PostgresLedger{db: db}
	const schema = `
CREATE TABLE IF NOT EXISTS registrar_used_invites (
	invite_id BYTEA PRIMARY KEY,
	used_at   TIMESTAMPTZ NOT NULL
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure invite ledger schema: %w", err)
	}
	return l, nil
}

func (l *PostgresLedger) MarkUsed(ctx context.Context, inviteID id.Hash) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO registrar_used_invites (invite_id, used_at) VALUES ($1, $2)
		 ON CONFLICT (invite_id) DO NOTHING`,
		inviteID.Bytes(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark invite used: %w", err)
	}
	return nil
}

func (l *PostgresLedger) IsUsed(ctx context.Context, inviteID id.Hash) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM registrar_used_invites WHERE invite_id = $1)`,
		inviteID.Bytes(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invite used: %w", err)
	}
	return exists, nil
}
