package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"namegate/internal/registry"
	"namegate/pkg/platform/sentinel"

	id "namegate/pkg/domain"
)

// PostgresStore persists claims and address records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store and ensures its
// schema exists.
func NewPostgres(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS registry_claims (
	node       BYTEA PRIMARY KEY,
	parent     BYTEA NOT NULL,
	label      TEXT NOT NULL,
	owner_addr BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS registry_address_records (
	node      BYTEA NOT NULL,
	coin_type BIGINT NOT NULL,
	addr      BYTEA NOT NULL,
	PRIMARY KEY (node, coin_type)
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure registry schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveClaim(ctx context.Context, claim registry.Claim) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_claims (node, parent, label, owner_addr, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		claim.Node.Bytes(), claim.Parent.Bytes(), claim.Label, claim.Owner.Bytes(), claim.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClaim(ctx context.Context, node id.Node) (registry.Claim, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT node, parent, label, owner_addr, created_at FROM registry_claims WHERE node = $1`,
		node.Bytes(),
	)

	var claim registry.Claim
	var nodeB, parentB, ownerB []byte
	err := row.Scan(&nodeB, &parentB, &claim.Label, &ownerB, &claim.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Claim{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	copy(claim.Node[:], nodeB)
	copy(claim.Parent[:], parentB)
	copy(claim.Owner[:], ownerB)
	return claim, nil
}

func (s *PostgresStore) SaveAddressRecord(ctx context.Context, node id.Node, rec registry.AddressRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_address_records (node, coin_type, addr)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (node, coin_type) DO UPDATE SET addr = EXCLUDED.addr`,
		node.Bytes(), int64(rec.CoinType), rec.Addr,
	)
	if err != nil {
		return fmt.Errorf("save address record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAddressRecord(ctx context.Context, node id.Node, coinType uint32) (registry.AddressRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT coin_type, addr FROM registry_address_records WHERE node = $1 AND coin_type = $2`,
		node.Bytes(), int64(coinType),
	)

	var rec registry.AddressRecord
	var ct int64
	err := row.Scan(&ct, &rec.Addr)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.AddressRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return registry.AddressRecord{}, fmt.Errorf("get address record: %w", err)
	}
	rec.CoinType = uint32(ct)
	return rec, nil
}
