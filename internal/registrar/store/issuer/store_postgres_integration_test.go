//go:build integration

package issuer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"namegate/internal/registrar/store/issuer"
	"namegate/pkg/testutil/containers"

	id "namegate/pkg/domain"
)

type PostgresIssuerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *issuer.PostgresStore
}

func TestPostgresIssuerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIssuerSuite))
}

func (s *PostgresIssuerSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	var err error
	s.store, err = issuer.NewPostgres(context.Background(), s.postgres.DB)
	s.Require().NoError(err)
}

func (s *PostgresIssuerSuite) SetupTest() {
	_, err := s.postgres.DB.ExecContext(context.Background(), "TRUNCATE registrar_issuers")
	s.Require().NoError(err)
}

func testAddress(s string) id.Address {
	addr, err := id.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (s *PostgresIssuerSuite) TestMembership() {
	ctx := context.Background()
	addr := testAddress("0x1111111111111111111111111111111111111111")

	ok, err := s.store.IsIssuer(ctx, addr)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Add(ctx, addr))

	ok, err = s.store.IsIssuer(ctx, addr)
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.store.Remove(ctx, addr))

	ok, err = s.store.IsIssuer(ctx, addr)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresIssuerSuite) TestIdempotence() {
	ctx := context.Background()
	addr := testAddress("0x2222222222222222222222222222222222222222")

	s.Require().NoError(s.store.Add(ctx, addr))
	s.Require().NoError(s.store.Add(ctx, addr))
	s.Require().NoError(s.store.Remove(ctx, addr))
	s.Require().NoError(s.store.Remove(ctx, addr))
}

func (s *PostgresIssuerSuite) TestSurvivesReconnect() {
	ctx := context.Background()
	addr := testAddress("0x3333333333333333333333333333333333333333")

	s.Require().NoError(s.store.Add(ctx, addr))

	// A second store over the same database sees the same whitelist.
	other, err := issuer.NewPostgres(ctx, s.postgres.DB)
	s.Require().NoError(err)

	ok, err := other.IsIssuer(ctx, addr)
	s.Require().NoError(err)
	s.True(ok)
}
