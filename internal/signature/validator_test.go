package signature_test

import (
	"context"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/suite"

	"namegate/internal/signature"
	"namegate/internal/signature/store"

	id "namegate/pkg/domain"
)

type ValidatorSuite struct {
	suite.Suite
	accounts  *store.InMemoryAccountStore
	validator *signature.MultiValidator

	key     *secp256k1.PrivateKey
	keyAddr id.Address
	digest  id.Hash
}

func (s *ValidatorSuite) SetupTest() {
	s.accounts = store.NewMemory()

	v, err := signature.New(s.accounts)
	s.Require().NoError(err)
	s.validator = v

	s.key, err = secp256k1.GeneratePrivateKey()
	s.Require().NoError(err)
	s.keyAddr = signature.AddressOf(s.key.PubKey())
	s.digest = id.Keccak256([]byte("namegate validator test digest"))
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) TestPlainKey() {
	ctx := context.Background()
	sig := signature.SignDigest(s.key, s.digest)

	s.Run("accepts a signature by the claimed signer", func() {
		ok, err := s.validator.IsValid(ctx, s.keyAddr, s.digest, sig)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("rejects a signature claimed for another signer", func() {
		other, err := secp256k1.GeneratePrivateKey()
		s.Require().NoError(err)

		ok, err := s.validator.IsValid(ctx, signature.AddressOf(other.PubKey()), s.digest, sig)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("rejects a signature over a different digest", func() {
		otherDigest := id.Keccak256([]byte("something else"))
		ok, err := s.validator.IsValid(ctx, s.keyAddr, otherDigest, sig)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("rejects malformed signature bytes", func() {
		ok, err := s.validator.IsValid(ctx, s.keyAddr, s.digest, []byte{0x01, 0x02})
		s.Require().NoError(err)
		s.False(ok)

		mangled := append([]byte(nil), sig...)
		mangled[10] ^= 0xff
		ok, err = s.validator.IsValid(ctx, s.keyAddr, s.digest, mangled)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("accepts both recovery id encodings", func() {
		legacy := append([]byte(nil), sig...)
		if legacy[64] >= 27 {
			legacy[64] -= 27
		} else {
			legacy[64] += 27
		}
		ok, err := s.validator.IsValid(ctx, s.keyAddr, s.digest, legacy)
		s.Require().NoError(err)
		s.True(ok)
	})
}

func (s *ValidatorSuite) TestDeployedAccount() {
	ctx := context.Background()
	account, err := id.ParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Register(ctx, account, s.keyAddr))

	sig := signature.SignDigest(s.key, s.digest)

	s.Run("accepts a registered signer key", func() {
		ok, err := s.validator.IsValid(ctx, account, s.digest, sig)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("rejects an unregistered key", func() {
		stranger, err := secp256k1.GeneratePrivateKey()
		s.Require().NoError(err)

		ok, err := s.validator.IsValid(ctx, account, s.digest, signature.SignDigest(stranger, s.digest))
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *ValidatorSuite) TestCounterfactualAccount() {
	ctx := context.Background()
	factory, err := id.ParseAddress("0xfffffffffffffffffffffffffffffffffffffff0")
	s.Require().NoError(err)
	salt := id.Keccak256([]byte("deployment salt"))

	account := signature.DeriveAccount(factory, salt, s.keyAddr)
	inner := signature.SignDigest(s.key, s.digest)
	wrapped := signature.EncodeCounterfactual(inner, factory, salt)

	s.Run("accepts the derived account as signer", func() {
		ok, err := s.validator.IsValid(ctx, account, s.digest, wrapped)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("rejects a mismatched account address", func() {
		other, err := id.ParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
		s.Require().NoError(err)

		ok, err := s.validator.IsValid(ctx, other, s.digest, wrapped)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("rejects a wrapper signed by the wrong owner", func() {
		stranger, err := secp256k1.GeneratePrivateKey()
		s.Require().NoError(err)
		forged := signature.EncodeCounterfactual(signature.SignDigest(stranger, s.digest), factory, salt)

		ok, err := s.validator.IsValid(ctx, account, s.digest, forged)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("derivation is deterministic and salt-sensitive", func() {
		s.Equal(account, signature.DeriveAccount(factory, salt, s.keyAddr))
		otherSalt := id.Keccak256([]byte("different salt"))
		s.NotEqual(account, signature.DeriveAccount(factory, otherSalt, s.keyAddr))
	})
}
