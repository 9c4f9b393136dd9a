package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/suite"

	"namegate/internal/audit"
	"namegate/internal/registrar/models"
	"namegate/internal/registrar/ports"
	"namegate/internal/registrar/service"
	"namegate/internal/registrar/store/invite"
	"namegate/internal/registrar/store/issuer"
	"namegate/internal/registry"
	regstore "namegate/internal/registry/store"
	"namegate/internal/signature"
	sigstore "namegate/internal/signature/store"
	"namegate/pkg/requestcontext"

	id "namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

const chainCoinType = 0x80000000 | 8453

type EngineSuite struct {
	suite.Suite

	engineID id.Address
	owner    id.Address

	issuers  *issuer.InMemoryStore
	invites  *invite.InMemoryLedger
	accounts *sigstore.InMemoryAccountStore
	registry *registry.Service
	events   *audit.MemoryPublisher
	svc      *service.Service

	issuerKey  *secp256k1.PrivateKey
	issuerAddr id.Address
	recipient  id.Address
	now        time.Time
}

func (s *EngineSuite) SetupTest() {
	var err error
	s.engineID, err = id.ParseAddress("0xe49135e49135e49135e49135e49135e49135e491")
	s.Require().NoError(err)
	s.owner, err = id.ParseAddress("0x00ff00ff00ff00ff00ff00ff00ff00ff00ff00ff")
	s.Require().NoError(err)
	s.recipient, err = id.ParseAddress("0x1234123412341234123412341234123412341234")
	s.Require().NoError(err)

	s.issuers = issuer.NewMemory()
	s.invites = invite.NewMemory()
	s.accounts = sigstore.NewMemory()
	s.events = audit.NewMemory()

	s.registry, err = registry.New("namegate.eth", regstore.NewMemory())
	s.Require().NoError(err)

	validator, err := signature.New(s.accounts)
	s.Require().NoError(err)

	s.svc, err = service.New(
		s.engineID, s.owner, chainCoinType,
		s.issuers, s.invites, s.registry, validator,
		service.WithEventPublisher(s.events),
	)
	s.Require().NoError(err)

	s.issuerKey, err = secp256k1.GeneratePrivateKey()
	s.Require().NoError(err)
	s.issuerAddr = signature.AddressOf(s.issuerKey.PubKey())
	s.Require().NoError(s.issuers.Add(context.Background(), s.issuerAddr))

	s.now = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// ctxAs builds a request context for caller at the suite's pinned time.
func (s *EngineSuite) ctxAs(caller id.Address) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	if !caller.IsZero() {
		ctx = requestcontext.WithCallerAddress(ctx, caller)
	}
	return ctx
}

// signedInvite signs a token for label/recipient expiring in ttl from the
// suite's pinned time.
func (s *EngineSuite) signedInvite(label string, recipient id.Address, ttl time.Duration) models.InviteToken {
	token := models.InviteToken{
		Label:      label,
		Recipient:  recipient,
		Expiration: s.now.Add(ttl),
		Issuer:     s.issuerAddr,
	}
	token.Signature = signature.SignDigest(s.issuerKey, token.Digest(s.engineID))
	return token
}

func (s *EngineSuite) TestInviteConsumption() {
	token := s.signedInvite("bob", s.recipient, 24*time.Hour)
	ctx := s.ctxAs(s.recipient)

	result, err := s.svc.RegisterWithInvite(ctx, token)
	s.Require().NoError(err)
	s.Equal("bob", result.Label)
	s.Equal(s.recipient, result.Owner)

	owner, err := s.registry.OwnerOf(ctx, result.Node)
	s.Require().NoError(err)
	s.Equal(s.recipient, owner)

	// Address records exist for both the chain-specific and canonical coin types.
	addr, err := s.registry.AddressRecordOf(ctx, result.Node, chainCoinType)
	s.Require().NoError(err)
	s.Equal(s.recipient.Bytes(), addr)
	addr, err = s.registry.AddressRecordOf(ctx, result.Node, models.CoinTypeDefault)
	s.Require().NoError(err)
	s.Equal(s.recipient.Bytes(), addr)

	// Ledger is queryable by anyone.
	used, err := s.svc.InviteUsed(ctx, token.ID(s.engineID))
	s.Require().NoError(err)
	s.True(used)

	// Second identical submission replays.
	_, err = s.svc.RegisterWithInvite(ctx, token)
	s.Require().ErrorIs(err, models.ErrInviteAlreadyUsed)

	// A notification was emitted.
	events := s.events.Events()
	s.Require().NotEmpty(events)
	last := events[len(events)-1]
	s.Equal(audit.ActionNameRegistered, last.Action)
	s.Equal("bob", last.Label)
	s.Equal(s.recipient, last.Subject)
}

func (s *EngineSuite) TestExpiredInvite() {
	token := s.signedInvite("late", s.recipient, -time.Second)

	_, err := s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrSignatureExpired)
	s.True(dErrors.HasCode(err, dErrors.CodeExpired))

	// Expiration is an inclusive bound: a token expiring exactly now passes.
	exact := s.signedInvite("ontime", s.recipient, 0)
	_, err = s.svc.RegisterWithInvite(s.ctxAs(s.recipient), exact)
	s.Require().NoError(err)
}

func (s *EngineSuite) TestExpirationCheckedBeforeSignature() {
	// A garbage signature must still fail with the expiration error: the
	// pipeline short-circuits before any signature work.
	token := models.InviteToken{
		Label:      "whatever",
		Recipient:  s.recipient,
		Expiration: s.now.Add(-time.Hour),
		Issuer:     s.issuerAddr,
		Signature:  []byte("not even a signature"),
	}
	_, err := s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrSignatureExpired)
}

func (s *EngineSuite) TestNonWhitelistedIssuer() {
	strangerKey, err := secp256k1.GeneratePrivateKey()
	s.Require().NoError(err)

	token := models.InviteToken{
		Label:      "intruder",
		Recipient:  s.recipient,
		Expiration: s.now.Add(time.Hour),
		Issuer:     signature.AddressOf(strangerKey.PubKey()),
	}
	// Cryptographically valid signature by the non-whitelisted identity.
	token.Signature = signature.SignDigest(strangerKey, token.Digest(s.engineID))

	_, err = s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrInvalidInviter)

	// Rejection does not consume the token.
	used, err := s.svc.InviteUsed(context.Background(), token.ID(s.engineID))
	s.Require().NoError(err)
	s.False(used)
}

func (s *EngineSuite) TestRevocationInvalidatesSignedTokens() {
	token := s.signedInvite("orphaned", s.recipient, time.Hour)

	s.Require().NoError(s.svc.RemoveIssuer(s.ctxAs(s.owner), s.issuerAddr))

	_, err := s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrInvalidInviter)
}

func (s *EngineSuite) TestForgedSignature() {
	forgerKey, err := secp256k1.GeneratePrivateKey()
	s.Require().NoError(err)

	token := models.InviteToken{
		Label:      "forged",
		Recipient:  s.recipient,
		Expiration: s.now.Add(time.Hour),
		Issuer:     s.issuerAddr,
	}
	token.Signature = signature.SignDigest(forgerKey, token.Digest(s.engineID))

	_, err = s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrUnauthorized)
}

func (s *EngineSuite) TestTamperedToken() {
	// Signature covers (engine, label, recipient, expiration); changing any
	// field after signing must fail.
	token := s.signedInvite("sealed", s.recipient, time.Hour)
	token.Label = "swapped"

	_, err := s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrUnauthorized)
}

func (s *EngineSuite) TestRecipientBinding() {
	stranger, err := id.ParseAddress("0x9999999999999999999999999999999999999999")
	s.Require().NoError(err)

	token := s.signedInvite("bound", s.recipient, time.Hour)

	_, err = s.svc.RegisterWithInvite(s.ctxAs(stranger), token)
	s.Require().ErrorIs(err, models.ErrUnauthorized)

	// The rejection did not burn the token; the right caller may retry it.
	result, err := s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().NoError(err)
	s.Equal(s.recipient, result.Owner)
}

func (s *EngineSuite) TestOpenInvite() {
	stranger, err := id.ParseAddress("0x9999999999999999999999999999999999999999")
	s.Require().NoError(err)

	token := s.signedInvite("communal", id.ZeroAddress, time.Hour)

	// Any caller may consume, and the wildcard value, not the caller,
	// becomes the registered owner.
	result, err := s.svc.RegisterWithInvite(s.ctxAs(stranger), token)
	s.Require().NoError(err)
	s.Equal(id.ZeroAddress, result.Owner)

	owner, err := s.registry.OwnerOf(context.Background(), result.Node)
	s.Require().NoError(err)
	s.Equal(id.ZeroAddress, owner)
}

func (s *EngineSuite) TestSmartAccountIssuers() {
	ctx := context.Background()

	s.Run("deployed account issuer", func() {
		account, err := id.ParseAddress("0xacc0acc0acc0acc0acc0acc0acc0acc0acc0acc0")
		s.Require().NoError(err)
		signerKey, err := secp256k1.GeneratePrivateKey()
		s.Require().NoError(err)
		s.Require().NoError(s.accounts.Register(ctx, account, signature.AddressOf(signerKey.PubKey())))
		s.Require().NoError(s.issuers.Add(ctx, account))

		token := models.InviteToken{
			Label:      "viasafe",
			Recipient:  s.recipient,
			Expiration: s.now.Add(time.Hour),
			Issuer:     account,
		}
		token.Signature = signature.SignDigest(signerKey, token.Digest(s.engineID))

		_, err = s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
		s.Require().NoError(err)
	})

	s.Run("counterfactual account issuer", func() {
		ownerKey, err := secp256k1.GeneratePrivateKey()
		s.Require().NoError(err)
		factory, err := id.ParseAddress("0xfac70fac70fac70fac70fac70fac70fac70fac70")
		s.Require().NoError(err)
		salt := id.Keccak256([]byte("issuer account salt"))
		account := signature.DeriveAccount(factory, salt, signature.AddressOf(ownerKey.PubKey()))
		s.Require().NoError(s.issuers.Add(ctx, account))

		token := models.InviteToken{
			Label:      "viacounterfactual",
			Recipient:  s.recipient,
			Expiration: s.now.Add(time.Hour),
			Issuer:     account,
		}
		inner := signature.SignDigest(ownerKey, token.Digest(s.engineID))
		token.Signature = signature.EncodeCounterfactual(inner, factory, salt)

		_, err = s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
		s.Require().NoError(err)
	})
}

func (s *EngineSuite) TestDistinctSignaturesTrackedIndependently() {
	// Two different valid signatures over the same digest have different
	// invite identifiers; burning one leaves the other consumable.
	token1 := s.signedInvite("twice", s.recipient, time.Hour)
	token2 := token1
	token2.Signature = append([]byte(nil), token1.Signature...)
	// Flip between the two recovery-id encodings: same digest, different bytes.
	if token2.Signature[64] >= 27 {
		token2.Signature[64] -= 27
	} else {
		token2.Signature[64] += 27
	}
	s.NotEqual(token1.ID(s.engineID), token2.ID(s.engineID))

	_, err := s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token1)
	s.Require().NoError(err)

	used, err := s.svc.InviteUsed(context.Background(), token2.ID(s.engineID))
	s.Require().NoError(err)
	s.False(used)

	// The second token still burns on its own id, then fails on the claim:
	// the label is gone.
	_, err = s.svc.RegisterWithInvite(s.ctxAs(s.recipient), token2)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

// reenteringRegistry wraps the real registry and, during Claim, probes the
// engine the way a malicious registry could: by checking whether the invite
// being consumed is already committed to the ledger.
type reenteringRegistry struct {
	ports.Registry
	ledger       ports.InviteLedger
	inviteID     id.Hash
	usedAtClaim  bool
	failClaim    bool
	claimsServed int
}

func (r *reenteringRegistry) Claim(ctx context.Context, parent id.Node, label string, owner id.Address, extra []registry.AddressRecord) (id.Node, error) {
	r.claimsServed++
	r.usedAtClaim, _ = r.ledger.IsUsed(ctx, r.inviteID)
	if r.failClaim {
		return id.Node{}, dErrors.New(dErrors.CodeConflict, "label already claimed")
	}
	return r.Registry.Claim(ctx, parent, label, owner, extra)
}

func (s *EngineSuite) TestCommitPrecedesDelegation() {
	token := s.signedInvite("ordered", s.recipient, time.Hour)
	probe := &reenteringRegistry{
		Registry: s.registry,
		ledger:   s.invites,
		inviteID: token.ID(s.engineID),
	}
	svc, err := service.New(
		s.engineID, s.owner, chainCoinType,
		s.issuers, s.invites, probe, mustValidator(s.T(), s.accounts),
	)
	s.Require().NoError(err)

	_, err = svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().NoError(err)
	s.Require().Equal(1, probe.claimsServed)
	s.True(probe.usedAtClaim, "replay state must be committed before the registry is called")
}

func (s *EngineSuite) TestInviteBurnedWhenRegistryRejects() {
	token := s.signedInvite("contested", s.recipient, time.Hour)
	probe := &reenteringRegistry{
		Registry:  s.registry,
		ledger:    s.invites,
		inviteID:  token.ID(s.engineID),
		failClaim: true,
	}
	svc, err := service.New(
		s.engineID, s.owner, chainCoinType,
		s.issuers, s.invites, probe, mustValidator(s.T(), s.accounts),
	)
	s.Require().NoError(err)

	_, err = svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The registry failure propagated, and the invite stayed burned.
	used, err := svc.InviteUsed(context.Background(), token.ID(s.engineID))
	s.Require().NoError(err)
	s.True(used)

	_, err = svc.RegisterWithInvite(s.ctxAs(s.recipient), token)
	s.Require().ErrorIs(err, models.ErrInviteAlreadyUsed)
}

func (s *EngineSuite) TestIssuerManagement() {
	newIssuer, err := id.ParseAddress("0x5555555555555555555555555555555555555555")
	s.Require().NoError(err)

	s.Run("owner-only", func() {
		err := s.svc.AddIssuer(s.ctxAs(s.recipient), newIssuer)
		s.Require().ErrorIs(err, models.ErrNotOwner)

		err = s.svc.AddIssuer(s.ctxAs(id.ZeroAddress), newIssuer)
		s.Require().ErrorIs(err, models.ErrUnauthorized)
	})

	s.Run("add and remove are idempotent", func() {
		ctx := s.ctxAs(s.owner)
		s.Require().NoError(s.svc.AddIssuer(ctx, newIssuer))
		s.Require().NoError(s.svc.AddIssuer(ctx, newIssuer))
		ok, err := s.svc.IsIssuer(ctx, newIssuer)
		s.Require().NoError(err)
		s.True(ok)

		s.Require().NoError(s.svc.RemoveIssuer(ctx, newIssuer))
		s.Require().NoError(s.svc.RemoveIssuer(ctx, newIssuer))
		ok, err = s.svc.IsIssuer(ctx, newIssuer)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("notifications carry the issuer", func() {
		ctx := s.ctxAs(s.owner)
		s.Require().NoError(s.svc.AddIssuer(ctx, newIssuer))

		events := s.events.Events()
		s.Require().NotEmpty(events)
		last := events[len(events)-1]
		s.Equal(audit.ActionIssuerAdded, last.Action)
		s.Equal(newIssuer, last.Subject)
	})
}

func (s *EngineSuite) TestEmergencyRegister() {
	s.Run("non-owner is rejected", func() {
		_, err := s.svc.Register(s.ctxAs(s.recipient), "direct", s.recipient)
		s.Require().ErrorIs(err, models.ErrNotOwner)
	})

	s.Run("owner claims with full side effects", func() {
		result, err := s.svc.Register(s.ctxAs(s.owner), "direct", s.recipient)
		s.Require().NoError(err)

		owner, err := s.registry.OwnerOf(context.Background(), result.Node)
		s.Require().NoError(err)
		s.Equal(s.recipient, owner)

		addr, err := s.registry.AddressRecordOf(context.Background(), result.Node, models.CoinTypeDefault)
		s.Require().NoError(err)
		s.Equal(s.recipient.Bytes(), addr)
	})

	s.Run("duplicate label is rejected by the registry", func() {
		_, err := s.svc.Register(s.ctxAs(s.owner), "direct", s.recipient)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *EngineSuite) TestAvailability() {
	ctx := s.ctxAs(s.recipient)

	s.Run("short labels are never available", func() {
		for _, label := range []string{"", "a", "ab"} {
			ok, err := s.svc.Available(ctx, label)
			s.Require().NoError(err)
			s.False(ok, "label %q", label)
		}
	})

	s.Run("available until claimed", func() {
		ok, err := s.svc.Available(ctx, "alice")
		s.Require().NoError(err)
		s.True(ok)

		token := s.signedInvite("alice", s.recipient, time.Hour)
		_, err = s.svc.RegisterWithInvite(ctx, token)
		s.Require().NoError(err)

		ok, err = s.svc.Available(ctx, "alice")
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *EngineSuite) TestOwnership() {
	newOwner, err := id.ParseAddress("0x7777777777777777777777777777777777777777")
	s.Require().NoError(err)

	s.Run("transfer moves the capability", func() {
		s.Require().NoError(s.svc.TransferOwnership(s.ctxAs(s.owner), newOwner))
		s.Equal(newOwner, s.svc.Owner())

		err := s.svc.AddIssuer(s.ctxAs(s.owner), newOwner)
		s.Require().ErrorIs(err, models.ErrNotOwner)
		s.Require().NoError(s.svc.AddIssuer(s.ctxAs(newOwner), newOwner))
	})

	s.Run("transfer to the zero address is rejected", func() {
		err := s.svc.TransferOwnership(s.ctxAs(newOwner), id.ZeroAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("renounce closes the owner paths for good", func() {
		s.Require().NoError(s.svc.RenounceOwnership(s.ctxAs(newOwner)))
		s.Equal(id.ZeroAddress, s.svc.Owner())

		err := s.svc.AddIssuer(s.ctxAs(newOwner), newOwner)
		s.Require().ErrorIs(err, models.ErrNotOwner)
	})
}

func mustValidator(t *testing.T, accounts *sigstore.InMemoryAccountStore) *signature.MultiValidator {
	t.Helper()
	v, err := signature.New(accounts)
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}
	return v
}
