package models

import (
	"encoding/binary"
	"time"

	id "namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

const (
	// CoinTypeDefault is the canonical cross-chain identity coin type; every
	// registration writes a record for it alongside the chain-specific one.
	CoinTypeDefault uint32 = 60

	// MinLabelLength is the availability policy floor: shorter labels always
	// report unavailable, whatever their claim state.
	MinLabelLength = 3
)

// Validation pipeline failures. Registry-surfaced failures (label taken,
// malformed label) pass through unchanged and are not enumerated here.
var (
	ErrSignatureExpired  = dErrors.New(dErrors.CodeExpired, "signature expired")
	ErrInviteAlreadyUsed = dErrors.New(dErrors.CodeConflict, "invite already used")
	ErrInvalidInviter    = dErrors.New(dErrors.CodeUnauthorized, "invalid inviter")
	ErrUnauthorized      = dErrors.New(dErrors.CodeUnauthorized, "unauthorized")
	ErrNotOwner          = dErrors.New(dErrors.CodeForbidden, "caller is not the owner")
)

// InviteToken is the ephemeral capability carried by the consumer. It has no
// server-side existence until consumed; only its identifier is persisted.
type InviteToken struct {
	Label string

	// Recipient is the identity allowed to consume the invite. The zero
	// address is the open wildcard: any caller may consume, and the wildcard
	// value itself becomes the registered owner.
	Recipient id.Address

	// Expiration is an inclusive upper bound, evaluated at consumption time.
	Expiration time.Time

	Issuer    id.Address
	Signature []byte
}

// Open reports whether the invite carries the wildcard recipient.
func (t InviteToken) Open() bool {
	return t.Recipient.IsZero()
}

// Digest computes the signed-message digest for this token against an engine
// identity. See InviteDigest.
func (t InviteToken) Digest(engine id.Address) id.Hash {
	return InviteDigest(engine, t.Label, t.Recipient, t.Expiration)
}

// ID derives the replay identifier for this exact signed token.
func (t InviteToken) ID(engine id.Address) id.Hash {
	return InviteID(t.Digest(engine), t.Signature)
}

const (
	inviteDomain        = "namegate.invite.v1"
	signedMessagePrefix = "\x19Ethereum Signed Message:\n32"
)

// InviteDigest computes the domain-separated digest an issuer signs:
// keccak(domain || engine || keccak(label) || recipient || expiration), then
// wrapped with the standard signed-message prefix so it can never collide
// with a digest meant for raw transaction signing. The engine identity in the
// preimage pins a signature to one deployment.
func InviteDigest(engine id.Address, label string, recipient id.Address, expiration time.Time) id.Hash {
	labelHash := id.Keccak256([]byte(label))
	var exp [8]byte
	binary.BigEndian.PutUint64(exp[:], uint64(expiration.Unix()))

	inner := id.Keccak256([]byte(inviteDomain), engine.Bytes(), labelHash.Bytes(), recipient.Bytes(), exp[:])
	return id.Keccak256([]byte(signedMessagePrefix), inner.Bytes())
}

// InviteID identifies one specific signed invite: the digest plus the exact
// signature bytes, so two different valid signatures over the same digest are
// replay-tracked independently.
func InviteID(digest id.Hash, sig []byte) id.Hash {
	return id.Keccak256(digest.Bytes(), sig)
}

// RegistrationResult reports a successful claim.
type RegistrationResult struct {
	Label string
	Node  id.Node
	Owner id.Address
}
