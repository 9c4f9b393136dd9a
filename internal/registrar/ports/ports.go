// Package ports declares the collaborator capabilities the authorization
// engine depends on. The engine never mutates registry-owned state directly;
// it only drives these interfaces.
package ports

import (
	"context"

	"namegate/internal/audit"
	"namegate/internal/registry"

	id "namegate/pkg/domain"
)

// Registry is the durable store of claimed names and their records.
type Registry interface {
	RootNode() id.Node
	DeriveNode(parent id.Node, label string) id.Node
	Claim(ctx context.Context, parent id.Node, label string, owner id.Address, extra []registry.AddressRecord) (id.Node, error)
	SetAddressRecord(ctx context.Context, node id.Node, coinType uint32, addr []byte) error
	OwnerOf(ctx context.Context, node id.Node) (id.Address, error)
}

// SignatureValidator reports whether sig authentically binds signer to digest,
// across plain-key and smart-account signature standards.
type SignatureValidator interface {
	IsValid(ctx context.Context, signer id.Address, digest id.Hash, sig []byte) (bool, error)
}

// IssuerStore is the whitelist of identities authorized to sign invites.
// Membership is the only semantic; Add and Remove are idempotent.
type IssuerStore interface {
	Add(ctx context.Context, issuer id.Address) error
	Remove(ctx context.Context, issuer id.Address) error
	IsIssuer(ctx context.Context, issuer id.Address) (bool, error)
}

// InviteLedger is the append-only set of consumed invite identifiers.
// Entries are added, never removed.
type InviteLedger interface {
	MarkUsed(ctx context.Context, inviteID id.Hash) error
	IsUsed(ctx context.Context, inviteID id.Hash) (bool, error)
}

// EventPublisher fans engine notifications out to off-chain observers.
type EventPublisher = audit.Publisher
