// Package registry is the durable store of claimed names and their records.
// It is the sole mutator of claim and ownership state; the authorization
// engine drives it only through Claim, SetAddressRecord, and OwnerOf.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"namegate/pkg/platform/sentinel"
	"namegate/pkg/requestcontext"

	id "namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// Store persists claims and address records. Implementations live in
// internal/registry/store and return sentinel errors for missing entities.
type Store interface {
	SaveClaim(ctx context.Context, claim Claim) error
	GetClaim(ctx context.Context, node id.Node) (Claim, error)
	SaveAddressRecord(ctx context.Context, node id.Node, rec AddressRecord) error
	GetAddressRecord(ctx context.Context, node id.Node, coinType uint32) (AddressRecord, error)
}

type Service struct {
	root   id.Node
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New builds a registry anchored at the node of rootName.
func New(rootName string, st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("registry store is required")
	}
	svc := &Service{
		root:  id.Namehash(rootName),
		store: st,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// RootNode returns the node under which all labels are claimed.
func (s *Service) RootNode() id.Node {
	return s.root
}

// DeriveNode computes the child node for a label under parent.
func (s *Service) DeriveNode(parent id.Node, label string) id.Node {
	labelHash := id.Keccak256([]byte(label))
	return id.Keccak256(parent[:], labelHash[:])
}

// Claim registers label under parent for owner, optionally writing extra
// address records in the same operation. Fails if the node is already claimed.
func (s *Service) Claim(ctx context.Context, parent id.Node, label string, owner id.Address, extra []AddressRecord) (id.Node, error) {
	if err := validateLabel(label); err != nil {
		return id.Node{}, err
	}

	node := s.DeriveNode(parent, label)
	if _, err := s.store.GetClaim(ctx, node); err == nil {
		return id.Node{}, dErrors.Wrap(sentinel.ErrConflict, dErrors.CodeConflict, "label already claimed")
	}

	claim := Claim{
		Node:      node,
		Parent:    parent,
		Label:     label,
		Owner:     owner,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.SaveClaim(ctx, claim); err != nil {
		return id.Node{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save claim")
	}
	for _, rec := range extra {
		if err := s.store.SaveAddressRecord(ctx, node, rec); err != nil {
			return id.Node{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save address record")
		}
	}

	s.logger.InfoContext(ctx, "node claimed",
		"label", label,
		"node", node.String(),
		"owner", owner.String(),
	)
	return node, nil
}

// SetAddressRecord writes a coin-type-scoped address for an existing node.
// The node must be claimed before records can reference it.
func (s *Service) SetAddressRecord(ctx context.Context, node id.Node, coinType uint32, addr []byte) error {
	if _, err := s.store.GetClaim(ctx, node); err != nil {
		return dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "node is unclaimed")
	}
	if err := s.store.SaveAddressRecord(ctx, node, AddressRecord{CoinType: coinType, Addr: addr}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save address record")
	}
	return nil
}

// OwnerOf returns the owner of a claimed node, failing if unclaimed.
func (s *Service) OwnerOf(ctx context.Context, node id.Node) (id.Address, error) {
	claim, err := s.store.GetClaim(ctx, node)
	if err != nil {
		return id.Address{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "node is unclaimed")
	}
	return claim.Owner, nil
}

// AddressRecordOf reads a previously written address record.
func (s *Service) AddressRecordOf(ctx context.Context, node id.Node, coinType uint32) ([]byte, error) {
	rec, err := s.store.GetAddressRecord(ctx, node, coinType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "address record not found")
	}
	return rec.Addr, nil
}

// validateLabel enforces registry-side label well-formedness: lower-case
// letters, digits, and interior hyphens. Length policy lives with the caller.
func validateLabel(label string) error {
	if label == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "label is required")
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' && i != 0 && i != len(label)-1:
		default:
			return dErrors.New(dErrors.CodeInvalidInput, "label contains invalid characters")
		}
	}
	return nil
}
