// Package service implements the invite authorization engine: the issuer
// whitelist, the replay ledger, the invite validation pipeline, and the
// ordered orchestration that turns a valid invite into a claimed name.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"namegate/internal/audit"
	"namegate/internal/registrar/metrics"
	"namegate/internal/registrar/models"
	"namegate/internal/registrar/ports"
	"namegate/pkg/requestcontext"

	id "namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// Type aliases for shared interfaces.
type (
	IssuerStore        = ports.IssuerStore
	InviteLedger       = ports.InviteLedger
	Registry           = ports.Registry
	SignatureValidator = ports.SignatureValidator
	EventPublisher     = ports.EventPublisher
)

// Service owns the whitelist and the replay ledger. Both sets are reachable
// only through the service; there is no ambient state.
type Service struct {
	// engineID is this deployment's identity, mixed into every invite digest.
	engineID      id.Address
	chainCoinType uint32

	// mu guards owner. Ownership is a single-identity capability with
	// transfer/renounce semantics; renouncing sets the zero address and
	// permanently closes the owner-only paths.
	mu    sync.RWMutex
	owner id.Address

	issuers   IssuerStore
	invites   InviteLedger
	registry  Registry
	validator SignatureValidator
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(
	engineID, owner id.Address,
	chainCoinType uint32,
	issuers IssuerStore,
	invites InviteLedger,
	registry Registry,
	validator SignatureValidator,
	opts ...Option,
) (*Service, error) {
	if issuers == nil {
		return nil, fmt.Errorf("issuer store is required")
	}
	if invites == nil {
		return nil, fmt.Errorf("invite ledger is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if validator == nil {
		return nil, fmt.Errorf("signature validator is required")
	}

	svc := &Service{
		engineID:      engineID,
		chainCoinType: chainCoinType,
		owner:         owner,
		issuers:       issuers,
		invites:       invites,
		registry:      registry,
		validator:     validator,
		tracer:        otel.Tracer("registrar"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc, nil
}

// EngineID returns the identity invite digests are bound to.
func (s *Service) EngineID() id.Address {
	return s.engineID
}

// Owner returns the current owner; the zero address after renouncement.
func (s *Service) Owner() id.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// requireOwner gates owner-only operations against the authenticated caller.
func (s *Service) requireOwner(ctx context.Context) (id.Address, error) {
	caller := requestcontext.CallerAddress(ctx)
	if caller.IsZero() {
		return id.Address{}, models.ErrUnauthorized
	}
	owner := s.Owner()
	if owner.IsZero() || caller != owner {
		return id.Address{}, models.ErrNotOwner
	}
	return caller, nil
}

// AddIssuer whitelists an identity to sign invites. Owner-only, idempotent.
func (s *Service) AddIssuer(ctx context.Context, issuer id.Address) error {
	actor, err := s.requireOwner(ctx)
	if err != nil {
		return err
	}
	if issuer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "issuer address is required")
	}

	if err := s.issuers.Add(ctx, issuer); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add issuer")
	}

	s.logger.InfoContext(ctx, "issuer added", "issuer", issuer.String())
	s.emit(ctx, audit.Event{Action: audit.ActionIssuerAdded, Subject: issuer, Actor: actor})
	return nil
}

// RemoveIssuer revokes an issuer. Owner-only, idempotent. Tokens already
// signed by the issuer become permanently unusable: whitelist membership is
// evaluated at consumption time, not issuance time.
func (s *Service) RemoveIssuer(ctx context.Context, issuer id.Address) error {
	actor, err := s.requireOwner(ctx)
	if err != nil {
		return err
	}

	if err := s.issuers.Remove(ctx, issuer); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove issuer")
	}

	s.logger.InfoContext(ctx, "issuer removed", "issuer", issuer.String())
	s.emit(ctx, audit.Event{Action: audit.ActionIssuerRemoved, Subject: issuer, Actor: actor})
	return nil
}

// IsIssuer reports current whitelist membership. Public, for client-side
// pre-validation before submitting a consumption request.
func (s *Service) IsIssuer(ctx context.Context, issuer id.Address) (bool, error) {
	ok, err := s.issuers.IsIssuer(ctx, issuer)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer")
	}
	return ok, nil
}

// InviteUsed reports whether an invite identifier has been consumed. Public,
// for client-side pre-validation.
func (s *Service) InviteUsed(ctx context.Context, inviteID id.Hash) (bool, error) {
	used, err := s.invites.IsUsed(ctx, inviteID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check invite")
	}
	return used, nil
}

// RegisterWithInvite validates and consumes an invite token, then claims the
// name for the token's recipient.
//
// The pipeline order is a correctness contract, not an implementation detail:
// the replay-ledger commit strictly precedes the registry delegation, so a
// failing or re-entering registry call can never replay the same invite. A
// consequence callers must know: an invite that passes validation is burned
// even if the registry then rejects the claim (for example the label was
// taken moments earlier); it cannot be resubmitted.
func (s *Service) RegisterWithInvite(ctx context.Context, token models.InviteToken) (models.RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "registrar.RegisterWithInvite",
		trace.WithAttributes(
			attribute.String("label", token.Label),
			attribute.String("issuer", token.Issuer.String()),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObservePipeline(time.Since(start).Seconds())
	}()

	// 1. Expiration, against the environment clock, inclusive bound.
	now := requestcontext.Now(ctx)
	if now.After(token.Expiration) {
		s.metrics.RecordRejection("signature_expired")
		return models.RegistrationResult{}, models.ErrSignatureExpired
	}

	// 2-3. Digest and replay identifier.
	digest := token.Digest(s.engineID)
	inviteID := models.InviteID(digest, token.Signature)

	// 4. Replay check.
	used, err := s.invites.IsUsed(ctx, inviteID)
	if err != nil {
		return models.RegistrationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check invite")
	}
	if used {
		s.metrics.RecordRejection("invite_already_used")
		return models.RegistrationResult{}, models.ErrInviteAlreadyUsed
	}

	// 5. Whitelist membership, evaluated now, not at issuance.
	isIssuer, err := s.issuers.IsIssuer(ctx, token.Issuer)
	if err != nil {
		return models.RegistrationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check issuer")
	}
	if !isIssuer {
		s.metrics.RecordRejection("invalid_inviter")
		return models.RegistrationResult{}, models.ErrInvalidInviter
	}

	// 6. Signature.
	valid, err := s.validator.IsValid(ctx, token.Issuer, digest, token.Signature)
	if err != nil {
		return models.RegistrationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to validate signature")
	}
	if !valid {
		s.metrics.RecordRejection("bad_signature")
		return models.RegistrationResult{}, models.ErrUnauthorized
	}

	// 7. Recipient binding. Open invites skip the gate; the wildcard value
	// itself becomes the owner below, not the caller.
	if !token.Open() {
		if requestcontext.CallerAddress(ctx) != token.Recipient {
			s.metrics.RecordRejection("wrong_recipient")
			return models.RegistrationResult{}, models.ErrUnauthorized
		}
	}

	// 8. Commit replay state. Must precede every registry call: the registry
	// is the only point where control could re-enter the engine, and by then
	// the invite is already spent.
	if err := s.invites.MarkUsed(ctx, inviteID); err != nil {
		return models.RegistrationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark invite used")
	}

	// 9-11. Registry orchestration; failures propagate, the invite stays burned.
	result, err := s.claimAndRecord(ctx, token.Label, token.Recipient, "invite")
	if err != nil {
		span.RecordError(err)
		return models.RegistrationResult{}, err
	}
	return result, nil
}

// Register is the owner-only emergency path: same orchestration as a
// successful invite consumption, with no invite bookkeeping.
func (s *Service) Register(ctx context.Context, label string, recipient id.Address) (models.RegistrationResult, error) {
	ctx, span := s.tracer.Start(ctx, "registrar.Register",
		trace.WithAttributes(attribute.String("label", label)))
	defer span.End()

	if _, err := s.requireOwner(ctx); err != nil {
		return models.RegistrationResult{}, err
	}

	result, err := s.claimAndRecord(ctx, label, recipient, "direct")
	if err != nil {
		span.RecordError(err)
		return models.RegistrationResult{}, err
	}
	return result, nil
}

// claimAndRecord derives the node, claims it for the recipient, and writes
// the chain-specific and canonical address records.
func (s *Service) claimAndRecord(ctx context.Context, label string, recipient id.Address, method string) (models.RegistrationResult, error) {
	root := s.registry.RootNode()
	node, err := s.registry.Claim(ctx, root, label, recipient, nil)
	if err != nil {
		return models.RegistrationResult{}, err
	}

	// The node exists now; records may reference it.
	if err := s.registry.SetAddressRecord(ctx, node, s.chainCoinType, recipient.Bytes()); err != nil {
		return models.RegistrationResult{}, err
	}
	if err := s.registry.SetAddressRecord(ctx, node, models.CoinTypeDefault, recipient.Bytes()); err != nil {
		return models.RegistrationResult{}, err
	}

	s.metrics.RecordRegistration(method)
	s.logger.InfoContext(ctx, "name registered",
		"label", label,
		"node", node.String(),
		"owner", recipient.String(),
		"method", method,
	)
	s.emit(ctx, audit.Event{
		Action:  audit.ActionNameRegistered,
		Label:   label,
		Node:    node.String(),
		Subject: recipient,
		Actor:   requestcontext.CallerAddress(ctx),
	})

	return models.RegistrationResult{Label: label, Node: node, Owner: recipient}, nil
}

// Available reports whether a label can still be claimed. Read-only: labels
// below the minimum length are unavailable regardless of claim state, claimed
// labels are unavailable, everything else is available.
func (s *Service) Available(ctx context.Context, label string) (bool, error) {
	if len(label) < models.MinLabelLength {
		return false, nil
	}

	node := s.registry.DeriveNode(s.registry.RootNode(), label)
	_, err := s.registry.OwnerOf(ctx, node)
	if err == nil {
		return false, nil
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return true, nil
	}
	return false, err
}

// TransferOwnership hands the owner capability to a new identity. Owner-only.
func (s *Service) TransferOwnership(ctx context.Context, newOwner id.Address) error {
	actor, err := s.requireOwner(ctx)
	if err != nil {
		return err
	}
	if newOwner.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new owner is required; use renounce to give up ownership")
	}

	s.mu.Lock()
	s.owner = newOwner
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ownership transferred", "new_owner", newOwner.String())
	s.emit(ctx, audit.Event{Action: audit.ActionOwnershipTransferred, Subject: newOwner, Actor: actor})
	return nil
}

// RenounceOwnership permanently gives up the owner capability.
func (s *Service) RenounceOwnership(ctx context.Context) error {
	actor, err := s.requireOwner(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.owner = id.ZeroAddress
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "ownership renounced")
	s.emit(ctx, audit.Event{Action: audit.ActionOwnershipRenounced, Actor: actor})
	return nil
}

// emit publishes a notification. The mutation it describes is already
// durable, so a publish failure is logged rather than propagated.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			"action", event.Action,
			"error", err,
		)
	}
}
