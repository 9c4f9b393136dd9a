// Package handler wires the registrar endpoints to the authorization engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"namegate/internal/platform/middleware"
	"namegate/internal/registrar/models"
	"namegate/pkg/platform/httputil"
	"namegate/pkg/requestcontext"

	id "namegate/pkg/domain"
)

// Service defines the interface for registrar operations.
type Service interface {
	RegisterWithInvite(ctx context.Context, token models.InviteToken) (models.RegistrationResult, error)
	Register(ctx context.Context, label string, recipient id.Address) (models.RegistrationResult, error)
	AddIssuer(ctx context.Context, issuer id.Address) error
	RemoveIssuer(ctx context.Context, issuer id.Address) error
	IsIssuer(ctx context.Context, issuer id.Address) (bool, error)
	InviteUsed(ctx context.Context, inviteID id.Hash) (bool, error)
	Available(ctx context.Context, label string) (bool, error)
	TransferOwnership(ctx context.Context, newOwner id.Address) error
	RenounceOwnership(ctx context.Context) error
}

// Handler wires registrar endpoints to the registrar service.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

// New constructs a registrar handler with its dependencies.
func New(service Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts registrar endpoints on the router. Read endpoints are
// public; everything that mutates requires an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/invites/{inviteID}/used", h.HandleInviteUsed)
	r.Get("/v1/issuers/{address}", h.HandleIssuerStatus)
	r.Get("/v1/names/{label}/available", h.HandleAvailability)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/v1/invites/register", h.HandleRegisterWithInvite)
		r.Post("/v1/admin/issuers", h.HandleAddIssuer)
		r.Delete("/v1/admin/issuers/{address}", h.HandleRemoveIssuer)
		r.Post("/v1/admin/register", h.HandleDirectRegister)
		r.Post("/v1/admin/ownership/transfer", h.HandleTransferOwnership)
		r.Delete("/v1/admin/ownership", h.HandleRenounceOwnership)
	})
}

// HandleRegisterWithInvite handles POST /v1/invites/register requests.
func (h *Handler) HandleRegisterWithInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[RegisterWithInviteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	token := req.Token()

	result, err := h.service.RegisterWithInvite(ctx, token)
	if err != nil {
		h.logger.WarnContext(ctx, "invite registration rejected",
			"request_id", requestID,
			"label", token.Label,
			"issuer", token.Issuer.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "invite registration accepted",
		"request_id", requestID,
		"label", result.Label,
		"owner", result.Owner.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusCreated, FromResult(result))
}

// HandleInviteUsed handles GET /v1/invites/{inviteID}/used requests.
func (h *Handler) HandleInviteUsed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inviteID, err := id.ParseHash(chi.URLParam(r, "inviteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	used, err := h.service.InviteUsed(ctx, inviteID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check invite",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, InviteUsedResponse{
		InviteID: inviteID.String(),
		Used:     used,
	})
}

// HandleIssuerStatus handles GET /v1/issuers/{address} requests.
func (h *Handler) HandleIssuerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuer, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	whitelisted, err := h.service.IsIssuer(ctx, issuer)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check issuer",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, IssuerStatusResponse{
		Issuer:      issuer.String(),
		Whitelisted: whitelisted,
	})
}

// HandleAvailability handles GET /v1/names/{label}/available requests.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	label := chi.URLParam(r, "label")

	available, err := h.service.Available(ctx, label)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check availability",
			"request_id", requestcontext.RequestID(ctx),
			"label", label,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, AvailabilityResponse{
		Label:     label,
		Available: available,
	})
}

// HandleAddIssuer handles POST /v1/admin/issuers requests.
func (h *Handler) HandleAddIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AddIssuerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.AddIssuer(ctx, req.ParsedIssuer()); err != nil {
		h.logger.WarnContext(ctx, "failed to add issuer",
			"request_id", requestID,
			"issuer", req.ParsedIssuer().String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveIssuer handles DELETE /v1/admin/issuers/{address} requests.
func (h *Handler) HandleRemoveIssuer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuer, err := id.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.RemoveIssuer(ctx, issuer); err != nil {
		h.logger.WarnContext(ctx, "failed to remove issuer",
			"request_id", requestcontext.RequestID(ctx),
			"issuer", issuer.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDirectRegister handles POST /v1/admin/register requests.
func (h *Handler) HandleDirectRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DirectRegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Register(ctx, req.Label, req.ParsedRecipient())
	if err != nil {
		h.logger.WarnContext(ctx, "direct registration rejected",
			"request_id", requestID,
			"label", req.Label,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromResult(result))
}

// HandleTransferOwnership handles POST /v1/admin/ownership/transfer requests.
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferOwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.TransferOwnership(ctx, req.ParsedNewOwner()); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRenounceOwnership handles DELETE /v1/admin/ownership requests.
func (h *Handler) HandleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.RenounceOwnership(ctx); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
