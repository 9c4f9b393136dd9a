package handler

import (
	"encoding/hex"
	"strings"
	"time"

	"namegate/internal/registrar/models"

	id "namegate/pkg/domain"
	dErrors "namegate/pkg/domain-errors"
)

// RegisterWithInviteRequest is the HTTP request body for POST /v1/invites/register.
type RegisterWithInviteRequest struct {
	Label string `json:"label"`

	// Recipient may be omitted or set to the zero address for an open invite.
	Recipient string `json:"recipient,omitempty"`

	// Expiration is a unix timestamp in seconds.
	Expiration int64  `json:"expiration"`
	Issuer     string `json:"issuer"`
	Signature  string `json:"signature"`

	// Parsed values (populated by Validate)
	parsedRecipient id.Address
	parsedIssuer    id.Address
	parsedSignature []byte
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RegisterWithInviteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	r.Label = strings.TrimSpace(r.Label)
	if r.Label == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "label is required")
	}
	if r.Expiration <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "expiration is required")
	}

	r.Recipient = strings.TrimSpace(r.Recipient)
	if r.Recipient != "" {
		recipient, err := id.ParseAddress(r.Recipient)
		if err != nil {
			return err
		}
		r.parsedRecipient = recipient
	}

	issuer, err := id.ParseAddress(strings.TrimSpace(r.Issuer))
	if err != nil {
		return err
	}
	r.parsedIssuer = issuer

	sig, err := parseHexBytes(r.Signature)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "signature must be hex encoded")
	}
	if len(sig) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "signature is required")
	}
	r.parsedSignature = sig

	return nil
}

// Token returns the validated invite token.
func (r *RegisterWithInviteRequest) Token() models.InviteToken {
	return models.InviteToken{
		Label:      r.Label,
		Recipient:  r.parsedRecipient,
		Expiration: time.Unix(r.Expiration, 0).UTC(),
		Issuer:     r.parsedIssuer,
		Signature:  r.parsedSignature,
	}
}

// AddIssuerRequest is the HTTP request body for POST /v1/admin/issuers.
type AddIssuerRequest struct {
	Issuer string `json:"issuer"`

	parsedIssuer id.Address
}

func (r *AddIssuerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	issuer, err := id.ParseAddress(strings.TrimSpace(r.Issuer))
	if err != nil {
		return err
	}
	r.parsedIssuer = issuer
	return nil
}

// ParsedIssuer returns the validated issuer address.
func (r *AddIssuerRequest) ParsedIssuer() id.Address {
	return r.parsedIssuer
}

// DirectRegisterRequest is the HTTP request body for POST /v1/admin/register.
type DirectRegisterRequest struct {
	Label     string `json:"label"`
	Recipient string `json:"recipient"`

	parsedRecipient id.Address
}

func (r *DirectRegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	r.Label = strings.TrimSpace(r.Label)
	if r.Label == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "label is required")
	}
	recipient, err := id.ParseAddress(strings.TrimSpace(r.Recipient))
	if err != nil {
		return err
	}
	r.parsedRecipient = recipient
	return nil
}

// ParsedRecipient returns the validated recipient address.
func (r *DirectRegisterRequest) ParsedRecipient() id.Address {
	return r.parsedRecipient
}

// TransferOwnershipRequest is the HTTP request body for POST /v1/admin/ownership/transfer.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`

	parsedNewOwner id.Address
}

func (r *TransferOwnershipRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	newOwner, err := id.ParseAddress(strings.TrimSpace(r.NewOwner))
	if err != nil {
		return err
	}
	r.parsedNewOwner = newOwner
	return nil
}

// ParsedNewOwner returns the validated new owner address.
func (r *TransferOwnershipRequest) ParsedNewOwner() id.Address {
	return r.parsedNewOwner
}

func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	return hex.DecodeString(s)
}
