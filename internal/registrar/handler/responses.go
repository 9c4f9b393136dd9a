package handler

import "namegate/internal/registrar/models"

// RegistrationResponse is the HTTP response body for a successful claim.
type RegistrationResponse struct {
	Label string `json:"label"`
	Node  string `json:"node"`
	Owner string `json:"owner"`
}

// FromResult converts a registration result to its HTTP representation.
func FromResult(result models.RegistrationResult) RegistrationResponse {
	return RegistrationResponse{
		Label: result.Label,
		Node:  result.Node.String(),
		Owner: result.Owner.String(),
	}
}

// InviteUsedResponse is the HTTP response body for GET /v1/invites/{id}/used.
type InviteUsedResponse struct {
	InviteID string `json:"invite_id"`
	Used     bool   `json:"used"`
}

// IssuerStatusResponse is the HTTP response body for GET /v1/issuers/{address}.
type IssuerStatusResponse struct {
	Issuer      string `json:"issuer"`
	Whitelisted bool   `json:"whitelisted"`
}

// AvailabilityResponse is the HTTP response body for GET /v1/names/{label}/available.
type AvailabilityResponse struct {
	Label     string `json:"label"`
	Available bool   `json:"available"`
}
