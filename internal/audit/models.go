package audit

import (
	"time"

	id "namegate/pkg/domain"
)

// Action names the engine notifications consumed by off-chain observers.
type Action string

const (
	ActionIssuerAdded          Action = "issuer_added"
	ActionIssuerRemoved        Action = "issuer_removed"
	ActionNameRegistered       Action = "name_registered"
	ActionOwnershipTransferred Action = "ownership_transferred"
	ActionOwnershipRenounced   Action = "ownership_renounced"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	ID        string     `json:"id"`
	Action    Action     `json:"action"`
	Timestamp time.Time  `json:"timestamp"`
	Label     string     `json:"label,omitempty"`
	Node      string     `json:"node,omitempty"`
	Subject   id.Address `json:"-"`
	Actor     id.Address `json:"-"`

	// Wire representations of the address fields.
	SubjectHex string `json:"subject,omitempty"`
	ActorHex   string `json:"actor,omitempty"`

	// Request correlation and client device, from middleware context.
	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
}
