package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSaleRecorded  EventType = "sale_recorded"
	EventProofRecorded EventType = "proof_recorded"
	EventSaleVerified  EventType = "sale_verified"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SaleRecordedPayload payload. Mirrors the outbound "new_sale" webhook body.
type SaleRecordedPayload struct {
	SaleID      string          `json:"sale_id"`
	Client      string          `json:"client"`
	ClientEmail string          `json:"client_email,omitempty"`
	ClientPhone string          `json:"client_phone,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    domain.Currency `json:"currency"`
	Product     string          `json:"product,omitempty"`
	Closer      string          `json:"closer"`
	CloserID    string          `json:"closer_id"`
	ProofURL    string          `json:"proof_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProofRecordedPayload payload.
type ProofRecordedPayload struct {
	ProofID         string           `json:"proof_id"`
	SourceMessageID string           `json:"source_message_id"`
	MediaKind       domain.MediaKind `json:"media_kind"`
	SenderID        string           `json:"sender_id"`
}

// SaleVerifiedPayload payload. Mirrors the outbound "sale_verified" body.
type SaleVerifiedPayload struct {
	SaleID     string            `json:"sale_id"`
	Client     string            `json:"client"`
	Amount     decimal.Decimal   `json:"amount"`
	Currency   domain.Currency   `json:"currency"`
	Closer     string            `json:"closer"`
	CloserID   string            `json:"closer_id"`
	ProofURL   string            `json:"proof_url,omitempty"`
	Verified   bool              `json:"verified"`
	Status     domain.SaleStatus `json:"status"`
	VerifiedAt time.Time         `json:"verified_at"`
	VerifiedBy string            `json:"verified_by"`
}
