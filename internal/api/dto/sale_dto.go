package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/sales-tracker/internal/domain"
)

// SaleResponse is the dashboard-facing sale record.
type SaleResponse struct {
	ID              string            `json:"id"`
	ExternalKey     string            `json:"external_key"`
	CloserID        string            `json:"closer_id"`
	CloserName      string            `json:"closer_name"`
	ClientName      string            `json:"client_name"`
	ClientEmail     string            `json:"client_email"`
	ClientPhone     string            `json:"client_phone"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        domain.Currency   `json:"currency"`
	Product         string            `json:"product"`
	Funnel          string            `json:"funnel"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentType     string            `json:"payment_type"`
	Extras          string            `json:"extras"`
	ProofURL        string            `json:"proof_url"`
	ProofType       domain.ProofType  `json:"proof_type"`
	ProofMessageID  string            `json:"proof_message_id"`
	GroupID         string            `json:"group_id"`
	SourceMessageID string            `json:"source_message_id"`
	Status          domain.SaleStatus `json:"status"`
	Verified        bool              `json:"verified"`
	VerifiedAt      *time.Time        `json:"verified_at"`
	VerifiedBy      *string           `json:"verified_by"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// VerifySaleRequest payload.
type VerifySaleRequest struct {
	Verified   *bool  `json:"verified"`
	VerifiedBy string `json:"verified_by"`
}

// BulkVerifyRequest payload.
type BulkVerifyRequest struct {
	SaleIDs    []string `json:"sale_ids"`
	Verified   *bool    `json:"verified"`
	VerifiedBy string   `json:"verified_by"`
}

// CloserResponse is one leaderboard row.
type CloserResponse struct {
	CloserID       string          `json:"closer_id"`
	DisplayName    string          `json:"display_name"`
	TotalSaleCount int64           `json:"total_sales"`
	TotalAmountUSD decimal.Decimal `json:"total_amount_usd"`
	LastSaleAt     time.Time       `json:"last_sale_at"`
}

// ChatMessageResponse is one history entry.
type ChatMessageResponse struct {
	ID              string             `json:"id"`
	MessageID       string             `json:"message_id"`
	SenderID        string             `json:"sender_id"`
	SenderName      string             `json:"sender_name"`
	GroupID         string             `json:"group_id"`
	Kind            domain.MessageKind `json:"kind"`
	Content         string             `json:"content"`
	MediaURL        *string            `json:"media_url,omitempty"`
	MimeType        *string            `json:"mime_type,omitempty"`
	QuotedMessageID *string            `json:"quoted_message_id,omitempty"`
	IsSale          bool               `json:"is_sale"`
	IsProof         bool               `json:"is_proof"`
	SaleID          *string            `json:"sale_id,omitempty"`
	ProofID         *string            `json:"proof_id,omitempty"`
	SentAt          time.Time          `json:"sent_at"`
}

// AuditLogResponse is one audit entry.
type AuditLogResponse struct {
	ID             string             `json:"id"`
	Action         domain.AuditAction `json:"action"`
	EntityType     string             `json:"entity_type"`
	EntityID       string             `json:"entity_id"`
	PreviousStatus domain.SaleStatus  `json:"previous_status"`
	NewStatus      domain.SaleStatus  `json:"new_status"`
	PerformedBy    string             `json:"performed_by"`
	Details        map[string]any     `json:"details"`
	CreatedAt      time.Time          `json:"created_at"`
}
