package domain

import "time"

// AuditAction enumerates recorded manual actions.
type AuditAction string

const (
	AuditActionVerify AuditAction = "verify"
	AuditActionReject AuditAction = "reject"
)

// AuditLog records a manual verification decision on a sale.
type AuditLog struct {
	ID             string
	Action         AuditAction
	EntityType     string
	EntityID       string
	PreviousStatus SaleStatus
	NewStatus      SaleStatus
	PerformedBy    string
	Details        map[string]any
	CreatedAt      time.Time
}
