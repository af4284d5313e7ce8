package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-tracker/internal/api/dto"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// AuditLogsHandler serves the verification audit trail.
type AuditLogsHandler struct {
	audits repository.AuditLogRepository
}

// NewAuditLogsHandler constructs handler.
func NewAuditLogsHandler(audits repository.AuditLogRepository) *AuditLogsHandler {
	return &AuditLogsHandler{audits: audits}
}

// ListAuditLogs GET /audit-logs.
func (h *AuditLogsHandler) ListAuditLogs(c *fiber.Ctx) error {
	entries, err := h.audits.ListRecent(c.UserContext(), parseInt(c.Query("limit"), 100))
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditLogResponse{
			ID:             entry.ID,
			Action:         entry.Action,
			EntityType:     entry.EntityType,
			EntityID:       entry.EntityID,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			PerformedBy:    entry.PerformedBy,
			Details:        entry.Details,
			CreatedAt:      entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
