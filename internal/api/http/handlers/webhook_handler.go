package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-tracker/internal/api/dto"
	"github.com/spec-kit/sales-tracker/internal/config"
	"github.com/spec-kit/sales-tracker/internal/observability"
	"github.com/spec-kit/sales-tracker/internal/service"
	apperrors "github.com/spec-kit/sales-tracker/pkg/util"
)

// WebhookHandler receives Evolution API gateway deliveries.
type WebhookHandler struct {
	ingest  *service.IngestService
	cfg     config.IngestConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(ingest *service.IngestService, cfg config.IngestConfig, metrics *observability.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{ingest: ingest, cfg: cfg, metrics: metrics, logger: logger}
}

// Receive POST /webhook/evolution.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var payload dto.EvolutionWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	event := strings.ToLower(payload.Event)
	if event != "messages.upsert" && event != "messages_upsert" {
		return c.JSON(fiber.Map{"status": "ignored", "reason": "not a message event"})
	}

	groupID := payload.Data.Key.RemoteJid
	if !strings.HasSuffix(groupID, "@g.us") {
		return c.JSON(fiber.Map{"status": "ignored", "reason": "not from a group"})
	}
	if h.cfg.SalesGroupID != "" && groupID != h.cfg.SalesGroupID {
		return c.JSON(fiber.Map{"status": "ignored", "reason": "not the sales group"})
	}

	msg := NormalizeEvolutionMessage(payload.Data)
	result, err := h.ingest.ProcessMessage(c.UserContext(), msg)
	if err != nil {
		h.logger.Error("message ingestion failed",
			zap.String("message_id", msg.ID), zap.Error(err))
		return err
	}
	h.metrics.RecordIngestOutcome(string(msg.Kind), string(result.Outcome))

	switch result.Outcome {
	case service.OutcomeProofRecorded:
		return c.JSON(fiber.Map{"status": "proof_saved", "message_id": msg.ID})
	case service.OutcomeSaleRecorded:
		sale := result.Sale
		return c.JSON(fiber.Map{
			"status":  "success",
			"sale_id": sale.ID,
			"data": fiber.Map{
				"client":   sale.ClientName,
				"amount":   sale.Amount,
				"currency": sale.Currency,
				"product":  sale.Product,
				"proof":    proofAttachment(sale.ProofURL),
			},
		})
	case service.OutcomeDuplicate:
		return c.JSON(fiber.Map{"status": "ignored", "reason": "duplicate delivery"})
	default:
		return c.JSON(fiber.Map{"status": "ignored", "reason": "not a sale report"})
	}
}

// Status GET /webhook/evolution reports webhook configuration.
func (h *WebhookHandler) Status(c *fiber.Ctx) error {
	groupFilter := "NOT CONFIGURED"
	if h.cfg.SalesGroupID != "" {
		groupFilter = "configured"
	}
	return c.JSON(fiber.Map{
		"status":          "ok",
		"message":         "Sales Tracker Webhook Active",
		"sales_group_jid": groupFilter,
	})
}

func proofAttachment(url string) string {
	if url == "" {
		return "none"
	}
	return "attached"
}
