package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-tracker/internal/api/dto"
	"github.com/spec-kit/sales-tracker/internal/config"
	"github.com/spec-kit/sales-tracker/internal/domain"
	"github.com/spec-kit/sales-tracker/internal/repository"
	"github.com/spec-kit/sales-tracker/internal/service"
	apperrors "github.com/spec-kit/sales-tracker/pkg/util"
)

// SalesHandler manages dashboard sale endpoints.
type SalesHandler struct {
	service *service.SaleService
	cfg     config.IngestConfig
}

// NewSalesHandler constructs handler.
func NewSalesHandler(saleService *service.SaleService, cfg config.IngestConfig) *SalesHandler {
	return &SalesHandler{service: saleService, cfg: cfg}
}

// ListSales GET /sales.
func (h *SalesHandler) ListSales(c *fiber.Ctx) error {
	filter := parseSaleQuery(c)
	sales, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, saleResponse(&sales[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSale GET /sales/:id.
func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	sale, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": saleResponse(sale)})
}

// VerifySale POST /sales/:id/verify.
func (h *SalesHandler) VerifySale(c *fiber.Ctx) error {
	var req dto.VerifySaleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Verified == nil {
		return apperrors.NewValidationError("verified must be a boolean", nil)
	}
	sale, err := h.service.SetVerification(c.UserContext(), c.Params("id"), *req.Verified, req.VerifiedBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":   "success",
		"sale_id":  sale.ID,
		"verified": sale.Verified,
		"data":     saleResponse(sale),
	})
}

// BulkVerify POST /sales/bulk-verify.
func (h *SalesHandler) BulkVerify(c *fiber.Ctx) error {
	var req dto.BulkVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Verified == nil {
		return apperrors.NewValidationError("verified must be a boolean", nil)
	}
	if len(req.SaleIDs) == 0 {
		return apperrors.NewValidationError("sale_ids required", nil)
	}
	result, err := h.service.SetVerificationBulk(c.UserContext(), req.SaleIDs, *req.Verified, req.VerifiedBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"updated": result.Updated,
		"failed":  result.Failed,
	})
}

// Reprocess POST /reprocess.
func (h *SalesHandler) Reprocess(c *fiber.Ctx) error {
	result, err := h.service.Reprocess(c.UserContext(), h.cfg.ReprocessBatchSize)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": result})
}

func parseSaleQuery(c *fiber.Ctx) repository.SaleFilter {
	filter := repository.SaleFilter{}
	if closer := c.Query("closer_id"); closer != "" {
		filter.CloserID = &closer
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.SaleStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func saleResponse(sale *domain.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:              sale.ID,
		ExternalKey:     sale.ExternalKey,
		CloserID:        sale.CloserID,
		CloserName:      sale.CloserName,
		ClientName:      sale.ClientName,
		ClientEmail:     sale.ClientEmail,
		ClientPhone:     sale.ClientPhone,
		Amount:          sale.Amount,
		Currency:        sale.Currency,
		Product:         sale.Product,
		Funnel:          sale.Funnel,
		PaymentMethod:   sale.PaymentMethod,
		PaymentType:     sale.PaymentType,
		Extras:          sale.Extras,
		ProofURL:        sale.ProofURL,
		ProofType:       sale.ProofType,
		ProofMessageID:  sale.ProofMessageID,
		GroupID:         sale.GroupID,
		SourceMessageID: sale.SourceMessageID,
		Status:          sale.Status,
		Verified:        sale.Verified,
		VerifiedAt:      sale.VerifiedAt,
		VerifiedBy:      sale.VerifiedBy,
		CreatedAt:       sale.CreatedAt,
		UpdatedAt:       sale.UpdatedAt,
	}
}
