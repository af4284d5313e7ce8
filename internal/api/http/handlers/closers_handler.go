package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-tracker/internal/api/dto"
	"github.com/spec-kit/sales-tracker/internal/repository"
)

// ClosersHandler serves the leaderboard.
type ClosersHandler struct {
	closers repository.CloserRepository
}

// NewClosersHandler constructs handler.
func NewClosersHandler(closers repository.CloserRepository) *ClosersHandler {
	return &ClosersHandler{closers: closers}
}

// ListClosers GET /closers.
func (h *ClosersHandler) ListClosers(c *fiber.Ctx) error {
	rollups, err := h.closers.List(c.UserContext(), parseInt(c.Query("limit"), 100))
	if err != nil {
		return err
	}
	items := make([]dto.CloserResponse, 0, len(rollups))
	for _, rollup := range rollups {
		items = append(items, dto.CloserResponse{
			CloserID:       rollup.CloserID,
			DisplayName:    rollup.DisplayName,
			TotalSaleCount: rollup.TotalSaleCount,
			TotalAmountUSD: rollup.TotalAmountUSD,
			LastSaleAt:     rollup.LastSaleAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
