package handler

import (
	"go-inventory-loans/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetItemStatistics returns item totals for the dashboard
func (h *ReportHandler) GetItemStatistics(c *fiber.Ctx) error {
	stats, err := h.service.GetItemStatistics()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch item statistics"})
	}
	return c.JSON(stats)
}

// GetDashboardSummary returns the combined inventory/loan overview
func (h *ReportHandler) GetDashboardSummary(c *fiber.Ctx) error {
	summary, err := h.service.GetDashboardSummary()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch dashboard summary"})
	}
	return c.JSON(summary)
}

// GetStockMovement returns per-day ledger traffic for charts
// Query params: days (default 7)
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stock movement"})
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}
