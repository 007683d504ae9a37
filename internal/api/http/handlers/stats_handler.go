package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desaconnect/complaint-service/internal/service"
)

// StatsHandler serves the admin dashboard aggregates.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// Get GET /admin/stats.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	stats, err := h.service.ComputeStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
