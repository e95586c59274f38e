package stats

import (
	"log/slog"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	service *StatsService
}

func NewStatsHandler(service *StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) Get(c *fiber.Ctx) error {
	user := principal.Get(c)
	if !user.Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	stats, err := h.service.GetUserStats(c.UserContext(), user.ID)
	if err != nil {
		slog.Error("stats failed", "user_id", user.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load stats",
		})
	}

	return c.JSON(stats)
}
