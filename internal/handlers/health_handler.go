package handlers

import (
	"time"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	plugins int
}

func NewHealthHandler(db *gorm.DB, plugins int) *HealthHandler {
	return &HealthHandler{db: db, plugins: plugins}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(c.UserContext(), h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Plugins:   h.plugins,
	})
}
