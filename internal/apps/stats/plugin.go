package stats

import (
	"github.com/blogium/blogium-api/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StatsPlugin struct{}

func New() *StatsPlugin {
	return &StatsPlugin{}
}

func (p *StatsPlugin) ID() string { return "stats" }

// Models is empty: stats are computed from the core tables.
func (p *StatsPlugin) Models() []interface{} {
	return nil
}

func (p *StatsPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewStatsService(db)
	handler := NewStatsHandler(svc)

	router.Get("/stats", handler.Get)
}
