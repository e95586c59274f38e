package mediumimport

import (
	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type MediumImportPlugin struct {
	articles *services.ArticleService
	store    CodeStore
	feeds    *FeedSource
}

func New(articles *services.ArticleService, store CodeStore, feeds *FeedSource) *MediumImportPlugin {
	return &MediumImportPlugin{articles: articles, store: store, feeds: feeds}
}

func (p *MediumImportPlugin) ID() string { return "medium_import" }

// Models is empty: pending codes live in Redis or on the user row.
func (p *MediumImportPlugin) Models() []interface{} {
	return nil
}

func (p *MediumImportPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	store := p.store
	if store == nil {
		store = NewUserColumnCodeStore(db)
	}
	feeds := p.feeds
	if feeds == nil {
		feeds = NewFeedSource(cfg.MediumFeedURL, nil)
	}

	svc := NewImportService(db, p.articles, store, feeds)
	handler := NewImportHandler(svc)

	router.Post("/import/medium/generate-code", handler.GenerateCode)
	router.Post("/import/medium/verify", handler.Verify)
	router.Post("/import/medium/import", handler.Import)
}
