package handlers

import (
	"log/slog"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ArticleHandler struct {
	articles *services.ArticleService
}

func NewArticleHandler(articles *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

// List serves GET /articles?tag=&author=&favorited=&search=&limit=&offset=.
func (h *ArticleHandler) List(c *fiber.Ctx) error {
	filter := dto.ArticleFilter{
		Limit:     queryInt(c, "limit"),
		Offset:    queryInt(c, "offset"),
		Tag:       c.Query("tag"),
		Author:    c.Query("author"),
		Favorited: c.Query("favorited"),
		Search:    c.Query("search"),
	}
	if filter.Limit == nil {
		limit := defaultPageSize
		filter.Limit = &limit
	} else if *filter.Limit > maxPageSize {
		*filter.Limit = maxPageSize
	}

	resp, err := h.articles.ListArticles(c.UserContext(), principal.Get(c), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *ArticleHandler) Get(c *fiber.Ctx) error {
	slug := c.Params("slug")
	article, err := h.articles.GetArticleBySlug(c.UserContext(), principal.Get(c), slug)
	if err != nil {
		return fail(c, err)
	}

	if err := h.articles.RecordView(c.UserContext(), slug); err != nil {
		slog.Warn("record view failed", "slug", slug, "error", err)
	} else {
		article.ViewCount++
	}
	return c.JSON(dto.ArticleResponse{Article: *article})
}

func (h *ArticleHandler) Create(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	var req dto.CreateArticleRequest
	if !bind(c, &req) {
		return nil
	}

	article, err := h.articles.CreateArticle(c.UserContext(), user, req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ArticleResponse{Article: *article})
}

func (h *ArticleHandler) Update(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	var req dto.UpdateArticleRequest
	if !bind(c, &req) {
		return nil
	}

	article, err := h.articles.UpdateArticle(c.UserContext(), user, c.Params("slug"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ArticleResponse{Article: *article})
}

func (h *ArticleHandler) Delete(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	if err := h.articles.DeleteArticle(c.UserContext(), user, c.Params("slug")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ArticleHandler) Favorite(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	article, err := h.articles.FavoriteArticle(c.UserContext(), user, c.Params("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ArticleResponse{Article: *article})
}

func (h *ArticleHandler) Unfavorite(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	article, err := h.articles.UnfavoriteArticle(c.UserContext(), user, c.Params("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ArticleResponse{Article: *article})
}

func (h *ArticleHandler) Tags(c *fiber.Ctx) error {
	tags, err := h.articles.ListTags(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.TagListResponse{Tags: tags})
}
