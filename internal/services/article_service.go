package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	fallbackSlug     = "article"
	slugSuffixLength = 8
	maxSlugAttempts  = 5
)

// articleColumns is the flat projection shared by list and detail reads.
const articleColumns = `articles.id, articles.slug, articles.title, articles.description, articles.body,
	articles.image, articles.read_time, articles.view_count, articles.author_id,
	articles.created_at, articles.updated_at,
	users.username AS author_username, users.bio AS author_bio, users.image AS author_image,
	(SELECT COUNT(*) FROM article_favorites WHERE article_favorites.article_id = articles.id) AS favorites_count`

type articleRow struct {
	ID             uint
	Slug           string
	Title          string
	Description    string
	Body           string
	Image          *string
	ReadTime       int
	ViewCount      int
	AuthorID       uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AuthorUsername string
	AuthorBio      *string
	AuthorImage    *string
	FavoritesCount int64
}

type ArticleService struct {
	db            *gorm.DB
	notifications *NotificationService
	events        *events.Dispatcher
	slugSuffix    func() string
}

func NewArticleService(db *gorm.DB, notifications *NotificationService, dispatcher *events.Dispatcher) *ArticleService {
	return &ArticleService{
		db:            db,
		notifications: notifications,
		events:        dispatcher,
		slugSuffix: func() string {
			return uuid.NewString()[:slugSuffixLength]
		},
	}
}

// filtered builds the predicate part of a list query. Each call returns a
// fresh statement so the count and page queries do not share state.
func (s *ArticleService) filtered(ctx context.Context, f dto.ArticleFilter) *gorm.DB {
	q := s.db.WithContext(ctx).
		Table("articles").
		Joins("JOIN users ON users.id = articles.author_id")

	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM article_tags JOIN tags ON tags.id = article_tags.tag_id
			WHERE article_tags.article_id = articles.id AND tags.name = ?)`, tag)
	}
	if author := strings.TrimSpace(f.Author); author != "" {
		q = q.Where("users.username = ?", author)
	}
	if fav := strings.TrimSpace(f.Favorited); fav != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM article_favorites JOIN users fans ON fans.id = article_favorites.user_id
			WHERE article_favorites.article_id = articles.id AND fans.username = ?)`, fav)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where(`(LOWER(articles.title) LIKE ? ESCAPE '\' OR LOWER(articles.description) LIKE ? ESCAPE '\'
			OR LOWER(articles.body) LIKE ? ESCAPE '\' OR LOWER(users.username) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern)
	}
	return q
}

// ListArticles returns one page of articles matching every filter, newest
// first, with the total count of matches before pagination.
func (s *ArticleService) ListArticles(ctx context.Context, viewer principal.Principal, filter dto.ArticleFilter) (*dto.ArticleListResponse, error) {
	var total int64
	if err := s.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	resp := &dto.ArticleListResponse{Articles: []dto.ArticleView{}, ArticlesCount: total}
	if total == 0 {
		return resp, nil
	}

	var rows []articleRow
	err := s.filtered(ctx, filter).
		Select(articleColumns).
		Scopes(database.Newest("articles"), database.Paginate(filter.Limit, filter.Offset)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	views, err := s.assemble(ctx, viewer, rows)
	if err != nil {
		return nil, err
	}
	resp.Articles = views
	return resp, nil
}

func (s *ArticleService) GetArticleBySlug(ctx context.Context, viewer principal.Principal, slug string) (*dto.ArticleView, error) {
	var rows []articleRow
	err := s.db.WithContext(ctx).
		Table("articles").
		Joins("JOIN users ON users.id = articles.author_id").
		Select(articleColumns).
		Where("articles.slug = ?", slug).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrArticleNotFound
	}

	views, err := s.assemble(ctx, viewer, rows)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// assemble attaches tags and, for an authenticated viewer, the favorited
// and following flags. Each enrichment is one batched query.
func (s *ArticleService) assemble(ctx context.Context, viewer principal.Principal, rows []articleRow) ([]dto.ArticleView, error) {
	articleIDs := make([]uint, len(rows))
	authorIDs := make([]uint, len(rows))
	for i, r := range rows {
		articleIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	tags, err := s.tagsFor(ctx, articleIDs)
	if err != nil {
		return nil, err
	}

	var favorited, following map[uint]bool
	if viewer.Authenticated() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			favorited, err = favoritedSet(gctx, s.db, viewer.ID, articleIDs)
			return err
		})
		g.Go(func() error {
			var err error
			following, err = followingSet(gctx, s.db, viewer.ID, distinct(authorIDs))
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to personalize articles: %w", err)
		}
	}

	views := make([]dto.ArticleView, len(rows))
	for i, r := range rows {
		tagList := tags[r.ID]
		if tagList == nil {
			tagList = []string{}
		}
		views[i] = dto.ArticleView{
			Slug:           r.Slug,
			Title:          r.Title,
			Description:    r.Description,
			Body:           r.Body,
			Image:          r.Image,
			ReadTime:       r.ReadTime,
			ViewCount:      r.ViewCount,
			TagList:        tagList,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
			Favorited:      favorited[r.ID],
			FavoritesCount: r.FavoritesCount,
			Author: dto.AuthorView{
				ID:        r.AuthorID,
				Username:  r.AuthorUsername,
				Bio:       r.AuthorBio,
				Image:     r.AuthorImage,
				Following: following[r.AuthorID],
			},
		}
	}
	return views, nil
}

func (s *ArticleService) tagsFor(ctx context.Context, articleIDs []uint) (map[uint][]string, error) {
	out := make(map[uint][]string, len(articleIDs))
	if len(articleIDs) == 0 {
		return out, nil
	}

	var pairs []struct {
		ArticleID uint
		Name      string
	}
	err := s.db.WithContext(ctx).
		Table("article_tags").
		Select("article_tags.article_id, tags.name").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("article_tags.article_id IN ?", articleIDs).
		Order("tags.name").
		Scan(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	for _, p := range pairs {
		out[p.ArticleID] = append(out[p.ArticleID], p.Name)
	}
	return out, nil
}

func (s *ArticleService) ListTags(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return names, nil
}

// RecordView bumps the view counter without touching updated_at.
func (s *ArticleService) RecordView(ctx context.Context, slug string) error {
	return s.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("slug = ?", slug).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (s *ArticleService) CreateArticle(ctx context.Context, author principal.Principal, req dto.CreateArticleRequest) (*dto.ArticleView, error) {
	var slug string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		slug, err = s.uniqueSlug(tx, req.Title, 0)
		if err != nil {
			return err
		}

		article := models.Article{
			Slug:        slug,
			Title:       strings.TrimSpace(req.Title),
			Description: strings.TrimSpace(req.Description),
			Body:        req.Body,
			Image:       emptyToNil(req.Image),
			ReadTime:    ReadTime(req.Body),
			IsPublished: true,
			AuthorID:    author.ID,
		}
		if err := tx.Create(&article).Error; err != nil {
			return fmt.Errorf("failed to create article: %w", err)
		}
		return syncTags(tx, article.ID, req.TagList)
	})
	if err != nil {
		return nil, err
	}

	return s.GetArticleBySlug(ctx, author, slug)
}

// ImportedArticle is an article brought in from an external feed.
type ImportedArticle struct {
	Title       string
	Description string
	Body        string
	Image       string
	ReadTime    int
	PublishedAt time.Time
}

// ImportArticle stores an external article for authorID under a fresh slug,
// keeping its original publish time. It returns the slug.
func (s *ArticleService) ImportArticle(ctx context.Context, authorID uint, in ImportedArticle) (string, error) {
	var slug string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		slug, err = s.uniqueSlug(tx, in.Title, 0)
		if err != nil {
			return err
		}

		article := models.Article{
			Slug:        slug,
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
			Body:        in.Body,
			Image:       emptyToNil(&in.Image),
			ReadTime:    in.ReadTime,
			IsPublished: true,
			AuthorID:    authorID,
		}
		if article.ReadTime < 1 {
			article.ReadTime = 1
		}
		if !in.PublishedAt.IsZero() {
			article.CreatedAt = in.PublishedAt.UTC()
			article.UpdatedAt = article.CreatedAt
		}
		if err := tx.Create(&article).Error; err != nil {
			return fmt.Errorf("failed to import article: %w", err)
		}
		return nil
	})
	return slug, err
}

func (s *ArticleService) UpdateArticle(ctx context.Context, user principal.Principal, slug string, req dto.UpdateArticleRequest) (*dto.ArticleView, error) {
	article, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != user.ID {
		return nil, ErrNotArticleAuthor
	}

	newSlug := article.Slug
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_at": time.Now().UTC()}

		if title := strings.TrimSpace(deref(req.Title)); title != "" {
			updates["title"] = title
			generated, err := s.uniqueSlug(tx, title, article.ID)
			if err != nil {
				return err
			}
			newSlug = generated
			updates["slug"] = newSlug
		}
		if desc := strings.TrimSpace(deref(req.Description)); desc != "" {
			updates["description"] = desc
		}
		if body := deref(req.Body); strings.TrimSpace(body) != "" {
			updates["body"] = body
			updates["read_time"] = ReadTime(body)
		}
		if req.Image != nil {
			updates["image"] = emptyToNil(req.Image)
		}

		if err := tx.Model(&models.Article{}).Where("id = ?", article.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}

		if req.TagList != nil {
			if err := tx.Where("article_id = ?", article.ID).Delete(&models.ArticleTag{}).Error; err != nil {
				return fmt.Errorf("failed to clear tags: %w", err)
			}
			return syncTags(tx, article.ID, req.TagList)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetArticleBySlug(ctx, user, newSlug)
}

// DeleteArticle removes the article with its tags, comments and favorites
// in one transaction. Notifications survive with their article unset.
func (s *ArticleService) DeleteArticle(ctx context.Context, user principal.Principal, slug string) error {
	article, err := s.findBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if article.AuthorID != user.ID {
		return ErrNotArticleAuthor
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteArticleTx(tx, article.ID)
	})
}

func deleteArticleTx(tx *gorm.DB, articleID uint) error {
	if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleTag{}).Error; err != nil {
		return fmt.Errorf("failed to delete article tags: %w", err)
	}
	if err := tx.Where("article_id = ?", articleID).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if err := tx.Where("article_id = ?", articleID).Delete(&models.ArticleFavorite{}).Error; err != nil {
		return fmt.Errorf("failed to delete favorites: %w", err)
	}
	if err := tx.Model(&models.Notification{}).Where("article_id = ?", articleID).Update("article_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach notifications: %w", err)
	}
	if err := tx.Delete(&models.Article{}, articleID).Error; err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

// FavoriteArticle is idempotent. The author is notified only when this call
// inserted the favorite.
func (s *ArticleService) FavoriteArticle(ctx context.Context, user principal.Principal, slug string) (*dto.ArticleView, error) {
	article, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ArticleFavorite{UserID: user.ID, ArticleID: article.ID})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to favorite article: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.events.Fire(ctx, events.ArticleFavorited, func(ctx context.Context) error {
			actor, err := s.username(ctx, user.ID)
			if err != nil {
				return err
			}
			return s.notifications.Notify(ctx, NotifyParams{
				RecipientID: article.AuthorID,
				Type:        models.NotificationArticleFavorited,
				Message:     fmt.Sprintf("%s favorited your article %q", actor, article.Title),
				ArticleID:   ptr(article.ID),
				ActorID:     ptr(user.ID),
			})
		}, "user_id", user.ID, "article_id", article.ID)
	}

	return s.GetArticleBySlug(ctx, user, slug)
}

func (s *ArticleService) UnfavoriteArticle(ctx context.Context, user principal.Principal, slug string) (*dto.ArticleView, error) {
	article, err := s.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", user.ID, article.ID).
		Delete(&models.ArticleFavorite{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to unfavorite article: %w", err)
	}

	return s.GetArticleBySlug(ctx, user, slug)
}

func (s *ArticleService) findBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	return &article, nil
}

func (s *ArticleService) username(ctx context.Context, userID uint) (string, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Select("id", "username").First(&u, userID).Error; err != nil {
		return "", fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return u.Username, nil
}

// uniqueSlug derives a slug from title. When it is taken by another article
// a short random suffix is appended. excludeID lets an article keep its own
// slug on update.
func (s *ArticleService) uniqueSlug(tx *gorm.DB, title string, excludeID uint) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		var count int64
		q := tx.Model(&models.Article{}).Where("slug = ?", candidate)
		if excludeID != 0 {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "-" + s.slugSuffix()
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}

// syncTags attaches names to the article, creating missing tags. Blank and
// repeated names are skipped.
func syncTags(tx *gorm.DB, articleID uint, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		tag := models.Tag{Name: name}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
			return fmt.Errorf("failed to create tag %q: %w", name, err)
		}
		if tag.ID == 0 {
			if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
				return fmt.Errorf("failed to load tag %q: %w", name, err)
			}
		}

		link := models.ArticleTag{ArticleID: articleID, TagID: tag.ID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
			return fmt.Errorf("failed to tag article: %w", err)
		}
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
