package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
	"gorm.io/gorm"
)

type CommentService struct {
	db            *gorm.DB
	articles      *ArticleService
	notifications *NotificationService
	events        *events.Dispatcher
}

func NewCommentService(db *gorm.DB, articles *ArticleService, notifications *NotificationService, dispatcher *events.Dispatcher) *CommentService {
	return &CommentService{db: db, articles: articles, notifications: notifications, events: dispatcher}
}

// ListComments returns the article's comments newest first.
func (s *CommentService) ListComments(ctx context.Context, viewer principal.Principal, slug string) ([]dto.CommentView, error) {
	article, err := s.articles.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Preload("Author").
		Where("article_id = ?", article.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	authorIDs := make([]uint, len(comments))
	for i, c := range comments {
		authorIDs[i] = c.AuthorID
	}
	following, err := followingSet(ctx, s.db, viewer.ID, distinct(authorIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to personalize comments: %w", err)
	}

	views := make([]dto.CommentView, len(comments))
	for i := range comments {
		views[i] = commentView(&comments[i], following[comments[i].AuthorID])
	}
	return views, nil
}

// AddComment stores the comment and notifies the article author.
func (s *CommentService) AddComment(ctx context.Context, author principal.Principal, slug, body string) (*dto.CommentView, error) {
	article, err := s.articles.findBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{Body: body, ArticleID: article.ID, AuthorID: author.ID}
	if err := s.db.WithContext(ctx).Omit("Article", "Author").Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	if err := s.db.WithContext(ctx).First(&comment.Author, author.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load comment author: %w", err)
	}

	s.events.Fire(ctx, events.ArticleCommented, func(ctx context.Context) error {
		return s.notifications.Notify(ctx, NotifyParams{
			RecipientID: article.AuthorID,
			Type:        models.NotificationArticleComment,
			Message:     fmt.Sprintf("%s commented on your article %q", comment.Author.Username, article.Title),
			ArticleID:   ptr(article.ID),
			ActorID:     ptr(author.ID),
		})
	}, "user_id", author.ID, "article_id", article.ID)

	view := commentView(&comment, false)
	return &view, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, user principal.Principal, commentID uint) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to load comment: %w", err)
	}
	if comment.AuthorID != user.ID {
		return ErrNotCommentAuthor
	}

	if err := s.db.WithContext(ctx).Delete(&models.Comment{}, comment.ID).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func commentView(c *models.Comment, following bool) dto.CommentView {
	return dto.CommentView{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author: dto.AuthorView{
			ID:        c.Author.ID,
			Username:  c.Author.Username,
			Bio:       c.Author.Bio,
			Image:     c.Author.Image,
			Following: following,
		},
	}
}
