package services

import (
	"context"
	"fmt"
	"time"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/models"
	"gorm.io/gorm"
)

const notificationPageSize = 50

type NotifyParams struct {
	RecipientID uint
	Type        string
	Message     string
	ArticleID   *uint
	ActorID     *uint
}

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify appends a notification row. Events caused by the recipient are
// dropped. Repeated events are never coalesced.
func (s *NotificationService) Notify(ctx context.Context, p NotifyParams) error {
	if p.ActorID != nil && *p.ActorID == p.RecipientID {
		return nil
	}

	n := models.Notification{
		UserID:    p.RecipientID,
		Type:      p.Type,
		Message:   truncate(p.Message, 500),
		ArticleID: p.ArticleID,
		ActorID:   p.ActorID,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

type notificationRow struct {
	ID            uint
	Type          string
	Message       string
	IsRead        bool
	CreatedAt     time.Time
	ArticleSlug   *string
	ArticleTitle  *string
	ActorID       *uint
	ActorUsername *string
	ActorImage    *string
}

// List returns the 50 most recent notifications for userID, newest first,
// along with the total unread count.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) (*dto.NotificationListResponse, error) {
	q := s.db.WithContext(ctx).
		Table("notifications").
		Select(`notifications.id, notifications.type, notifications.message, notifications.is_read, notifications.created_at,
			articles.slug AS article_slug, articles.title AS article_title,
			actors.id AS actor_id, actors.username AS actor_username, actors.image AS actor_image`).
		Joins("LEFT JOIN articles ON articles.id = notifications.article_id").
		Joins("LEFT JOIN users actors ON actors.id = notifications.actor_id").
		Where("notifications.user_id = ?", userID)
	if unreadOnly {
		q = q.Where("notifications.is_read = ?", false)
	}

	var rows []notificationRow
	if err := q.Scopes(database.Newest("notifications")).Limit(notificationPageSize).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationView, 0, len(rows)),
		UnreadCount:   unread,
	}
	for _, r := range rows {
		v := dto.NotificationView{
			ID:        r.ID,
			Type:      r.Type,
			Message:   r.Message,
			IsRead:    r.IsRead,
			CreatedAt: r.CreatedAt,
		}
		if r.ArticleSlug != nil {
			v.Article = &dto.NotificationArticle{Slug: *r.ArticleSlug, Title: deref(r.ArticleTitle)}
		}
		if r.ActorID != nil {
			v.Actor = &dto.NotificationActor{ID: *r.ActorID, Username: deref(r.ActorUsername), Image: r.ActorImage}
		}
		resp.Notifications = append(resp.Notifications, v)
	}
	return resp, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Scopes(database.ForOwner(userID)).
		Where("is_read = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. Unknown ids and notifications
// owned by someone else are ignored.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Scopes(database.ForOwner(userID)).
		Where("id = ?", id).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Scopes(database.ForOwner(userID)).
		Where("is_read = ?", false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
