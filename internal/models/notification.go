package models

import "time"

const (
	NotificationArticleFavorited = "article_favorited"
	NotificationArticleComment   = "article_comment"
	NotificationUserFollowed     = "user_followed"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	ArticleID *uint     `gorm:"index" json:"article_id"`
	ActorID   *uint     `json:"actor_id"`
	IsRead    bool      `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
