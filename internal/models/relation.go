package models

import "time"

// ArticleFavorite records that a user favorited an article. The composite
// key makes a duplicate favorite a no-op at the storage layer.
type ArticleFavorite struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Article   Article   `gorm:"foreignKey:ArticleID" json:"-"`
}

// UserFollow is a directed follower -> following edge. Both foreign keys are
// non-cascading to avoid multiple cascade paths into users.
type UserFollow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
	Follower    User      `gorm:"foreignKey:FollowerID" json:"-"`
	Following   User      `gorm:"foreignKey:FollowingID" json:"-"`
}
