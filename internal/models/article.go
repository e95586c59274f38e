package models

import "time"

type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:500;not null;uniqueIndex" json:"slug"`
	Title       string    `gorm:"size:500;not null" json:"title"`
	Description string    `gorm:"size:1000;not null" json:"description"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	Image       *string   `gorm:"type:text" json:"image"`
	ReadTime    int       `gorm:"not null;default:1" json:"read_time"`
	IsPublished bool      `gorm:"default:true" json:"is_published"`
	ViewCount   int       `gorm:"default:0" json:"view_count"`
	AuthorID    uint      `gorm:"not null;index;index:idx_articles_author_created,priority:1" json:"author_id"`
	CreatedAt   time.Time `gorm:"index;index:idx_articles_author_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// ArticleTag is the article/tag join row. The set for an article is always
// rewritten as a whole.
type ArticleTag struct {
	ArticleID uint    `gorm:"primaryKey;autoIncrement:false;index" json:"article_id"`
	TagID     uint    `gorm:"primaryKey;autoIncrement:false;index" json:"tag_id"`
	Article   Article `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Tag       Tag     `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"size:2000;not null" json:"body"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Article   Article   `gorm:"foreignKey:ArticleID;constraint:OnDelete:CASCADE" json:"-"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"-"`
}
