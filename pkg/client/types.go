package client

import "time"

// ListParams filters GET /api/articles. Nil Limit and Offset use the
// server defaults.
type ListParams struct {
	Tag       string
	Author    string
	Favorited string
	Search    string
	Limit     *int
	Offset    *int
}

type Author struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

type Article struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	Image          *string   `json:"image"`
	ReadTime       int       `json:"readTime"`
	ViewCount      int       `json:"viewCount"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int64     `json:"favoritesCount"`
	Author         Author    `json:"author"`
}

type ArticlePage struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int64     `json:"articlesCount"`
}

// ArticleInput is the body of create and update calls. Nil fields are
// left unchanged on update.
type ArticleInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Body        *string  `json:"body,omitempty"`
	Image       *string  `json:"image,omitempty"`
	TagList     []string `json:"tagList,omitempty"`
}

type articleEnvelope struct {
	Article Article `json:"article"`
}
