package dto

import "time"

// ArticleFilter holds the optional list predicates. Empty strings and
// negative numbers mean "no filter".
type ArticleFilter struct {
	Limit     *int   `json:"limit,omitempty"`
	Offset    *int   `json:"offset,omitempty"`
	Tag       string `json:"tag,omitempty"`
	Author    string `json:"author,omitempty"`
	Favorited string `json:"favorited,omitempty"`
	Search    string `json:"search,omitempty"`
}

type CreateArticleRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Description string   `json:"description" validate:"required,min=10,max=500"`
	Body        string   `json:"body" validate:"required,min=50"`
	Image       *string  `json:"image" validate:"omitempty,max=2000"`
	TagList     []string `json:"tagList" validate:"omitempty,max=10,dive,required,max=50"`
}

// UpdateArticleRequest is a partial patch. A nil or empty text field is
// left untouched; a non-nil TagList replaces the whole set.
type UpdateArticleRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Body        *string  `json:"body"`
	Image       *string  `json:"image" validate:"omitempty,max=2000"`
	TagList     []string `json:"tagList" validate:"omitempty,max=10,dive,required,max=50"`
}

// AuthorView is the author block embedded in articles and comments.
type AuthorView struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

type ProfileView struct {
	ID             uint    `json:"id"`
	Username       string  `json:"username"`
	Bio            *string `json:"bio"`
	Image          *string `json:"image"`
	Following      bool    `json:"following"`
	FollowersCount int64   `json:"followersCount"`
	FollowingCount int64   `json:"followingCount"`
}

type ArticleView struct {
	Slug           string     `json:"slug"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Body           string     `json:"body"`
	Image          *string    `json:"image"`
	ReadTime       int        `json:"readTime"`
	ViewCount      int        `json:"viewCount"`
	TagList        []string   `json:"tagList"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Favorited      bool       `json:"favorited"`
	FavoritesCount int64      `json:"favoritesCount"`
	Author         AuthorView `json:"author"`
}

type ArticleListResponse struct {
	Articles      []ArticleView `json:"articles"`
	ArticlesCount int64         `json:"articlesCount"`
}

type TagListResponse struct {
	Tags []string `json:"tags"`
}

type AddCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type CommentView struct {
	ID        uint       `json:"id"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Author    AuthorView `json:"author"`
}

type ArticleResponse struct {
	Article ArticleView `json:"article"`
}

type CommentResponse struct {
	Comment CommentView `json:"comment"`
}

type CommentListResponse struct {
	Comments []CommentView `json:"comments"`
}
