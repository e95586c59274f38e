package stats

import "time"

// --- DTOs ---

type Summary struct {
	TotalArticles  int   `json:"totalArticles"`
	TotalViews     int64 `json:"totalViews"`
	TotalFavorites int64 `json:"totalFavorites"`
	TotalComments  int64 `json:"totalComments"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
}

type ArticleStat struct {
	ID        uint      `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Views     int       `json:"views"`
	Favorites int64     `json:"favorites"`
	Comments  int64     `json:"comments"`
	ReadTime  int       `json:"readTime"`
}

// DailyStat aggregates the articles published on one UTC calendar day.
type DailyStat struct {
	Date      string `json:"date"`
	Articles  int    `json:"articles"`
	Views     int64  `json:"views"`
	Favorites int64  `json:"favorites"`
	Comments  int64  `json:"comments"`
}

type StatsResponse struct {
	Summary        Summary       `json:"summary"`
	RecentArticles []ArticleStat `json:"recentArticles"`
	TopArticles    []ArticleStat `json:"topArticles"`
	DailyStats     []DailyStat   `json:"dailyStats"`
}
