package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	recentWindow = 30 * 24 * time.Hour
	recentLimit  = 10
	topLimit     = 5
	dayLayout    = "2006-01-02"
)

const articleStatColumns = `articles.id, articles.slug, articles.title, articles.created_at,
	articles.view_count AS views, articles.read_time,
	(SELECT COUNT(*) FROM article_favorites WHERE article_favorites.article_id = articles.id) AS favorites,
	(SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id) AS comments`

type StatsService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// GetUserStats aggregates the author dashboard for userID. The article
// projection and both follow counts are read concurrently.
func (s *StatsService) GetUserStats(ctx context.Context, userID uint) (*StatsResponse, error) {
	var (
		rows      []ArticleStat
		followers int64
		following int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Model(&models.Article{}).
			Select(articleStatColumns).
			Where("articles.author_id = ?", userID).
			Scopes(database.Newest("articles")).
			Scan(&rows).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.UserFollow{}).
			Where("following_id = ?", userID).Count(&followers).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).Model(&models.UserFollow{}).
			Where("follower_id = ?", userID).Count(&following).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	resp := &StatsResponse{
		Summary: Summary{
			TotalArticles:  len(rows),
			FollowersCount: followers,
			FollowingCount: following,
		},
		RecentArticles: make([]ArticleStat, 0, recentLimit),
		TopArticles:    make([]ArticleStat, 0, topLimit),
		DailyStats:     []DailyStat{},
	}

	cutoff := s.now().Add(-recentWindow)
	days := map[string]*DailyStat{}
	for _, a := range rows {
		a.CreatedAt = a.CreatedAt.UTC()
		resp.Summary.TotalViews += int64(a.Views)
		resp.Summary.TotalFavorites += a.Favorites
		resp.Summary.TotalComments += a.Comments

		if a.CreatedAt.Before(cutoff) {
			continue
		}
		if len(resp.RecentArticles) < recentLimit {
			resp.RecentArticles = append(resp.RecentArticles, a)
		}

		key := a.CreatedAt.Format(dayLayout)
		day, ok := days[key]
		if !ok {
			day = &DailyStat{Date: key}
			days[key] = day
		}
		day.Articles++
		day.Views += int64(a.Views)
		day.Favorites += a.Favorites
		day.Comments += a.Comments
	}

	for _, day := range days {
		resp.DailyStats = append(resp.DailyStats, *day)
	}
	sort.Slice(resp.DailyStats, func(i, j int) bool {
		return resp.DailyStats[i].Date < resp.DailyStats[j].Date
	})

	top := append([]ArticleStat(nil), rows...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Views > top[j].Views
	})
	if len(top) > topLimit {
		top = top[:topLimit]
	}
	for _, a := range top {
		a.CreatedAt = a.CreatedAt.UTC()
		resp.TopArticles = append(resp.TopArticles, a)
	}

	return resp, nil
}
