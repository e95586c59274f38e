package services

import (
	"context"

	"github.com/blogium/blogium-api/internal/models"
	"gorm.io/gorm"
)

// favoritedSet returns the subset of articleIDs that userID has favorited,
// in a single query.
func favoritedSet(ctx context.Context, db *gorm.DB, userID uint, articleIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(articleIDs))
	if userID == 0 || len(articleIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.ArticleFavorite{}).
		Where("user_id = ? AND article_id IN ?", userID, articleIDs).
		Pluck("article_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// followingSet returns the subset of userIDs that followerID follows, in a
// single query. Callers pass each distinct author once.
func followingSet(ctx context.Context, db *gorm.DB, followerID uint, userIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(userIDs))
	if followerID == 0 || len(userIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.UserFollow{}).
		Where("follower_id = ? AND following_id IN ?", followerID, userIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func distinct(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
