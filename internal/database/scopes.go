package database

import "gorm.io/gorm"

// Paginate applies offset and limit when they are set and non-negative.
// A nil or negative value leaves that side of the window open.
func Paginate(limit, offset *int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if offset != nil && *offset >= 0 {
			db = db.Offset(*offset)
		}
		if limit != nil && *limit >= 0 {
			db = db.Limit(*limit)
		}
		return db
	}
}

// Newest orders rows newest first with the id as a stable tiebreaker.
func Newest(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at DESC").Order(table + ".id DESC")
	}
}

// ForOwner returns a GORM scope that filters by user_id.
func ForOwner(userID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}
