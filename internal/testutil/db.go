// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/blogium/blogium-api/internal/database"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// Every connection to ":memory:" is a fresh database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a verified user with the given username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash := "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1XH0qW7jKcY1vS0p8Yb6z9W"
	u := &models.User{
		Username:      username,
		Email:         username + "@example.com",
		PasswordHash:  &hash,
		EmailVerified: true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}
