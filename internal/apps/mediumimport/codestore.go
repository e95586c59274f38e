package mediumimport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogium/blogium-api/internal/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const columnCodePrefix = "MEDIUM_"

// PendingCode is an ownership code waiting to be confirmed.
type PendingCode struct {
	Username string
	Code     string
}

// CodeStore keeps at most one pending code per Blogium user.
// Load returns ErrNoPendingCode when nothing unexpired is stored.
type CodeStore interface {
	Save(ctx context.Context, userID uint, pending PendingCode, ttl time.Duration) error
	Load(ctx context.Context, userID uint) (*PendingCode, error)
	Delete(ctx context.Context, userID uint) error
}

// encodeCode packs a pending code as username_code. The code is numeric, so
// the last underscore always separates the two even when the username has
// underscores of its own.
func encodeCode(p PendingCode) string {
	return p.Username + "_" + p.Code
}

func decodeCode(raw string) (*PendingCode, bool) {
	i := strings.LastIndex(raw, "_")
	if i <= 0 || i == len(raw)-1 {
		return nil, false
	}
	return &PendingCode{Username: raw[:i], Code: raw[i+1:]}, true
}

// RedisCodeStore keeps codes in Redis and lets key expiry enforce the TTL.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func redisKey(userID uint) string {
	return fmt.Sprintf("medium_code:%d", userID)
}

func (s *RedisCodeStore) Save(ctx context.Context, userID uint, pending PendingCode, ttl time.Duration) error {
	return s.client.Set(ctx, redisKey(userID), encodeCode(pending), ttl).Err()
}

func (s *RedisCodeStore) Load(ctx context.Context, userID uint) (*PendingCode, error) {
	raw, err := s.client.Get(ctx, redisKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoPendingCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read code: %w", err)
	}
	pending, ok := decodeCode(raw)
	if !ok {
		return nil, ErrNoPendingCode
	}
	return pending, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, redisKey(userID)).Err()
}

// UserColumnCodeStore reuses the user's verification-code columns, storing
// MEDIUM_<username>_<code>. It is the fallback when Redis is not configured.
type UserColumnCodeStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserColumnCodeStore(db *gorm.DB) *UserColumnCodeStore {
	return &UserColumnCodeStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserColumnCodeStore) Save(ctx context.Context, userID uint, pending PendingCode, ttl time.Duration) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"verification_code":        columnCodePrefix + encodeCode(pending),
			"verification_code_expiry": s.now().Add(ttl),
		}).Error
}

func (s *UserColumnCodeStore) Load(ctx context.Context, userID uint) (*PendingCode, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select("id", "verification_code", "verification_code_expiry").
		First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPendingCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read code: %w", err)
	}

	if user.VerificationCode == nil || !strings.HasPrefix(*user.VerificationCode, columnCodePrefix) {
		return nil, ErrNoPendingCode
	}
	if user.VerificationCodeExpiry == nil || user.VerificationCodeExpiry.Before(s.now()) {
		return nil, ErrNoPendingCode
	}
	pending, ok := decodeCode(strings.TrimPrefix(*user.VerificationCode, columnCodePrefix))
	if !ok {
		return nil, ErrNoPendingCode
	}
	return pending, nil
}

// Delete clears the columns only when they hold an import code, so a pending
// email verification is left alone.
func (s *UserColumnCodeStore) Delete(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where(`id = ? AND verification_code LIKE ? ESCAPE '\'`, userID, `MEDIUM\_%`).
		Updates(map[string]interface{}{
			"verification_code":        nil,
			"verification_code_expiry": nil,
		}).Error
}
