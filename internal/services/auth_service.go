package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/mail"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	verificationCodeTTL = 15 * time.Minute
	resetTokenTTL       = 30 * time.Minute
)

// TokenIssuer signs HS256 access tokens carrying the user id as subject.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"email":    user.Email,
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(t.expiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type AuthService struct {
	db       *gorm.DB
	cfg      *config.Config
	tokens   *TokenIssuer
	mailer   mail.Mailer
	composer *mail.Composer
	events   *events.Dispatcher
	now      func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, tokens *TokenIssuer, mailer mail.Mailer, dispatcher *events.Dispatcher) *AuthService {
	return &AuthService{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		mailer:   mailer,
		composer: mail.NewComposer(cfg.FrontendURL),
		events:   dispatcher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an unverified account and emails a verification code.
// No token is issued until the email is verified.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	if taken, err := s.exists(ctx, "email = ?", email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.exists(ctx, "username = ?", username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := SixDigitCode()
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:               username,
		Email:                  email,
		PasswordHash:           ptr(string(hash)),
		VerificationCode:       ptr(code),
		VerificationCodeExpiry: ptr(s.now().Add(verificationCodeTTL)),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.events.Fire(ctx, events.VerificationEmail, func(ctx context.Context) error {
		return s.sendVerification(ctx, &user, code)
	}, "user_id", user.ID)

	return userResponse(&user, ""), nil
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// OAuth accounts have no password to compare against.
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.withToken(&user)
}

// VerifyEmail consumes a verification code with a conditional update so a
// code can only be used once and only before it expires.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*dto.UserResponse, error) {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.EmailVerified {
		return s.withToken(user)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND verification_code = ? AND verification_code_expiry > ?", user.ID, code, s.now()).
		Updates(map[string]interface{}{
			"email_verified":           true,
			"verification_code":        nil,
			"verification_code_expiry": nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to verify email: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if user.VerificationCode == nil || *user.VerificationCode != code {
			return nil, ErrInvalidCode
		}
		return nil, ErrCodeExpired
	}
	user.EmailVerified = true
	user.VerificationCode = nil
	user.VerificationCodeExpiry = nil

	s.events.Fire(ctx, events.WelcomeEmail, func(ctx context.Context) error {
		msg, err := s.composer.Welcome(user.Email, user.Username)
		if err != nil {
			return err
		}
		return s.mailer.Send(ctx, msg)
	}, "user_id", user.ID)

	return s.withToken(user)
}

// ResendVerificationCode issues a fresh code. Delivery failure is returned
// to the caller since the code is useless without the email.
func (s *AuthService) ResendVerificationCode(ctx context.Context, email string) error {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	code, err := SixDigitCode()
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"verification_code":        code,
		"verification_code_expiry": s.now().Add(verificationCodeTTL),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.sendVerification(ctx, user, code); err != nil {
		slog.Error("failed to send verification email", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// ForgotPassword stores a reset token valid for 30 minutes and emails a
// link to the frontend reset page.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}

	token := ResetToken()
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password_reset_code":        token,
		"password_reset_code_expiry": s.now().Add(resetTokenTTL),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	msg, err := s.composer.PasswordReset(user.Email, user.Username, token, resetTokenTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		slog.Error("failed to send password reset email", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

// ResetPassword accepts the email plus the stored reset code.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.byEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.PasswordResetCode == nil || *user.PasswordResetCode != code {
		return ErrInvalidResetToken
	}
	return s.consumeReset(ctx, user, newPassword)
}

// ResetPasswordWithToken accepts the token from the emailed link alone.
func (s *AuthService) ResetPasswordWithToken(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("password_reset_code = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	return s.consumeReset(ctx, &user, newPassword)
}

func (s *AuthService) consumeReset(ctx context.Context, user *models.User, newPassword string) error {
	if user.PasswordResetCodeExpiry == nil || user.PasswordResetCodeExpiry.Before(s.now()) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND password_reset_code = ?", user.ID, *user.PasswordResetCode).
		Updates(map[string]interface{}{
			"password_hash":              string(hash),
			"password_reset_code":        nil,
			"password_reset_code_expiry": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reset password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidResetToken
	}
	slog.Info("password reset", "user_id", user.ID)
	return nil
}

// FindOrCreateExternalUser upserts an OAuth identity by email. New accounts
// are verified, have no password and get the first free username among
// name, name1, name2 and so on.
func (s *AuthService) FindOrCreateExternalUser(ctx context.Context, email, name, image string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: provider returned no email", ErrUpstream)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if (user.Image == nil || *user.Image == "") && image != "" {
			if err := s.db.WithContext(ctx).Model(&user).Update("image", image).Error; err != nil {
				return nil, fmt.Errorf("failed to update avatar: %w", err)
			}
			user.Image = ptr(image)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	base := usernameBase(name, email)
	username := base
	for suffix := 1; ; suffix++ {
		taken, err := s.exists(ctx, "username = ?", username)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		username = base + strconv.Itoa(suffix)
	}

	user = models.User{
		Username:      username,
		Email:         email,
		EmailVerified: true,
		Image:         emptyToNil(&image),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create external user: %w", err)
	}
	slog.Info("external user created", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

// IssueToken returns a signed token for an already authenticated user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	return s.tokens.Issue(user)
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User, code string) error {
	msg, err := s.composer.Verification(user.Email, user.Username, code, verificationCodeTTL)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func (s *AuthService) byEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return count > 0, nil
}

func (s *AuthService) withToken(user *models.User) (*dto.UserResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return userResponse(user, token), nil
}

func userResponse(user *models.User, token string) *dto.UserResponse {
	return &dto.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		Bio:           user.Bio,
		Image:         user.Image,
		EmailVerified: user.EmailVerified,
		Token:         token,
	}
}

// SixDigitCode returns a uniformly random code in [100000, 999999].
func SixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// ResetToken concatenates two base64-encoded random UUIDs.
func ResetToken() string {
	a, b := uuid.New(), uuid.New()
	return base64.StdEncoding.EncodeToString(a[:]) + base64.StdEncoding.EncodeToString(b[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func usernameBase(name, email string) string {
	base := strings.Map(usernameRune, name)
	if base == "" {
		base = strings.Map(usernameRune, strings.SplitN(email, "@", 2)[0])
	}
	if base == "" {
		base = "user"
	}
	if len(base) > 40 {
		base = base[:40]
	}
	return base
}

// usernameRune keeps the characters allowed in a username.
func usernameRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		return r
	}
	return -1
}
