package mediumimport

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/mmcdole/gofeed"
	"gorm.io/gorm"
)

const (
	codeTTL        = 30 * time.Minute
	sampleSize     = 5
	maxDescription = 500
	bioMarker      = "Medium: @"
)

var (
	ErrUsernameRequired   = errors.New("medium username is required")
	ErrMediumUserNotFound = errors.New("medium user not found")
	ErrNoArticles         = errors.New("no articles found for this medium username")
	ErrNoPendingCode      = errors.New("verification code not found or expired, generate a new one")
	ErrUsernameMismatch   = errors.New("medium username does not match the pending code")
	ErrNotVerified        = errors.New("medium account is not verified, verify it first")
)

var (
	firstImage   = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
	numericTitle = regexp.MustCompile(`^\d{6}$`)
)

type ImportService struct {
	db       *gorm.DB
	articles *services.ArticleService
	store    CodeStore
	feeds    *FeedSource
}

func NewImportService(db *gorm.DB, articles *services.ArticleService, store CodeStore, feeds *FeedSource) *ImportService {
	return &ImportService{db: db, articles: articles, store: store, feeds: feeds}
}

// GenerateCode checks that the Medium account has a readable feed and stores
// a fresh ownership code for the caller.
func (s *ImportService) GenerateCode(ctx context.Context, userID uint, username string) (*GenerateCodeResponse, error) {
	username, err := cleanUsername(username)
	if err != nil {
		return nil, err
	}

	feed, err := s.feeds.Fetch(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(feed.Items) == 0 {
		return nil, ErrNoArticles
	}

	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	code, err := services.SixDigitCode()
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, userID, PendingCode{Username: username, Code: code}, codeTTL); err != nil {
		return nil, fmt.Errorf("failed to store code: %w", err)
	}

	samples := make([]string, 0, sampleSize)
	for _, item := range feed.Items {
		if len(samples) == sampleSize {
			break
		}
		samples = append(samples, item.Title)
	}

	return &GenerateCodeResponse{
		VerificationCode: code,
		Username:         username,
		ArticleCount:     len(feed.Items),
		SampleArticles:   samples,
		Instructions: fmt.Sprintf("Found %d articles for @%s. Use code %s in the next step.",
			len(feed.Items), username, code),
	}, nil
}

// Verify confirms the pending code and records the Medium handle in the
// caller's bio.
func (s *ImportService) Verify(ctx context.Context, userID uint, username string) (*VerifyResponse, error) {
	username, err := cleanUsername(username)
	if err != nil {
		return nil, err
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending.Username != username {
		return nil, ErrUsernameMismatch
	}

	bio := ""
	if user.Bio != nil {
		bio = *user.Bio
	}
	switch {
	case strings.Contains(bio, "@"+username):
	case strings.TrimSpace(bio) == "":
		bio = bioMarker + username
	default:
		bio += " | " + bioMarker + username
	}
	if err := s.db.WithContext(ctx).Model(user).Update("bio", bio).Error; err != nil {
		return nil, fmt.Errorf("failed to update bio: %w", err)
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear code: %w", err)
	}

	return &VerifyResponse{
		Verified: true,
		Username: username,
		Message:  fmt.Sprintf("Medium account @%s verified. You can import your articles now.", username),
	}, nil
}

// Import copies every feed item the caller has not imported yet.
func (s *ImportService) Import(ctx context.Context, userID uint, username string) (*ImportResponse, error) {
	username, err := cleanUsername(username)
	if err != nil {
		return nil, err
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Bio == nil || !strings.Contains(*user.Bio, "@"+username) {
		return nil, ErrNotVerified
	}

	feed, err := s.feeds.Fetch(ctx, username)
	if err != nil {
		return nil, err
	}

	imported := []string{}
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" || numericTitle.MatchString(title) {
			continue
		}

		var count int64
		err := s.db.WithContext(ctx).Model(&models.Article{}).
			Where("title = ? AND author_id = ?", title, userID).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check article: %w", err)
		}
		if count > 0 {
			continue
		}

		if _, err := s.articles.ImportArticle(ctx, userID, toArticle(item)); err != nil {
			return nil, err
		}
		imported = append(imported, title)
	}

	slog.Info("medium import finished", "user_id", userID, "medium_user", username, "imported", len(imported))
	return &ImportResponse{
		Message:  fmt.Sprintf("%d articles imported.", len(imported)),
		Imported: imported,
	}, nil
}

func (s *ImportService) user(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func toArticle(item *gofeed.Item) services.ImportedArticle {
	body := item.Content
	if body == "" {
		body = item.Description
	}

	out := services.ImportedArticle{
		Title:       strings.TrimSpace(item.Title),
		Description: truncate(plainText(item.Description), maxDescription),
		Body:        body,
		ReadTime:    services.ReadTime(plainText(body)),
	}
	if out.Description == "" {
		out.Description = out.Title
	}
	if m := firstImage.FindStringSubmatch(body); m != nil {
		out.Image = m[1]
	}
	if item.PublishedParsed != nil {
		out.PublishedAt = *item.PublishedParsed
	}
	return out
}

func cleanUsername(raw string) (string, error) {
	username := strings.TrimLeft(strings.TrimSpace(raw), "@")
	if username == "" {
		return "", ErrUsernameRequired
	}
	return username, nil
}

func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(htmlTag.ReplaceAllString(s, " "))), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
