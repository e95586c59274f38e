package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/mail"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/testutil"
	"gorm.io/gorm"
)

const testSecret = "this-is-a-test-secret-with-32-bytes!"

var longBody = strings.Repeat("This body is long enough to be a real article. ", 3)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type testEnv struct {
	db            *gorm.DB
	mailer        *recordingMailer
	reported      *[]error
	tokens        *TokenIssuer
	notifications *NotificationService
	articles      *ArticleService
	comments      *CommentService
	users         *UserService
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := &config.Config{FrontendURL: "https://blogium.test"}
	mailer := &recordingMailer{}
	var reported []error
	dispatcher := events.NewDispatcher(events.WithReporter(func(err error) { reported = append(reported, err) }))

	tokens := NewTokenIssuer(testSecret, time.Hour)
	notifications := NewNotificationService(db)
	articles := NewArticleService(db, notifications, dispatcher)

	return &testEnv{
		db:            db,
		mailer:        mailer,
		reported:      &reported,
		tokens:        tokens,
		notifications: notifications,
		articles:      articles,
		comments:      NewCommentService(db, articles, notifications, dispatcher),
		users:         NewUserService(db, tokens, notifications, mailer, mail.NewComposer(cfg.FrontendURL), dispatcher),
		auth:          NewAuthService(db, cfg, tokens, mailer, dispatcher),
	}
}

func (e *testEnv) user(t *testing.T, username string) principal.Principal {
	t.Helper()
	u := testutil.CreateUser(t, e.db, username)
	return principal.Principal{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (e *testEnv) article(t *testing.T, author principal.Principal, title string, tags ...string) *dto.ArticleView {
	t.Helper()
	view, err := e.articles.CreateArticle(context.Background(), author, dto.CreateArticleRequest{
		Title:       title,
		Description: "A description for " + title,
		Body:        longBody,
		TagList:     tags,
	})
	if err != nil {
		t.Fatalf("create article %q: %v", title, err)
	}
	return view
}

func (e *testEnv) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var out []models.Notification
	if err := e.db.Where("user_id = ?", userID).Order("id").Find(&out).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return out
}

func intPtr(v int) *int { return &v }
