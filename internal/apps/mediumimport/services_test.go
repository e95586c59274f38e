package mediumimport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/blogium/blogium-api/internal/testutil"
)

const adaFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>Stories by Ada on Medium</title>
<link>https://medium.com/@ada</link>
<item>
<title>Building a compiler</title>
<link>https://medium.com/@ada/building-a-compiler</link>
<description><![CDATA[<p>A short summary &amp; more</p>]]></description>
<content:encoded><![CDATA[<figure><img alt="" src="https://cdn.test/compiler.png" /></figure><p>Lexers and parsers, one token at a time.</p>]]></content:encoded>
<pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
</item>
<item>
<title>123456</title>
<description>verification post</description>
<pubDate>Tue, 03 Mar 2026 10:00:00 GMT</pubDate>
</item>
<item>
<title>Existing title</title>
<description><![CDATA[<p>Already here</p>]]></description>
<pubDate>Wed, 04 Mar 2026 10:00:00 GMT</pubDate>
</item>
</channel>
</rss>`

const emptyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Nothing</title></channel></rss>`

func newFakeMedium(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed/@ada", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(adaFeed))
	})
	mux.HandleFunc("/feed/@empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(emptyFeed))
	})
	mux.HandleFunc("/feed/@broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type importEnv struct {
	db   *gorm.DB
	user *models.User
	svc  *ImportService
	srv  *httptest.Server
}

func newImportEnv(t *testing.T) *importEnv {
	t.Helper()
	db := testutil.NewDB(t)
	srv := newFakeMedium(t)
	articles := services.NewArticleService(db, services.NewNotificationService(db), events.NewDispatcher())
	return &importEnv{
		db:   db,
		user: testutil.CreateUser(t, db, "writer"),
		svc:  NewImportService(db, articles, NewUserColumnCodeStore(db), NewFeedSource(srv.URL+"/feed", srv.Client())),
		srv:  srv,
	}
}

func TestGenerateCode(t *testing.T) {
	c := qt.New(t)
	env := newImportEnv(t)
	ctx := context.Background()

	resp, err := env.svc.GenerateCode(ctx, env.user.ID, "@ada")
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Username, qt.Equals, "ada")
	c.Assert(resp.VerificationCode, qt.Matches, `\d{6}`)
	c.Assert(resp.ArticleCount, qt.Equals, 3)
	c.Assert(resp.SampleArticles, qt.DeepEquals, []string{"Building a compiler", "123456", "Existing title"})

	_, err = env.svc.GenerateCode(ctx, env.user.ID, "  ")
	c.Assert(err, qt.ErrorIs, ErrUsernameRequired)
	_, err = env.svc.GenerateCode(ctx, env.user.ID, "ghost")
	c.Assert(err, qt.ErrorIs, ErrMediumUserNotFound)
	_, err = env.svc.GenerateCode(ctx, env.user.ID, "empty")
	c.Assert(err, qt.ErrorIs, ErrNoArticles)
	_, err = env.svc.GenerateCode(ctx, env.user.ID, "broken")
	c.Assert(err, qt.ErrorIs, services.ErrUpstream)
	_, err = env.svc.GenerateCode(ctx, 9999, "ada")
	c.Assert(err, qt.ErrorIs, services.ErrUserNotFound)
}

func TestVerify(t *testing.T) {
	c := qt.New(t)
	env := newImportEnv(t)
	ctx := context.Background()

	_, err := env.svc.Verify(ctx, env.user.ID, "ada")
	c.Assert(err, qt.ErrorIs, ErrNoPendingCode)

	_, err = env.svc.GenerateCode(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)

	_, err = env.svc.Verify(ctx, env.user.ID, "somebody")
	c.Assert(err, qt.ErrorIs, ErrUsernameMismatch)

	resp, err := env.svc.Verify(ctx, env.user.ID, "@ada")
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Verified, qt.IsTrue)

	var user models.User
	c.Assert(env.db.First(&user, env.user.ID).Error, qt.IsNil)
	c.Assert(*user.Bio, qt.Equals, "Medium: @ada")
	c.Assert(user.VerificationCode, qt.IsNil)

	// The code is single use.
	_, err = env.svc.Verify(ctx, env.user.ID, "ada")
	c.Assert(err, qt.ErrorIs, ErrNoPendingCode)

	// Verifying again never duplicates the bio marker.
	_, err = env.svc.GenerateCode(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)
	_, err = env.svc.Verify(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)
	c.Assert(env.db.First(&user, env.user.ID).Error, qt.IsNil)
	c.Assert(*user.Bio, qt.Equals, "Medium: @ada")
}

func TestVerifyAppendsToBio(t *testing.T) {
	c := qt.New(t)
	env := newImportEnv(t)
	ctx := context.Background()

	c.Assert(env.db.Model(env.user).Update("bio", "Writes about compilers").Error, qt.IsNil)
	_, err := env.svc.GenerateCode(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)
	_, err = env.svc.Verify(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)

	var user models.User
	c.Assert(env.db.First(&user, env.user.ID).Error, qt.IsNil)
	c.Assert(*user.Bio, qt.Equals, "Writes about compilers | Medium: @ada")
}

func TestImport(t *testing.T) {
	c := qt.New(t)
	env := newImportEnv(t)
	ctx := context.Background()

	_, err := env.svc.Import(ctx, env.user.ID, "ada")
	c.Assert(err, qt.ErrorIs, ErrNotVerified)

	c.Assert(env.db.Model(env.user).Update("bio", "Medium: @ada").Error, qt.IsNil)
	c.Assert(env.db.Create(&models.Article{
		Slug:        "existing-title",
		Title:       "Existing title",
		Description: "Written here first",
		Body:        "Body",
		AuthorID:    env.user.ID,
	}).Error, qt.IsNil)

	resp, err := env.svc.Import(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Imported, qt.DeepEquals, []string{"Building a compiler"})

	var article models.Article
	c.Assert(env.db.Where("title = ?", "Building a compiler").First(&article).Error, qt.IsNil)
	c.Assert(article.Slug, qt.Equals, "building-a-compiler")
	c.Assert(article.AuthorID, qt.Equals, env.user.ID)
	c.Assert(article.Description, qt.Equals, "A short summary & more")
	c.Assert(*article.Image, qt.Equals, "https://cdn.test/compiler.png")
	c.Assert(article.Body, qt.Contains, "Lexers and parsers")
	c.Assert(article.ReadTime, qt.Equals, 1)
	c.Assert(article.CreatedAt.Equal(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)), qt.IsTrue)

	again, err := env.svc.Import(ctx, env.user.ID, "ada")
	c.Assert(err, qt.IsNil)
	c.Assert(again.Imported, qt.HasLen, 0)

	var count int64
	c.Assert(env.db.Model(&models.Article{}).Where("title = ?", "123456").Count(&count).Error, qt.IsNil)
	c.Assert(count, qt.Equals, int64(0))
}

func TestImportRoutes(t *testing.T) {
	c := qt.New(t)
	env := newImportEnv(t)

	app := fiber.New()
	app.Use(func(ctx *fiber.Ctx) error {
		if ctx.Get("X-User") != "" {
			principal.Set(ctx, principal.Principal{ID: env.user.ID, Username: "writer"})
		}
		return ctx.Next()
	})
	plugin := New(env.svc.articles, nil, nil)
	plugin.RegisterRoutes(app.Group("/api"), env.db, &config.Config{MediumFeedURL: env.srv.URL + "/feed/"})

	post := func(path, body string, authed bool) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if authed {
			req.Header.Set("X-User", "writer")
		}
		resp, err := app.Test(req)
		c.Assert(err, qt.IsNil)
		return resp
	}

	resp := post("/api/import/medium/generate-code", `{"username":"ada"}`, false)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusUnauthorized)

	resp = post("/api/import/medium/generate-code", `{"username":"ada"}`, true)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusOK)
	var generated GenerateCodeResponse
	c.Assert(json.NewDecoder(resp.Body).Decode(&generated), qt.IsNil)
	c.Assert(generated.ArticleCount, qt.Equals, 3)

	resp = post("/api/import/medium/verify", `{"username":"other"}`, true)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusBadRequest)

	resp = post("/api/import/medium/import", `{"username":"ada"}`, true)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusBadRequest)

	resp = post("/api/import/medium/verify", `{"username":"ada"}`, true)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusOK)

	resp = post("/api/import/medium/import", `{"username":"ada"}`, true)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusOK)
	var imported ImportResponse
	c.Assert(json.NewDecoder(resp.Body).Decode(&imported), qt.IsNil)
	c.Assert(imported.Imported, qt.HasLen, 2)

	resp = post("/api/import/medium/generate-code", `{"username":"broken"}`, true)
	c.Assert(resp.StatusCode, qt.Equals, fiber.StatusBadGateway)
}
