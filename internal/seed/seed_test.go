package seed

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogium/blogium-api/internal/events"
	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/blogium/blogium-api/internal/testutil"
)

func TestRun(t *testing.T) {
	c := qt.New(t)
	db := testutil.NewDB(t)
	notifications := services.NewNotificationService(db)
	articles := services.NewArticleService(db, notifications, events.NewDispatcher(events.WithReporter(func(error) {})))
	ctx := context.Background()
	opts := Options{Users: 3, ArticlesPerUser: 2, HashCost: bcrypt.MinCost}

	res, err := Run(ctx, db, articles, opts)
	c.Assert(err, qt.IsNil)
	c.Assert(*res, qt.DeepEquals, Result{Users: 3, Articles: 6, Favorites: 3, Follows: 3})

	var count int64
	c.Assert(db.Model(&models.Article{}).Count(&count).Error, qt.IsNil)
	c.Assert(count, qt.Equals, int64(6))
	c.Assert(db.Model(&models.Notification{}).Where("type = ?", models.NotificationArticleFavorited).Count(&count).Error, qt.IsNil)
	c.Assert(count, qt.Equals, int64(3))

	tags, err := articles.ListTags(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(len(tags) > 0, qt.IsTrue)

	var demo models.User
	c.Assert(db.Where("username = ?", "demo_1").First(&demo).Error, qt.IsNil)
	c.Assert(demo.EmailVerified, qt.IsTrue)
	c.Assert(bcrypt.CompareHashAndPassword([]byte(*demo.PasswordHash), []byte(DefaultPassword)), qt.IsNil)

	again, err := Run(ctx, db, articles, opts)
	c.Assert(err, qt.IsNil)
	c.Assert(again.Users, qt.Equals, 0)
	c.Assert(again.Follows, qt.Equals, 0)
	c.Assert(again.Articles, qt.Equals, 6)
	c.Assert(db.Model(&models.User{}).Count(&count).Error, qt.IsNil)
	c.Assert(count, qt.Equals, int64(3))
}

func TestRunSingleUser(t *testing.T) {
	c := qt.New(t)
	db := testutil.NewDB(t)
	articles := services.NewArticleService(db, services.NewNotificationService(db), events.NewDispatcher())

	res, err := Run(context.Background(), db, articles, Options{Users: 1, ArticlesPerUser: 1, HashCost: bcrypt.MinCost})
	c.Assert(err, qt.IsNil)
	c.Assert(*res, qt.DeepEquals, Result{Users: 1, Articles: 1})
}

func TestRunRejectsBadOptions(t *testing.T) {
	c := qt.New(t)
	db := testutil.NewDB(t)

	_, err := Run(context.Background(), db, nil, Options{Users: 0, ArticlesPerUser: 1})
	c.Assert(err, qt.Equals, ErrInvalidOptions)
}
