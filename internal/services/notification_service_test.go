package services

import (
	"context"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/blogium/blogium-api/internal/models"
)

func TestNotifySkipsSelf(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ada := env.user(t, "ada")

	err := env.notifications.Notify(context.Background(), NotifyParams{
		RecipientID: ada.ID,
		Type:        models.NotificationUserFollowed,
		Message:     "self",
		ActorID:     ptr(ada.ID),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(env.notificationsFor(t, ada.ID), qt.HasLen, 0)
}

func TestNotificationListAndRead(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.user(t, "ada")
	bob := env.user(t, "bob")
	view := env.article(t, ada, "Loved")

	_, err := env.articles.FavoriteArticle(ctx, bob, view.Slug)
	c.Assert(err, qt.IsNil)
	_, err = env.users.FollowUser(ctx, bob, "ada")
	c.Assert(err, qt.IsNil)

	list, err := env.notifications.List(ctx, ada.ID, false)
	c.Assert(err, qt.IsNil)
	c.Assert(list.UnreadCount, qt.Equals, int64(2))
	c.Assert(list.Notifications, qt.HasLen, 2)

	follow, fav := list.Notifications[0], list.Notifications[1]
	c.Assert(follow.Type, qt.Equals, models.NotificationUserFollowed)
	c.Assert(follow.Article, qt.IsNil)
	c.Assert(follow.Actor.Username, qt.Equals, "bob")
	c.Assert(fav.Type, qt.Equals, models.NotificationArticleFavorited)
	c.Assert(fav.Article.Slug, qt.Equals, view.Slug)
	c.Assert(fav.Article.Title, qt.Equals, "Loved")
	c.Assert(fav.Actor.ID, qt.Equals, bob.ID)

	// Someone else cannot mark ada's notification.
	c.Assert(env.notifications.MarkRead(ctx, bob.ID, fav.ID), qt.IsNil)
	count, err := env.notifications.UnreadCount(ctx, ada.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, int64(2))

	c.Assert(env.notifications.MarkRead(ctx, ada.ID, fav.ID), qt.IsNil)
	unread, err := env.notifications.List(ctx, ada.ID, true)
	c.Assert(err, qt.IsNil)
	c.Assert(unread.Notifications, qt.HasLen, 1)
	c.Assert(unread.Notifications[0].ID, qt.Equals, follow.ID)
	c.Assert(unread.UnreadCount, qt.Equals, int64(1))
}

func TestMarkAllReadThenUnreadCountIsZero(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.user(t, "ada")
	bob := env.user(t, "bob")
	for i := 0; i < 3; i++ {
		c.Assert(env.notifications.Notify(ctx, NotifyParams{
			RecipientID: ada.ID,
			Type:        models.NotificationUserFollowed,
			Message:     fmt.Sprintf("event %d", i),
			ActorID:     ptr(bob.ID),
		}), qt.IsNil)
	}

	c.Assert(env.notifications.MarkAllRead(ctx, ada.ID), qt.IsNil)
	count, err := env.notifications.UnreadCount(ctx, ada.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, int64(0))
}

func TestNotificationListCapsAtFifty(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.user(t, "ada")
	for i := 0; i < 55; i++ {
		c.Assert(env.notifications.Notify(ctx, NotifyParams{
			RecipientID: ada.ID,
			Type:        models.NotificationArticleComment,
			Message:     fmt.Sprintf("comment %d", i),
		}), qt.IsNil)
	}

	list, err := env.notifications.List(ctx, ada.ID, false)
	c.Assert(err, qt.IsNil)
	c.Assert(list.Notifications, qt.HasLen, 50)
	c.Assert(list.UnreadCount, qt.Equals, int64(55))
	c.Assert(list.Notifications[0].Message, qt.Equals, "comment 54")
}
