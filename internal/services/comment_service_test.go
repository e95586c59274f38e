package services

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/blogium/blogium-api/internal/models"
	"github.com/blogium/blogium-api/internal/principal"
)

func TestCommentsNewestFirst(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.user(t, "ada")
	bob := env.user(t, "bob")
	view := env.article(t, ada, "Commented")

	first, err := env.comments.AddComment(ctx, bob, view.Slug, "first")
	c.Assert(err, qt.IsNil)
	c.Assert(env.db.Model(&models.Comment{}).Where("id = ?", first.ID).
		UpdateColumn("created_at", time.Now().UTC().Add(-time.Hour)).Error, qt.IsNil)
	_, err = env.comments.AddComment(ctx, ada, view.Slug, "second")
	c.Assert(err, qt.IsNil)

	_, err = env.users.FollowUser(ctx, ada, "bob")
	c.Assert(err, qt.IsNil)

	list, err := env.comments.ListComments(ctx, ada, view.Slug)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 2)
	c.Assert(list[0].Body, qt.Equals, "second")
	c.Assert(list[0].Author.Following, qt.IsFalse)
	c.Assert(list[1].Body, qt.Equals, "first")
	c.Assert(list[1].Author.Username, qt.Equals, "bob")
	c.Assert(list[1].Author.Following, qt.IsTrue)

	_, err = env.comments.ListComments(ctx, principal.Anonymous, "missing")
	c.Assert(err, qt.ErrorIs, ErrArticleNotFound)
}

func TestAddCommentNotifiesAuthor(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.user(t, "ada")
	bob := env.user(t, "bob")
	view := env.article(t, ada, "Commented")

	comment, err := env.comments.AddComment(ctx, bob, view.Slug, "great read")
	c.Assert(err, qt.IsNil)
	c.Assert(comment.Author.Username, qt.Equals, "bob")

	_, err = env.comments.AddComment(ctx, ada, view.Slug, "thanks")
	c.Assert(err, qt.IsNil)

	notes := env.notificationsFor(t, ada.ID)
	c.Assert(notes, qt.HasLen, 1)
	c.Assert(notes[0].Type, qt.Equals, models.NotificationArticleComment)
	c.Assert(*notes[0].ActorID, qt.Equals, bob.ID)

	_, err = env.comments.AddComment(ctx, bob, "missing", "hello")
	c.Assert(err, qt.ErrorIs, ErrArticleNotFound)
}

func TestDeleteComment(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.user(t, "ada")
	bob := env.user(t, "bob")
	view := env.article(t, ada, "Commented")

	comment, err := env.comments.AddComment(ctx, bob, view.Slug, "mine")
	c.Assert(err, qt.IsNil)

	c.Assert(env.comments.DeleteComment(ctx, ada, comment.ID), qt.ErrorIs, ErrNotCommentAuthor)
	c.Assert(env.comments.DeleteComment(ctx, bob, comment.ID), qt.IsNil)
	c.Assert(env.comments.DeleteComment(ctx, bob, comment.ID), qt.ErrorIs, ErrCommentNotFound)
}
