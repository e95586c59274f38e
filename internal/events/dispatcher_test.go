package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	qt "github.com/frankban/quicktest"
)

func newTestDispatcher() (*Dispatcher, *bytes.Buffer, *[]error) {
	var buf bytes.Buffer
	var reported []error
	d := NewDispatcher(
		WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
		WithReporter(func(err error) { reported = append(reported, err) }),
	)
	return d, &buf, &reported
}

func TestFireSuccess(t *testing.T) {
	c := qt.New(t)
	d, buf, reported := newTestDispatcher()

	called := false
	ok := d.Fire(context.Background(), UserFollowed, func(ctx context.Context) error {
		called = true
		return nil
	})
	c.Assert(ok, qt.IsTrue)
	c.Assert(called, qt.IsTrue)
	c.Assert(buf.Len(), qt.Equals, 0)
	c.Assert(*reported, qt.HasLen, 0)
}

func TestFireErrorBecomesDeadLetter(t *testing.T) {
	c := qt.New(t)
	d, buf, reported := newTestDispatcher()

	ok := d.Fire(context.Background(), FollowEmail, func(ctx context.Context) error {
		return errors.New("smtp unavailable")
	}, "user_id", uint(3))
	c.Assert(ok, qt.IsFalse)

	var entry map[string]interface{}
	c.Assert(json.Unmarshal(buf.Bytes(), &entry), qt.IsNil)
	c.Assert(entry["level"], qt.Equals, "ERROR")
	c.Assert(entry["action"], qt.Equals, "dead_letter")
	c.Assert(entry["event"], qt.Equals, FollowEmail)
	c.Assert(entry["error"], qt.Equals, "smtp unavailable")
	c.Assert(entry["user_id"], qt.Equals, float64(3))

	c.Assert(*reported, qt.HasLen, 1)
	c.Assert((*reported)[0], qt.ErrorMatches, "follow_email: smtp unavailable")
}

func TestFireRecoversPanic(t *testing.T) {
	c := qt.New(t)
	d, buf, reported := newTestDispatcher()

	ok := d.Fire(context.Background(), ArticleFavorited, func(ctx context.Context) error {
		panic("boom")
	})
	c.Assert(ok, qt.IsFalse)
	c.Assert(buf.String(), qt.Contains, "panic: boom")
	c.Assert(*reported, qt.HasLen, 1)
}

func TestFireIgnoresRequestCancellation(t *testing.T) {
	c := qt.New(t)
	d, _, _ := newTestDispatcher()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := d.Fire(ctx, WelcomeEmail, func(ctx context.Context) error {
		return ctx.Err()
	})
	c.Assert(ok, qt.IsTrue)
}

func TestNilDispatcher(t *testing.T) {
	var d *Dispatcher
	qt.Assert(t, d.Fire(context.Background(), UserFollowed, func(context.Context) error { return nil }), qt.IsFalse)
}
