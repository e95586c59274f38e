// Package events runs post-commit side effects inside their own failure
// boundary. A side effect that errors or panics is recorded as a dead letter
// and never reaches the caller of the primary mutation.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// Event names used for dead-letter records.
const (
	ArticleFavorited  = "article_favorited"
	ArticleCommented  = "article_comment"
	UserFollowed      = "user_followed"
	FollowEmail       = "follow_email"
	VerificationEmail = "verification_email"
	WelcomeEmail      = "welcome_email"
	PasswordEmail     = "password_reset_email"
)

// Handler is a side effect. It receives a context detached from the
// request's cancellation.
type Handler func(ctx context.Context) error

type Dispatcher struct {
	logger  *slog.Logger
	timeout time.Duration
	report  func(error)
}

type Option func(*Dispatcher)

// WithLogger overrides the logger used for dead letters.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithReporter overrides the error reporter (Sentry by default).
func WithReporter(fn func(error)) Option {
	return func(d *Dispatcher) { d.report = fn }
}

// WithTimeout bounds each side effect.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		timeout: 30 * time.Second,
		report: func(err error) {
			sentry.CaptureException(err)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fire runs fn synchronously. It reports whether the side effect succeeded,
// which callers are free to ignore.
func (d *Dispatcher) Fire(ctx context.Context, name string, fn Handler, attrs ...any) (ok bool) {
	if d == nil {
		return false
	}

	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.deadLetter(name, fmt.Errorf("panic: %v", r), start, attrs)
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		d.deadLetter(name, err, start, attrs)
		return false
	}
	return true
}

func (d *Dispatcher) deadLetter(name string, err error, start time.Time, attrs []any) {
	logger := d.logger
	if logger == nil {
		logger = slog.Default()
	}

	args := append([]any{
		"action", "dead_letter",
		"event", name,
		"error", err.Error(),
		"latency_ms", float64(time.Since(start).Microseconds()) / 1000,
	}, attrs...)
	logger.Error("post-commit side effect failed", args...)

	if d.report != nil {
		d.report(fmt.Errorf("%s: %w", name, err))
	}
}
