// Package mail renders and delivers Blogium's transactional emails.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"time"

	"github.com/blogium/blogium-api/internal/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when SMTP_HOST is configured and a logging
// mailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer delivers through an SMTP relay with gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFromEmail,
		name:   cfg.SMTPFromName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, m.name)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent, SMTP disabled", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}

var templates = map[string]*template.Template{}

func init() {
	for _, name := range []string{"verification", "welcome", "new_follower", "password_reset"} {
		templates[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
}

func render(name, to, subject string, data map[string]any) (Message, error) {
	data["Subject"] = subject
	var buf bytes.Buffer
	if err := templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", name, err)
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

// Composer builds the transactional emails with links into the frontend.
type Composer struct {
	frontendURL string
}

func NewComposer(frontendURL string) *Composer {
	return &Composer{frontendURL: frontendURL}
}

func (c *Composer) Verification(to, username, code string, ttl time.Duration) (Message, error) {
	return render("verification", to, "Verify your Blogium email", map[string]any{
		"Username":  username,
		"Code":      code,
		"ExpiresIn": humanize(ttl),
	})
}

func (c *Composer) Welcome(to, username string) (Message, error) {
	return render("welcome", to, "Welcome to Blogium", map[string]any{
		"Username": username,
		"Link":     c.frontendURL + "/editor",
	})
}

func (c *Composer) NewFollower(to, username, follower string) (Message, error) {
	return render("new_follower", to, follower+" is now following you", map[string]any{
		"Username": username,
		"Follower": follower,
		"Link":     c.frontendURL + "/profile/" + url.PathEscape(follower),
	})
}

// PasswordReset links to FRONTEND_URL/reset-password with the token and email.
func (c *Composer) PasswordReset(to, username, token string, ttl time.Duration) (Message, error) {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", to)
	return render("password_reset", to, "Reset your Blogium password", map[string]any{
		"Username":  username,
		"Link":      c.frontendURL + "/reset-password?" + q.Encode(),
		"ExpiresIn": humanize(ttl),
	})
}

func humanize(d time.Duration) string {
	if d%time.Hour == 0 && d >= time.Hour {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
