package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/blogium/blogium-api/internal/config"
)

func TestVerificationEmail(t *testing.T) {
	c := qt.New(t)
	msg, err := NewComposer("https://blogium.dev").Verification("ada@example.com", "ada", "123456", 15*time.Minute)
	c.Assert(err, qt.IsNil)
	c.Assert(msg.To, qt.Equals, "ada@example.com")
	c.Assert(msg.HTML, qt.Contains, "123456")
	c.Assert(msg.HTML, qt.Contains, "15 minutes")
}

func TestPasswordResetLink(t *testing.T) {
	c := qt.New(t)
	msg, err := NewComposer("https://blogium.dev").PasswordReset("ada+x@example.com", "ada", "tok/en==", 30*time.Minute)
	c.Assert(err, qt.IsNil)
	// html/template escapes & inside attributes.
	c.Assert(msg.HTML, qt.Contains, "https://blogium.dev/reset-password?email=ada%2Bx%40example.com&amp;token=tok%2Fen%3D%3D")
}

func TestNewFollowerEscapesName(t *testing.T) {
	c := qt.New(t)
	msg, err := NewComposer("https://blogium.dev").NewFollower("bob@example.com", "bob", "<script>")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.Contains(msg.HTML, "<script>"), qt.IsFalse)
	c.Assert(msg.Subject, qt.Equals, "<script> is now following you")
}

func TestNewPicksLogMailerWithoutHost(t *testing.T) {
	c := qt.New(t)
	m := New(&config.Config{})
	c.Assert(m, qt.Equals, Mailer(LogMailer{}))
	c.Assert(m.Send(context.Background(), Message{To: "x@example.com"}), qt.IsNil)

	_, ok := New(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}).(*SMTPMailer)
	c.Assert(ok, qt.IsTrue)
}

func TestHumanize(t *testing.T) {
	c := qt.New(t)
	c.Assert(humanize(15*time.Minute), qt.Equals, "15 minutes")
	c.Assert(humanize(2*time.Hour), qt.Equals, "2 hours")
}
