package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/models"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func register(t *testing.T, env *testEnv) *dto.UserResponse {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), &dto.RegisterRequest{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp
}

func lastCode(t *testing.T, env *testEnv) string {
	t.Helper()
	sent := env.mailer.messages()
	if len(sent) == 0 {
		t.Fatal("no email sent")
	}
	code := codePattern.FindString(sent[len(sent)-1].HTML)
	if code == "" {
		t.Fatal("no code in email")
	}
	return code
}

func TestRegisterAndVerify(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	resp := register(t, env)
	c.Assert(resp.Token, qt.Equals, "")
	c.Assert(resp.Email, qt.Equals, "ada@example.com")
	c.Assert(resp.EmailVerified, qt.IsFalse)

	_, err := env.auth.Register(ctx, &dto.RegisterRequest{Username: "other", Email: "ada@example.com", Password: "secret-password"})
	c.Assert(err, qt.ErrorIs, ErrEmailTaken)
	_, err = env.auth.Register(ctx, &dto.RegisterRequest{Username: "ada", Email: "x@example.com", Password: "secret-password"})
	c.Assert(err, qt.ErrorIs, ErrUsernameTaken)

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "secret-password"})
	c.Assert(err, qt.ErrorIs, ErrEmailNotVerified)

	code := lastCode(t, env)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = env.auth.VerifyEmail(ctx, "ada@example.com", wrong)
	c.Assert(err, qt.ErrorIs, ErrInvalidCode)

	verified, err := env.auth.VerifyEmail(ctx, "ada@example.com", code)
	c.Assert(err, qt.IsNil)
	c.Assert(verified.EmailVerified, qt.IsTrue)
	c.Assert(verified.Token, qt.Not(qt.Equals), "")

	// Welcome email follows the verification email.
	sent := env.mailer.messages()
	c.Assert(sent, qt.HasLen, 2)
	c.Assert(sent[1].Subject, qt.Equals, "Welcome to Blogium")

	// Verifying again is a success.
	_, err = env.auth.VerifyEmail(ctx, "ada@example.com", code)
	c.Assert(err, qt.IsNil)

	login, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "ADA@example.com", Password: "secret-password"})
	c.Assert(err, qt.IsNil)
	c.Assert(login.Token, qt.Not(qt.Equals), "")

	_, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	c.Assert(err, qt.ErrorIs, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	c.Assert(err, qt.ErrorIs, ErrInvalidCredentials)
}

func TestVerifyExpiredCode(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	register(t, env)
	code := lastCode(t, env)

	env.auth.now = func() time.Time { return time.Now().UTC().Add(16 * time.Minute) }
	_, err := env.auth.VerifyEmail(ctx, "ada@example.com", code)
	c.Assert(err, qt.ErrorIs, ErrCodeExpired)

	c.Assert(env.auth.ResendVerificationCode(ctx, "ada@example.com"), qt.IsNil)
	fresh := lastCode(t, env)
	_, err = env.auth.VerifyEmail(ctx, "ada@example.com", fresh)
	c.Assert(err, qt.IsNil)

	c.Assert(env.auth.ResendVerificationCode(ctx, "ada@example.com"), qt.ErrorIs, ErrAlreadyVerified)
	c.Assert(env.auth.ResendVerificationCode(ctx, "ghost@example.com"), qt.ErrorIs, ErrUserNotFound)
}

func TestExternalUserLoginIsRejected(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	_, err := env.auth.FindOrCreateExternalUser(context.Background(), "gh@example.com", "octo", "")
	c.Assert(err, qt.IsNil)

	_, err = env.auth.Login(context.Background(), &dto.LoginRequest{Email: "gh@example.com", Password: ""})
	c.Assert(err, qt.ErrorIs, ErrInvalidCredentials)
}

func TestPasswordResetWithToken(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	env.user(t, "ada")
	c.Assert(env.auth.ForgotPassword(ctx, "ada@example.com"), qt.IsNil)
	c.Assert(env.auth.ForgotPassword(ctx, "ghost@example.com"), qt.ErrorIs, ErrUserNotFound)

	var user models.User
	c.Assert(env.db.Where("username = ?", "ada").First(&user).Error, qt.IsNil)
	c.Assert(user.PasswordResetCode, qt.IsNotNil)
	token := *user.PasswordResetCode

	sent := env.mailer.messages()
	c.Assert(sent, qt.HasLen, 1)
	c.Assert(sent[0].HTML, qt.Contains, "https://blogium.test/reset-password?")

	c.Assert(env.auth.ResetPasswordWithToken(ctx, "bogus", "brand-new-pw"), qt.ErrorIs, ErrInvalidResetToken)
	c.Assert(env.auth.ResetPasswordWithToken(ctx, token, "brand-new-pw"), qt.IsNil)
	// Tokens are single use.
	c.Assert(env.auth.ResetPasswordWithToken(ctx, token, "another-pw"), qt.ErrorIs, ErrInvalidResetToken)

	_, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "ada@example.com", Password: "brand-new-pw"})
	c.Assert(err, qt.IsNil)
}

func TestPasswordResetWithCodeExpires(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	env.user(t, "ada")
	c.Assert(env.auth.ForgotPassword(ctx, "ada@example.com"), qt.IsNil)

	var user models.User
	c.Assert(env.db.Where("username = ?", "ada").First(&user).Error, qt.IsNil)

	c.Assert(env.auth.ResetPassword(ctx, "ada@example.com", "wrong", "brand-new-pw"), qt.ErrorIs, ErrInvalidResetToken)

	env.auth.now = func() time.Time { return time.Now().UTC().Add(31 * time.Minute) }
	err := env.auth.ResetPassword(ctx, "ada@example.com", *user.PasswordResetCode, "brand-new-pw")
	c.Assert(err, qt.ErrorIs, ErrInvalidResetToken)
}

func TestFindOrCreateExternalUser(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)
	ctx := context.Background()

	env.user(t, "octo")
	env.user(t, "octo1")

	created, err := env.auth.FindOrCreateExternalUser(ctx, "Octo@GitHub.test", "octo", "")
	c.Assert(err, qt.IsNil)
	c.Assert(created.Username, qt.Equals, "octo2")
	c.Assert(created.EmailVerified, qt.IsTrue)
	c.Assert(created.PasswordHash, qt.IsNil)
	c.Assert(created.Image, qt.IsNil)

	again, err := env.auth.FindOrCreateExternalUser(ctx, "octo@github.test", "someone-else", "https://avatars.test/octo.png")
	c.Assert(err, qt.IsNil)
	c.Assert(again.ID, qt.Equals, created.ID)
	c.Assert(*again.Image, qt.Equals, "https://avatars.test/octo.png")

	// An existing avatar is kept.
	kept, err := env.auth.FindOrCreateExternalUser(ctx, "octo@github.test", "octo", "https://avatars.test/new.png")
	c.Assert(err, qt.IsNil)
	c.Assert(*kept.Image, qt.Equals, "https://avatars.test/octo.png")
}

func TestSixDigitCode(t *testing.T) {
	c := qt.New(t)
	for i := 0; i < 100; i++ {
		code, err := SixDigitCode()
		c.Assert(err, qt.IsNil)
		c.Assert(code, qt.Matches, `[1-9]\d{5}`)
	}
}

func TestResetTokenIsUnique(t *testing.T) {
	c := qt.New(t)
	a, b := ResetToken(), ResetToken()
	c.Assert(a, qt.Not(qt.Equals), b)
	c.Assert(len(a), qt.Equals, 48)
}
