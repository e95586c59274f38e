package handlers

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/blogium/blogium-api/internal/config"
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.OAuthService
	cfg          *config.Config
}

func NewAuthHandler(authService *services.AuthService, oauthService *services.OAuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, oauthService: oauthService, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if !bind(c, &req) {
		return nil
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if !bind(c, &req) {
		return nil
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if !bind(c, &req) {
		return nil
	}

	resp, err := h.authService.VerifyEmail(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *AuthHandler) ResendCode(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if !bind(c, &req) {
		return nil
	}

	if err := h.authService.ResendVerificationCode(c.UserContext(), req.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Verification code sent"})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if !bind(c, &req) {
		return nil
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password reset link sent"})
}

// ResetPassword accepts either the emailed token or an email plus code.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if !bind(c, &req) {
		return nil
	}

	var err error
	switch {
	case req.Token != "":
		err = h.authService.ResetPasswordWithToken(c.UserContext(), req.Token, req.NewPassword)
	case req.Email != "" && req.Code != "":
		err = h.authService.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "token or email and code are required",
		})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Password updated"})
}

// OAuthRedirect starts the provider login and remembers the state in a
// short-lived cookie.
func (h *AuthHandler) OAuthRedirect(c *fiber.Ctx) error {
	provider := c.Params("provider")
	state := services.NewState()

	target, err := h.oauthService.AuthCodeURL(provider, state)
	if err != nil {
		return fail(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

// OAuthCallback finishes the provider login and hands the token to the
// frontend. Every failure lands on the login page.
func (h *AuthHandler) OAuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	state := c.Cookies(oauthStateCookie)
	c.ClearCookie(oauthStateCookie)

	if state == "" || c.Query("state") != state || c.Query("code") == "" {
		slog.Warn("oauth callback rejected", "provider", provider, "reason", "state mismatch")
		return h.redirectLoginError(c)
	}

	token, err := h.oauthService.Complete(c.UserContext(), provider, c.Query("code"))
	if err != nil {
		slog.Error("oauth login failed", "provider", provider, "error", err)
		return h.redirectLoginError(c)
	}

	return c.Redirect(h.frontend("/auth/callback?token="+url.QueryEscape(token)), fiber.StatusFound)
}

func (h *AuthHandler) redirectLoginError(c *fiber.Ctx) error {
	return c.Redirect(h.frontend("/login?error=oauth_failed"), fiber.StatusFound)
}

func (h *AuthHandler) frontend(path string) string {
	return strings.TrimRight(h.cfg.FrontendURL, "/") + path
}
