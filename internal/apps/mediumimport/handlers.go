package mediumimport

import (
	"errors"
	"log/slog"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ImportHandler struct {
	service *ImportService
}

func NewImportHandler(service *ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

func (h *ImportHandler) GenerateCode(c *fiber.Ctx) error {
	user, username, ok := h.input(c)
	if !ok {
		return nil
	}

	resp, err := h.service.GenerateCode(c.UserContext(), user.ID, username)
	if err != nil {
		return importError(c, err)
	}
	return c.JSON(resp)
}

func (h *ImportHandler) Verify(c *fiber.Ctx) error {
	user, username, ok := h.input(c)
	if !ok {
		return nil
	}

	resp, err := h.service.Verify(c.UserContext(), user.ID, username)
	if err != nil {
		return importError(c, err)
	}
	return c.JSON(resp)
}

func (h *ImportHandler) Import(c *fiber.Ctx) error {
	user, username, ok := h.input(c)
	if !ok {
		return nil
	}

	resp, err := h.service.Import(c.UserContext(), user.ID, username)
	if err != nil {
		return importError(c, err)
	}
	return c.JSON(resp)
}

// input returns the caller and the requested Medium username. When ok is
// false the error response has already been written.
func (h *ImportHandler) input(c *fiber.Ctx) (user principal.Principal, username string, ok bool) {
	user = principal.Get(c)
	if !user.Authenticated() {
		c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
		return user, "", false
	}

	var req MediumUsernameRequest
	if err := c.BodyParser(&req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
		return user, "", false
	}
	return user, req.Username, true
}

func importError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUsernameRequired),
		errors.Is(err, ErrMediumUserNotFound),
		errors.Is(err, ErrNoArticles),
		errors.Is(err, ErrNoPendingCode),
		errors.Is(err, ErrUsernameMismatch),
		errors.Is(err, ErrNotVerified):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrUpstream):
		slog.Warn("medium feed failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not read the Medium feed",
		})
	}
	slog.Error("medium import failed", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Medium import failed",
	})
}
