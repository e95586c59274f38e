package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// bind parses the JSON body into req and validates it. When it returns
// false the 400 response has already been written.
func bind(c *fiber.Ctx, req interface{}) bool {
	if err := c.BodyParser(req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
		return false
	}
	if err := validate.Struct(req); err != nil {
		c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: validationMessage(err),
		})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "username":
		return fmt.Sprintf("%s may only contain letters, digits and underscores", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// caller returns the authenticated principal. When it returns false the 401
// response has already been written.
func caller(c *fiber.Ctx) (principal.Principal, bool) {
	user := principal.Get(c)
	if !user.Authenticated() {
		c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
		return user, false
	}
	return user, true
}

// queryInt returns a non-negative integer query parameter, or nil when it is
// absent or malformed.
func queryInt(c *fiber.Ctx, key string) *int {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// fail maps a service error to its HTTP status. Unknown errors are logged
// and reported as 500 without details.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrArticleNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrNotArticleAuthor),
		errors.Is(err, services.ErrNotCommentAuthor):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUsernameTaken):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrEmailNotVerified):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrSelfFollow),
		errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrCodeExpired),
		errors.Is(err, services.ErrInvalidResetToken),
		errors.Is(err, services.ErrUnknownProvider):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUpstream):
		status = fiber.StatusBadGateway
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		message := "Internal server error"
		if status == fiber.StatusBadGateway {
			message = "Upstream service unavailable"
		}
		return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
}
