package handlers

import (
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Current(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	resp, err := h.users.GetCurrentUser(c.UserContext(), user)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	var req dto.UpdateUserRequest
	if !bind(c, &req) {
		return nil
	}

	resp, err := h.users.UpdateUser(c.UserContext(), user, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	profile, err := h.users.GetProfile(c.UserContext(), principal.Get(c), c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

func (h *UserHandler) Follow(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	profile, err := h.users.FollowUser(c.UserContext(), user, c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}

func (h *UserHandler) Unfollow(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	profile, err := h.users.UnfollowUser(c.UserContext(), user, c.Params("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(profile)
}
