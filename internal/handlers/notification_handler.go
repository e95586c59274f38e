package handlers

import (
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List serves GET /notifications?unreadOnly=true.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	resp, err := h.notifications.List(c.UserContext(), user.ID, c.QueryBool("unreadOnly"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	count, err := h.notifications.UnreadCount(c.UserContext(), user.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid notification id",
		})
	}

	if err := h.notifications.MarkRead(c.UserContext(), user.ID, uint(id)); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	if err := h.notifications.MarkAllRead(c.UserContext(), user.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}
