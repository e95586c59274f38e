package handlers

import (
	"github.com/blogium/blogium-api/internal/dto"
	"github.com/blogium/blogium-api/internal/principal"
	"github.com/blogium/blogium-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *fiber.Ctx) error {
	comments, err := h.comments.ListComments(c.UserContext(), principal.Get(c), c.Params("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.CommentListResponse{Comments: comments})
}

func (h *CommentHandler) Add(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	var req dto.AddCommentRequest
	if !bind(c, &req) {
		return nil
	}

	comment, err := h.comments.AddComment(c.UserContext(), user, c.Params("slug"), req.Body)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CommentResponse{Comment: *comment})
}

func (h *CommentHandler) Delete(c *fiber.Ctx) error {
	user, ok := caller(c)
	if !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid comment id",
		})
	}

	if err := h.comments.DeleteComment(c.UserContext(), user, uint(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
