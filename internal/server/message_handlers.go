package server

import (
	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitContactMessage handles POST /api/messages/contact. The sender's
// name and email come from the authenticated account unless the body
// overrides them.
func (s *Server) SubmitContactMessage(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Subject  string `json:"subject"`
		Message  string `json:"message"`
		Category string `json:"category"`
		Priority string `json:"priority"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name == "" {
		req.Name = user.Name
	}
	if req.Email == "" {
		req.Email = user.Email
	}

	msg, err := s.messageService.Submit(c.Context(), service.SubmitMessageInput{
		Name:     req.Name,
		Email:    req.Email,
		Subject:  req.Subject,
		Body:     req.Message,
		Category: req.Category,
		Priority: req.Priority,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}
