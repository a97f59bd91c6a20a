package server

import (
	"mime/multipart"
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// formFiles pulls the uploaded files for a field out of a multipart request.
// A request without a multipart body simply has no files.
func formFiles(c *fiber.Ctx, field string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

// CreateOrder handles POST /api/orders/create.
func (s *Server) CreateOrder(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	in := service.CreateOrderInput{
		UserID:      user.ID,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Priority:    c.FormValue("priority"),
		Tags:        c.FormValue("tags"),
		Files:       formFiles(c, "files"),
	}
	if deadline := c.FormValue("deadline"); deadline != "" {
		t, parseErr := time.Parse(time.RFC3339, deadline)
		if parseErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Deadline must be an RFC3339 timestamp"))
		}
		in.Deadline = &t
	}

	order, err := s.orderService.CreateOrder(c.Context(), in)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// GetOrder handles GET /api/orders/:id and GET /api/admin/orders/:id.
func (s *Server) GetOrder(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	order, err := s.orderService.GetOrder(c.Context(), user, id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"order": order})
}

// GetMyOrders handles GET /api/orders.
func (s *Server) GetMyOrders(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	orders, err := s.orderService.ListOrdersForUser(c.Context(), user.ID, p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// RequestRevision handles POST /api/orders/:id/revision.
func (s *Server) RequestRevision(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		RevisionDescription string `json:"revisionDescription"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	order, err := s.orderService.RequestRevision(c.Context(), user, id, req.RevisionDescription)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// GetUserDashboard handles GET /api/user/dashboard.
func (s *Server) GetUserDashboard(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	counts, err := s.orderService.CountsForUser(c.Context(), user.ID)
	if err != nil {
		return respondErr(c, err)
	}
	recent, err := s.orderService.ListOrdersForUser(c.Context(), user.ID, 5, 0)
	if err != nil {
		return respondErr(c, err)
	}
	unread, err := s.notifService.UnreadCount(c.Context(), user.ID)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"stats":                counts,
		"recent_orders":        recent,
		"unread_notifications": unread,
	})
}
