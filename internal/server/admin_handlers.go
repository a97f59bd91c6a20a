package server

import (
	"time"

	"atelier/internal/models"
	"atelier/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetDashboardStats handles GET /api/admin/dashboard/stats.
func (s *Server) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := s.adminService.GetDashboardStats(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// GetSystemHealth handles GET /api/admin/system/health.
func (s *Server) GetSystemHealth(c *fiber.Ctx) error {
	return c.JSON(s.adminService.GetSystemHealth(c.Context()))
}

// ListAllOrders handles GET /api/admin/orders.
func (s *Server) ListAllOrders(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	orders, err := s.orderService.ListAllOrders(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// UpdateOrderStatus handles POST /api/admin/orders/:id/status.
func (s *Server) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status             string   `json:"status"`
		Price              *float64 `json:"price"`
		Deadline           *string  `json:"deadline"`
		CancellationReason string   `json:"cancellation_reason"`
		AdminNotes         string   `json:"admin_notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateStatusInput{
		Status:             req.Status,
		Price:              req.Price,
		CancellationReason: req.CancellationReason,
		AdminNotes:         req.AdminNotes,
	}
	if req.Deadline != nil && *req.Deadline != "" {
		t, parseErr := time.Parse(time.RFC3339, *req.Deadline)
		if parseErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Deadline must be an RFC3339 timestamp"))
		}
		in.Deadline = &t
	}

	order, err := s.orderService.SetStatus(c.Context(), id, in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// DeliverOrder handles POST /api/admin/orders/:id/deliver.
func (s *Server) DeliverOrder(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	order, err := s.orderService.Deliver(c.Context(), id, formFiles(c, "deliveryFiles"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// SetOrderNotes handles POST /api/admin/orders/:id/notes.
func (s *Server) SetOrderNotes(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	order, err := s.orderService.SetAdminNotes(c.Context(), id, req.Notes)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// ListPendingRevisions handles GET /api/admin/revisions.
func (s *Server) ListPendingRevisions(c *fiber.Ctx) error {
	orders, err := s.orderService.ListPendingRevisions(c.Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"revisions": orders})
}

// DecideRevision handles POST /api/admin/revisions/:id/decision.
func (s *Server) DecideRevision(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Decision         string   `json:"decision"`
		CounterOffer     string   `json:"counter_offer"`
		ProposedPrice    *float64 `json:"proposed_price"`
		ProposedDeadline *string  `json:"proposed_deadline"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.DecideRevisionInput{
		Decision:      req.Decision,
		CounterOffer:  req.CounterOffer,
		ProposedPrice: req.ProposedPrice,
	}
	if req.ProposedDeadline != nil && *req.ProposedDeadline != "" {
		t, parseErr := time.Parse(time.RFC3339, *req.ProposedDeadline)
		if parseErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Proposed deadline must be an RFC3339 timestamp"))
		}
		in.ProposedDeadline = &t
	}

	order, err := s.orderService.DecideRevision(c.Context(), id, in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// ListCustomers handles GET /api/admin/users.
func (s *Server) ListCustomers(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	users, err := s.userService.ListCustomers(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// GetCustomerDetail handles GET /api/admin/users/:id.
func (s *Server) GetCustomerDetail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.userService.GetCustomerDetail(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(detail)
}

// UpdateCustomer handles POST /api/admin/users/:id/update.
func (s *Server) UpdateCustomer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Company  string `json:"company"`
		Role     string `json:"role"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.AdminUpdateUser(c.Context(), id, service.AdminUpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// DeleteCustomer handles DELETE /api/admin/users/:id.
func (s *Server) DeleteCustomer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.DeleteCustomer(c.Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// BulkDeleteCustomers handles POST /api/admin/users/bulk-delete.
func (s *Server) BulkDeleteCustomers(c *fiber.Ctx) error {
	var req struct {
		UserIDs []uint `json:"userIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	deleted, err := s.userService.DeleteCustomers(c.Context(), req.UserIDs)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "deleted": deleted})
}

// ListMessages handles GET /api/admin/messages.
func (s *Server) ListMessages(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	messages, err := s.messageService.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// ReplyToMessage handles POST /api/admin/messages/:id/reply.
func (s *Server) ReplyToMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reply string `json:"reply"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	msg, err := s.messageService.Reply(c.Context(), id, req.Reply)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

// MarkMessageRead handles POST /api/admin/messages/:id/read.
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.messageService.MarkRead(c.Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

// DeleteMessage handles DELETE /api/admin/messages/:id.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.messageService.Delete(c.Context(), id); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// SendNotificationToUser handles POST /api/admin/messages/send-to-user.
func (s *Server) SendNotificationToUser(c *fiber.Ctx) error {
	var req struct {
		UserID uint   `json:"user_id"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.notifService.SendToUser(c.Context(), req.UserID, req.Title, req.Body); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ListAllNotifications handles GET /api/admin/notifications.
func (s *Server) ListAllNotifications(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	notifications, err := s.notifService.ListAll(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}
