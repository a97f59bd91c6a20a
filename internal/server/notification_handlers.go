package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetMyNotifications handles GET /api/user/notifications. Listing marks
// everything as read: once the user has seen the list, the badge resets.
func (s *Server) GetMyNotifications(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	notifications, err := s.notifService.ListForUser(c.Context(), user.ID, p.Limit, p.Offset)
	if err != nil {
		return respondErr(c, err)
	}
	if err := s.notifService.MarkAllRead(c.Context(), user.ID); err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{"notifications": notifications})
}

// GetUnreadCount handles GET /api/user/notifications/unread-count.
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	user, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	count, err := s.notifService.UnreadCount(c.Context(), user.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}
