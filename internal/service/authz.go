package service

import (
	"atelier/internal/models"
)

// CanManageOrder reports whether the actor may read or act on the order.
// Admins may manage any order; everyone else only their own.
func CanManageOrder(actor *models.User, order *models.Order) bool {
	if actor == nil || order == nil {
		return false
	}
	return actor.IsAdmin() || actor.ID == order.UserID
}

// RequireOrderAccess turns the capability check into an error for handlers
// and services that want to fail closed.
func RequireOrderAccess(actor *models.User, order *models.Order) error {
	if !CanManageOrder(actor, order) {
		return models.NewForbiddenError("You do not have access to this order")
	}
	return nil
}
