// Package lifecycle defines the order status machine: the closed status and
// decision enumerations, the nominal transition table, and the mapping tables
// from statuses to display text and notification types.
package lifecycle

import (
	"atelier/internal/models"
)

// Transition describes a nominal state change in the order lifecycle.
type Transition struct {
	From models.OrderStatus
	To   models.OrderStatus
}

// transitions is the documented lifecycle:
// pending -> in_progress -> delivered -> revision -> (in_progress | delivered | cancelled),
// with cancellation possible from any non-terminal state.
//
// Admin status updates deliberately do NOT enforce this table; the original
// system applies any requested status unconditionally and that behavior is
// preserved. The table backs display and documentation only.
var transitions = []Transition{
	{From: models.StatusPending, To: models.StatusInProgress},
	{From: models.StatusPending, To: models.StatusCancelled},
	{From: models.StatusInProgress, To: models.StatusDelivered},
	{From: models.StatusInProgress, To: models.StatusCancelled},
	{From: models.StatusDelivered, To: models.StatusRevision},
	{From: models.StatusDelivered, To: models.StatusCancelled},
	{From: models.StatusRevision, To: models.StatusInProgress},
	{From: models.StatusRevision, To: models.StatusDelivered},
	{From: models.StatusRevision, To: models.StatusCancelled},
}

// NextStatuses returns all nominal successor states for the given status.
func NextStatuses(from models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range transitions {
		if t.From == from {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// IsTerminal reports whether a status has no successor states.
func IsTerminal(status models.OrderStatus) bool {
	return len(NextStatuses(status)) == 0
}

var statusText = map[models.OrderStatus]string{
	models.StatusPending:    "Pending",
	models.StatusInProgress: "In Progress",
	models.StatusDelivered:  "Delivered",
	models.StatusRevision:   "In Revision",
	models.StatusCancelled:  "Cancelled",
}

// StatusText returns the human-readable label for a status, used in
// notification bodies shown to the order's owner.
func StatusText(status models.OrderStatus) string {
	if text, ok := statusText[status]; ok {
		return text
	}
	return string(status)
}

// NotificationTypeForStatus maps a new order status to the notification
// type emitted alongside it.
func NotificationTypeForStatus(status models.OrderStatus) models.NotificationType {
	switch status {
	case models.StatusCancelled:
		return models.NotifOrderCancelled
	case models.StatusDelivered:
		return models.NotifOrderDelivered
	default:
		return models.NotifOrderApproved
	}
}

var decisionText = map[models.RevisionDecision]string{
	models.RevisionAccepted:     "was accepted",
	models.RevisionRejected:     "was rejected",
	models.RevisionCounterOffer: "received a counter offer",
}

// DecisionText returns the human-readable phrasing of a revision decision.
func DecisionText(decision models.RevisionDecision) string {
	if text, ok := decisionText[decision]; ok {
		return text
	}
	return string(decision)
}

// ParseStatus validates an inbound status string against the closed set.
func ParseStatus(s string) (models.OrderStatus, error) {
	switch status := models.OrderStatus(s); status {
	case models.StatusPending, models.StatusInProgress, models.StatusDelivered,
		models.StatusRevision, models.StatusCancelled:
		return status, nil
	}
	return "", models.NewValidationError("Unknown order status: " + s)
}

// ParseDecision validates an inbound revision decision string. The pending
// value is not an admin decision and is rejected here.
func ParseDecision(s string) (models.RevisionDecision, error) {
	switch decision := models.RevisionDecision(s); decision {
	case models.RevisionAccepted, models.RevisionRejected, models.RevisionCounterOffer:
		return decision, nil
	}
	return "", models.NewValidationError("Unknown revision decision: " + s)
}

// ParsePriority validates an inbound priority string.
func ParsePriority(s string) (models.OrderPriority, error) {
	switch priority := models.OrderPriority(s); priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
		return priority, nil
	}
	return "", models.NewValidationError("Unknown priority: " + s)
}
