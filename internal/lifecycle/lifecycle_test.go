package lifecycle

import (
	"testing"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusInProgress, models.StatusCancelled},
		NextStatuses(models.StatusPending))

	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusInProgress, models.StatusDelivered, models.StatusCancelled},
		NextStatuses(models.StatusRevision))
}

func TestCancelledIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.False(t, IsTerminal(models.StatusPending))
	assert.False(t, IsTerminal(models.StatusDelivered))
}

func TestNotificationTypeForStatus(t *testing.T) {
	tests := []struct {
		status models.OrderStatus
		want   models.NotificationType
	}{
		{models.StatusCancelled, models.NotifOrderCancelled},
		{models.StatusDelivered, models.NotifOrderDelivered},
		{models.StatusInProgress, models.NotifOrderApproved},
		{models.StatusPending, models.NotifOrderApproved},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NotificationTypeForStatus(tt.status), string(tt.status))
	}
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("in_progress")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, status)

	_, err = ParseStatus("shipped")
	assert.Error(t, err)
	appErr, ok := err.(*models.AppError)
	assert.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestParseDecision(t *testing.T) {
	decision, err := ParseDecision("counter_offer")
	assert.NoError(t, err)
	assert.Equal(t, models.RevisionCounterOffer, decision)

	// pending is a stored state, not a decision an admin can make
	_, err = ParseDecision("pending")
	assert.Error(t, err)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "In Progress", StatusText(models.StatusInProgress))
	assert.Equal(t, "unknown", StatusText(models.OrderStatus("unknown")))
}
