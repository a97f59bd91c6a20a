package repository

import (
	"context"
	"testing"
	"time"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestNotification(t *testing.T, userID uint, expiresAt time.Time) *models.Notification {
	t.Helper()
	n := &models.Notification{
		UserID:    userID,
		Title:     "Order Update",
		Body:      "Your order status changed.",
		Type:      models.NotifOrderApproved,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, testDB.Create(n).Error)
	return n
}

func TestNotificationRepository_ListByUser_ExcludesExpired(t *testing.T) {
	resetTables(t)
	repo := NewNotificationRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "notif@example.com", models.RoleUser)
	other := createTestUser(t, "othernotif@example.com", models.RoleUser)

	live := createTestNotification(t, user.ID, time.Now().Add(models.NotificationTTL))
	createTestNotification(t, user.ID, time.Now().Add(-time.Hour))
	createTestNotification(t, other.ID, time.Now().Add(models.NotificationTTL))

	notifications, err := repo.ListByUser(ctx, user.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, live.ID, notifications[0].ID)
	assert.False(t, notifications[0].IsExpired())
}

func TestNotificationRepository_UnreadCount(t *testing.T) {
	resetTables(t)
	repo := NewNotificationRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "unread@example.com", models.RoleUser)

	createTestNotification(t, user.ID, time.Now().Add(models.NotificationTTL))
	createTestNotification(t, user.ID, time.Now().Add(models.NotificationTTL))
	// Expired rows never count, read or not.
	createTestNotification(t, user.ID, time.Now().Add(-time.Minute))

	count, err := repo.UnreadCountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repo.MarkAllRead(ctx, user.ID))

	count, err = repo.UnreadCountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationRepository_PurgeExpired(t *testing.T) {
	resetTables(t)
	repo := NewNotificationRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "purge@example.com", models.RoleUser)

	createTestNotification(t, user.ID, time.Now().Add(models.NotificationTTL))
	createTestNotification(t, user.ID, time.Now().Add(-time.Hour))
	createTestNotification(t, user.ID, time.Now().Add(-48*time.Hour))

	purged, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	var remaining int64
	require.NoError(t, testDB.Model(&models.Notification{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}

func TestNotificationRepository_DeleteByUsers(t *testing.T) {
	resetTables(t)
	repo := NewNotificationRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "delnotif@example.com", models.RoleUser)
	keeper := createTestUser(t, "keepnotif@example.com", models.RoleUser)

	createTestNotification(t, user.ID, time.Now().Add(models.NotificationTTL))
	createTestNotification(t, keeper.ID, time.Now().Add(models.NotificationTTL))

	require.NoError(t, repo.DeleteByUsers(ctx, []uint{user.ID}))

	var count int64
	require.NoError(t, testDB.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Empty slice is a no-op, not an error.
	require.NoError(t, repo.DeleteByUsers(ctx, nil))
}
