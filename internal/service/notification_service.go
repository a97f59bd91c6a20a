package service

import (
	"context"

	"atelier/internal/cache"
	"atelier/internal/models"
	"atelier/internal/notifications"
	"atelier/internal/repository"
)

type NotificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	emitter   NotificationEmitter
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	emitter NotificationEmitter,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		emitter:   emitter,
	}
}

// ListForUser returns the user's live notifications and opportunistically
// purges expired rows so the table does not grow without bound.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	// Lazy purge; failures are irrelevant to the read.
	_, _ = s.notifRepo.PurgeExpired(ctx)
	return s.notifRepo.ListByUser(ctx, userID, limit, offset)
}

// UnreadCount serves the badge counter through the cache.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.UnreadCountKey(userID), &count, cache.UnreadCountTTL, func() error {
		var err error
		count, err = s.notifRepo.UnreadCountByUser(ctx, userID)
		return err
	})
	return count, err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	if err := s.notifRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.UnreadCountKey(userID))
	return nil
}

func (s *NotificationService) ListAll(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	return s.notifRepo.ListAll(ctx, limit, offset)
}

// SendToUser lets an admin push a system notification to a specific
// account.
func (s *NotificationService) SendToUser(ctx context.Context, userID uint, title, body string) error {
	if title == "" || body == "" {
		return models.NewValidationError("Title and body are required")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	s.emitter.Emit(ctx, notifications.Draft{
		UserID: userID,
		Title:  title,
		Body:   body,
		Type:   models.NotifSystem,
	})
	return nil
}
