// Package notifications persists per-user notifications and publishes them
// into Redis channels for interested listeners.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/cache"
	"atelier/internal/middleware"
	"atelier/internal/models"
	"atelier/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Draft is a notification that has been decided but not yet emitted.
// Operations build drafts alongside their primary result and hand them to
// the Emitter afterwards, so a failed emit can never undo the primary write.
type Draft struct {
	UserID           uint
	Title            string
	Body             string
	Type             models.NotificationType
	RelatedOrderID   *uint
	RelatedMessageID *uint
}

// Emitter writes notifications to the store and announces them over Redis.
// Both steps are best effort: failures are logged and counted, never
// propagated to the caller.
type Emitter struct {
	repo repository.NotificationRepository
	rdb  *redis.Client
}

// NewEmitter creates an Emitter. rdb may be nil, in which case publishing
// is skipped.
func NewEmitter(repo repository.NotificationRepository, rdb *redis.Client) *Emitter {
	return &Emitter{repo: repo, rdb: rdb}
}

// Emit persists and publishes every draft. It never returns an error.
func (e *Emitter) Emit(ctx context.Context, drafts ...Draft) {
	for _, d := range drafts {
		notification := &models.Notification{
			UserID:           d.UserID,
			Title:            d.Title,
			Body:             d.Body,
			Type:             d.Type,
			RelatedOrderID:   d.RelatedOrderID,
			RelatedMessageID: d.RelatedMessageID,
			ExpiresAt:        time.Now().Add(models.NotificationTTL),
		}
		if err := e.repo.Create(ctx, notification); err != nil {
			middleware.NotificationEmitFailures.WithLabelValues(string(d.Type)).Inc()
			slog.ErrorContext(ctx, "failed to persist notification",
				"user_id", d.UserID, "type", d.Type, "error", err)
			continue
		}
		cache.Invalidate(ctx, cache.UnreadCountKey(d.UserID))
		e.publish(ctx, notification)
	}
}

func (e *Emitter) publish(ctx context.Context, n *models.Notification) {
	if e.rdb == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal notification payload", "error", err)
		return
	}
	channel := fmt.Sprintf("notifications:user:%d", n.UserID)
	if err := e.rdb.Publish(ctx, channel, string(payload)).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("publish").Inc()
		slog.WarnContext(ctx, "failed to publish notification",
			"channel", channel, "error", err)
	}
}
